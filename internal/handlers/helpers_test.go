package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/inkwell/api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Go 1.24: what's new?  ", "go-1-24-what-s-new"},
		{"Ação rápida em São Paulo", "acao-rapida-em-sao-paulo"},
		{"Straße", "strasse"},
		{"---", "post"},
		{"", "post"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, generateSlug(tt.title), tt.title)
	}
}

func TestEstimateReadingTime(t *testing.T) {
	words := func(n int) string { return strings.Repeat("word ", n) }

	assert.Equal(t, 1, estimateReadingTime(""))
	assert.Equal(t, 1, estimateReadingTime(words(1)))
	assert.Equal(t, 1, estimateReadingTime(words(200)))
	assert.Equal(t, 2, estimateReadingTime(words(201)))
	assert.Equal(t, 3, estimateReadingTime(words(450)))
}

func TestDeriveExcerpt(t *testing.T) {
	assert.Equal(t, "Title Some bold and code text.", deriveExcerpt("# Title\n\nSome **bold** and `code` text."))

	long := strings.Repeat("a", 200)
	got := deriveExcerpt(long)
	assert.Equal(t, strings.Repeat("a", excerptLength)+"...", got)

	// multi-byte characters are not split
	accents := strings.Repeat("é", 170)
	assert.Equal(t, strings.Repeat("é", excerptLength)+"...", deriveExcerpt(accents))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"go", "redis"}, normalizeTags([]string{" Go ", "redis", "GO", ""}))
	assert.Equal(t, []string{}, normalizeTags(nil))
}

func TestNewPost(t *testing.T) {
	author := primitive.NewObjectID()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	draft := newPost(author, "draft", models.CreatePostRequest{
		Title:   "Draft",
		Content: "# Heading\nbody",
		Status:  models.StatusDraft,
	}, now)
	assert.Nil(t, draft.PublishedAt)
	assert.Equal(t, "Heading body", draft.Excerpt)
	assert.Equal(t, 1, draft.ReadingTime)
	assert.Equal(t, []string{}, draft.Tags)

	published := newPost(author, "live", models.CreatePostRequest{
		Title:   "Live",
		Content: "body",
		Excerpt: "Custom",
		Status:  models.StatusPublished,
	}, now)
	require.NotNil(t, published.PublishedAt)
	assert.True(t, now.Equal(*published.PublishedAt))
	assert.Equal(t, "Custom", published.Excerpt)
}

func TestUpdateFieldsPublishedAtSetOnce(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	published := models.StatusPublished

	draft := models.BlogPost{Status: models.StatusDraft}
	set := updateFields(draft, models.UpdatePostRequest{Status: &published}, now)
	assert.Equal(t, now, set["published_at"])

	earlier := now.AddDate(0, 0, -10)
	republished := models.BlogPost{Status: models.StatusDraft, PublishedAt: &earlier}
	set = updateFields(republished, models.UpdatePostRequest{Status: &published}, now)
	assert.NotContains(t, set, "published_at")
}

func TestUpdateFieldsExcerptFollowsContent(t *testing.T) {
	now := time.Now()
	content := "new body"

	derived := models.BlogPost{Content: "old body", Excerpt: deriveExcerpt("old body")}
	set := updateFields(derived, models.UpdatePostRequest{Content: &content}, now)
	assert.Equal(t, "new body", set["excerpt"])
	assert.Equal(t, 1, set["reading_time"])

	custom := models.BlogPost{Content: "old body", Excerpt: "hand written"}
	set = updateFields(custom, models.UpdatePostRequest{Content: &content}, now)
	assert.NotContains(t, set, "excerpt")
}

func TestFeedFilter(t *testing.T) {
	f := feedFilter("", "", "")
	assert.Equal(t, bson.M{"status": models.StatusPublished}, f)

	f = feedFilter("tech", "go", "a.b")
	assert.Equal(t, "tech", f["category"])
	assert.Equal(t, "go", f["tags"])
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"title": primitive.Regex{Pattern: `a\.b`, Options: "i"}}, or[0])
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, defaultPageSize},
		{"?page=3&limit=20", 3, 20},
		{"?page=-1&limit=500", 1, defaultPageSize},
		{"?page=abc", 1, defaultPageSize},
	}
	for _, tt := range tests {
		page, limit := pagination(httptest.NewRequest("GET", "/"+tt.query, nil))
		assert.Equal(t, tt.wantPage, page, tt.query)
		assert.Equal(t, tt.wantLimit, limit, tt.query)
	}
	assert.EqualValues(t, 40, skip(3, 20))
}

func TestPostFilter(t *testing.T) {
	id := primitive.NewObjectID()
	assert.Equal(t, bson.M{"_id": id}, postFilter(id.Hex()))
	assert.Equal(t, bson.M{"slug": "hello-world"}, postFilter("hello-world"))
}

func TestValidComment(t *testing.T) {
	_, ok := validComment("   ")
	assert.False(t, ok)

	got, ok := validComment("  nice post  ")
	assert.True(t, ok)
	assert.Equal(t, "nice post", got)

	_, ok = validComment(strings.Repeat("é", maxCommentLength))
	assert.True(t, ok)
	_, ok = validComment(strings.Repeat("x", maxCommentLength+1))
	assert.False(t, ok)
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name string
		req  models.RegisterRequest
		want string
	}{
		{"missing name", models.RegisterRequest{Email: "a@b.co", Password: "secret1"}, "Email, password and name are required"},
		{"bad email", models.RegisterRequest{Email: "nope", Password: "secret1", Name: "Ana"}, "Invalid email address"},
		{"short password", models.RegisterRequest{Email: "a@b.co", Password: "123", Name: "Ana"}, "Password must be at least 6 characters"},
		{"valid", models.RegisterRequest{Email: " Ana@Example.COM ", Password: "secret1", Name: " Ana "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			assert.Equal(t, tt.want, validateRegistration(&req))
			if tt.want == "" {
				assert.Equal(t, "ana@example.com", req.Email)
				assert.Equal(t, "Ana", req.Name)
			}
		})
	}
}

func TestNewProfileDefaults(t *testing.T) {
	p := newProfile(primitive.NewObjectID(), "Ana", time.Now())
	assert.Equal(t, models.RoleAuthor, p.Role)
	assert.Equal(t, "30d", p.Settings.DashboardRange)
	assert.True(t, p.Settings.EmailNotifications)
}

func TestProfileFields(t *testing.T) {
	off := false
	set, err := profileFields(models.UpdateProfileRequest{
		Name:     " Ana ",
		Username: "AnaW",
		Settings: models.SettingsUpdate{Theme: "dark", DashboardRange: "90d", EmailNotifications: &off},
	})
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"name":                         "Ana",
		"username":                     "anaw",
		"settings.theme":               "dark",
		"settings.dashboard_range":     "90d",
		"settings.email_notifications": false,
	}, set)

	_, err = profileFields(models.UpdateProfileRequest{Settings: models.SettingsUpdate{Theme: "neon"}})
	assert.Error(t, err)

	_, err = profileFields(models.UpdateProfileRequest{Settings: models.SettingsUpdate{DashboardRange: "2w"}})
	assert.Error(t, err)
}

func TestBuildSitemap(t *testing.T) {
	published := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	sm := buildSitemap("https://inkwell.dev", []models.BlogPost{
		{Slug: "hello", UpdatedAt: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)},
		{Slug: "legacy", PublishedAt: &published},
	})

	require.Len(t, sm.URLs, 4)
	assert.Equal(t, sitemapNS, sm.XMLNS)
	assert.Equal(t, "https://inkwell.dev", sm.URLs[0].Loc)
	assert.Equal(t, "https://inkwell.dev/blog/hello", sm.URLs[2].Loc)
	assert.Equal(t, "2026-02-03", sm.URLs[2].LastMod)
	assert.Equal(t, "2026-02-01", sm.URLs[3].LastMod)
}
