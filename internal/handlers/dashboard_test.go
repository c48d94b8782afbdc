package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/inkwell/api/internal/analytics"
	"github.com/inkwell/api/internal/cache"
	"github.com/inkwell/api/internal/middleware"
	"github.com/inkwell/api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var dashboardNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func at(day, hour int) *time.Time {
	t := time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func dashboardFixture(authorID primitive.ObjectID) []models.BlogPost {
	return []models.BlogPost{
		{
			ID: primitive.NewObjectID(), AuthorID: authorID, Title: "Hello", Slug: "hello",
			Status: models.StatusPublished, PublishedAt: at(14, 10), CreatedAt: *at(13, 9),
			ViewCount: 100, LikeCount: 5, CommentCount: 1, BookmarkCount: 2, ReadingTime: 3,
		},
		{
			ID: primitive.NewObjectID(), AuthorID: authorID, Title: "Older", Slug: "older",
			Status: models.StatusPublished, PublishedAt: at(10, 8), CreatedAt: *at(9, 8),
			ViewCount: 50, LikeCount: 2, ReadingTime: 1,
		},
		{
			ID: primitive.NewObjectID(), AuthorID: authorID, Title: "Draft", Slug: "draft",
			Status: models.StatusDraft, CreatedAt: *at(12, 8), ViewCount: 7,
		},
		{
			ID: primitive.NewObjectID(), AuthorID: authorID, Title: "Broken", Slug: "broken",
			Status: models.StatusPublished, PublishedAt: &time.Time{}, CreatedAt: *at(1, 8),
			ViewCount: 3, ReadingTime: 2,
		},
	}
}

// setupDashboard wires a fixed clock, a miniredis cache and an in-memory post
// source. It returns the number of times posts were loaded.
func setupDashboard(t *testing.T, posts []models.BlogPost, loadErr error) *atomic.Int32 {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	origAgg, origCache, origList := dashboardAggregator, dashboardCache, listAuthorPosts
	t.Cleanup(func() {
		dashboardAggregator, dashboardCache, listAuthorPosts = origAgg, origCache, origList
	})

	ConfigureDashboard(
		analytics.NewAggregator(analytics.Options{
			Location: time.UTC,
			Now:      func() time.Time { return dashboardNow },
		}),
		cache.NewRedisDashboard(rdb, time.Hour, time.UTC),
	)

	var loads atomic.Int32
	listAuthorPosts = func(context.Context, primitive.ObjectID) ([]models.BlogPost, error) {
		loads.Add(1)
		return posts, loadErr
	}
	return &loads
}

func getDashboard(t *testing.T, authorID primitive.ObjectID, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/analytics"+query, nil)
	if authorID != primitive.NilObjectID {
		req = req.WithContext(middleware.WithUserID(req.Context(), authorID))
	}
	rec := httptest.NewRecorder()
	GetDashboardAnalytics(rec, req)
	return rec
}

func decodeDashboard(t *testing.T, rec *httptest.ResponseRecorder) models.DashboardResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.DashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestDashboardAnalyticsComputesSnapshot(t *testing.T) {
	author := primitive.NewObjectID()
	setupDashboard(t, dashboardFixture(author), nil)

	resp := decodeDashboard(t, getDashboard(t, author, "?range=7d"))
	snap := resp.Snapshot

	assert.False(t, resp.Cached)
	assert.True(t, dashboardNow.Equal(resp.GeneratedAt))
	assert.Equal(t, analytics.Range7Days, snap.Range)
	assert.Equal(t, 4, snap.TotalPosts)
	assert.Equal(t, 3, snap.PublishedCount)
	assert.Equal(t, 1, snap.DraftCount)
	assert.EqualValues(t, 153, snap.Views)
	assert.EqualValues(t, 7, snap.Likes)
	assert.Equal(t, 2, snap.PublishingStreak)

	require.NotNil(t, snap.TopPost)
	assert.Equal(t, "hello", snap.TopPost.Slug)
	assert.EqualValues(t, 113, snap.TopPost.Score)

	require.Equal(t, 7, snap.Series.Len())
	assert.Equal(t, "2026-03-15", snap.Series.Dates[6])
	assert.EqualValues(t, 100, snap.Series.Views[5])
	assert.EqualValues(t, 50, snap.Series.Views[1])

	require.Len(t, snap.Anomalies, 1)
	assert.Equal(t, analytics.ReasonMissingPublishedAt, snap.Anomalies[0].Reason)
}

func TestDashboardAnalyticsDefaultRange(t *testing.T) {
	author := primitive.NewObjectID()
	setupDashboard(t, nil, nil)

	resp := decodeDashboard(t, getDashboard(t, author, ""))
	assert.Equal(t, analytics.DefaultRange, resp.Snapshot.Range)
	assert.Equal(t, 30, resp.Snapshot.Series.Len())
	assert.Nil(t, resp.Snapshot.TopPost)
	assert.Zero(t, resp.Snapshot.PublishingStreak)
}

func TestDashboardAnalyticsRejectsUnknownRange(t *testing.T) {
	author := primitive.NewObjectID()
	loads := setupDashboard(t, nil, nil)

	rec := getDashboard(t, author, "?range=2w")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, loads.Load())
}

func TestDashboardAnalyticsRequiresUser(t *testing.T) {
	setupDashboard(t, nil, nil)
	rec := getDashboard(t, primitive.NilObjectID, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardAnalyticsCaching(t *testing.T) {
	author := primitive.NewObjectID()
	loads := setupDashboard(t, dashboardFixture(author), nil)

	first := decodeDashboard(t, getDashboard(t, author, "?range=30d"))
	second := decodeDashboard(t, getDashboard(t, author, "?range=30d"))

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Snapshot, second.Snapshot)
	assert.EqualValues(t, 1, loads.Load())

	refreshed := decodeDashboard(t, getDashboard(t, author, "?range=30d&refresh=true"))
	assert.False(t, refreshed.Cached)
	assert.EqualValues(t, 2, loads.Load())

	invalidateDashboard(context.Background(), author)
	afterChange := decodeDashboard(t, getDashboard(t, author, "?range=30d"))
	assert.False(t, afterChange.Cached)
	assert.EqualValues(t, 3, loads.Load())
}

func TestDashboardAnalyticsChangeDuringComputation(t *testing.T) {
	author := primitive.NewObjectID()
	posts := dashboardFixture(author)
	loads := setupDashboard(t, nil, nil)

	listAuthorPosts = func(ctx context.Context, _ primitive.ObjectID) ([]models.BlogPost, error) {
		n := loads.Add(1)
		snapshot := append([]models.BlogPost(nil), posts...)
		if n == 1 {
			// a like lands after the posts were read
			posts[0].LikeCount++
			invalidateDashboard(ctx, author)
		}
		return snapshot, nil
	}

	first := decodeDashboard(t, getDashboard(t, author, "?range=7d"))
	second := decodeDashboard(t, getDashboard(t, author, "?range=7d"))
	third := decodeDashboard(t, getDashboard(t, author, "?range=7d"))

	assert.EqualValues(t, 7, first.Snapshot.Likes)
	assert.False(t, second.Cached)
	assert.EqualValues(t, 8, second.Snapshot.Likes)
	assert.True(t, third.Cached)
	assert.EqualValues(t, 8, third.Snapshot.Likes)
	assert.EqualValues(t, 2, loads.Load())
}

func TestDashboardAnalyticsReadsClockOnce(t *testing.T) {
	author := primitive.NewObjectID()
	setupDashboard(t, dashboardFixture(author), nil)

	beforeMidnight := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)
	var calls atomic.Int32
	ConfigureDashboard(analytics.NewAggregator(analytics.Options{
		Location: time.UTC,
		Now: func() time.Time {
			if calls.Add(1) == 1 {
				return beforeMidnight
			}
			return beforeMidnight.Add(2 * time.Second)
		},
	}), dashboardCache)

	resp := decodeDashboard(t, getDashboard(t, author, "?range=7d"))

	assert.True(t, beforeMidnight.Equal(resp.GeneratedAt))
	assert.Equal(t, "2026-03-15", resp.Snapshot.Series.Dates[6])

	nextDay := decodeDashboard(t, getDashboard(t, author, "?range=7d"))
	assert.False(t, nextDay.Cached, "a new day reads a new cache entry")
	assert.Equal(t, "2026-03-16", nextDay.Snapshot.Series.Dates[6])
}

func TestDashboardAnalyticsLoadError(t *testing.T) {
	author := primitive.NewObjectID()
	setupDashboard(t, nil, errors.New("mongo down"))

	rec := getDashboard(t, author, "?range=7d")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestExportContent(t *testing.T) {
	author := primitive.NewObjectID()
	posts := dashboardFixture(author)
	posts[0].Content = "# Hello\nworld"
	posts[0].Tags = []string{"go"}
	setupDashboard(t, posts, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/export", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), author))
	rec := httptest.NewRecorder()
	ExportContent(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="inkwell-export-2026-03-15.json"`, rec.Header().Get("Content-Disposition"))

	var export models.ExportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &export))
	assert.Equal(t, author.Hex(), export.AuthorID)
	require.Len(t, export.Posts, 4)
	assert.Equal(t, "hello", export.Posts[0].Slug)
	assert.Equal(t, "# Hello\nworld", export.Posts[0].Content)
	assert.Equal(t, []string{"go"}, export.Posts[0].Tags)
	assert.Equal(t, []string{}, export.Posts[1].Tags)

	// the export reads back into the same snapshot
	records := make([]analytics.Post, len(export.Posts))
	for i, p := range export.Posts {
		records[i] = p.Record.Post(time.UTC)
	}
	snap := dashboardAggregator.Compute(records, analytics.Range7Days)
	assert.Equal(t, 3, snap.PublishedCount)
	assert.Len(t, snap.Anomalies, 1)
	assert.Equal(t, 2, snap.PublishingStreak)
}
