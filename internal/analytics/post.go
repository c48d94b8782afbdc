package analytics

import (
	"strings"
	"time"
)

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Post is the read-only view of a blog post the aggregator works on.
type Post struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title,omitempty"`
	Slug               string     `json:"slug,omitempty"`
	Status             Status     `json:"status"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	ViewCount          int64      `json:"view_count"`
	LikeCount          int64      `json:"like_count"`
	CommentCount       int64      `json:"comment_count"`
	BookmarkCount      int64      `json:"bookmark_count"`
	ReadingTimeMinutes int        `json:"reading_time"`
}

// EffectiveDate returns PublishedAt when set, otherwise CreatedAt.
// ok is false when the chosen timestamp is the zero time.
func (p Post) EffectiveDate() (t time.Time, ok bool) {
	t = p.CreatedAt
	if p.PublishedAt != nil {
		t = *p.PublishedAt
	}
	return t, !t.IsZero()
}

// Record is a post as found in a content export. Timestamps are kept as
// strings so that a single bad value does not reject the whole file.
type Record struct {
	ID            string `json:"id"`
	Title         string `json:"title,omitempty"`
	Slug          string `json:"slug,omitempty"`
	Status        string `json:"status"`
	PublishedAt   string `json:"published_at,omitempty"`
	CreatedAt     string `json:"created_at"`
	ViewCount     int64  `json:"view_count"`
	LikeCount     int64  `json:"like_count"`
	CommentCount  int64  `json:"comment_count"`
	BookmarkCount int64  `json:"bookmark_count"`
	ReadingTime   int    `json:"reading_time"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// ParseTimestamp accepts the timestamp shapes produced by the API export and
// by Postgres-backed exports. Values without a zone are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToRecord converts a post into its export form.
func (p Post) ToRecord() Record {
	r := Record{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Status:        string(p.Status),
		ViewCount:     p.ViewCount,
		LikeCount:     p.LikeCount,
		CommentCount:  p.CommentCount,
		BookmarkCount: p.BookmarkCount,
		ReadingTime:   p.ReadingTimeMinutes,
	}
	if p.PublishedAt != nil {
		r.PublishedAt = p.PublishedAt.Format(time.RFC3339Nano)
	}
	if !p.CreatedAt.IsZero() {
		r.CreatedAt = p.CreatedAt.Format(time.RFC3339Nano)
	}
	return r
}

// Post converts an export record. Unparseable timestamps become zero values
// and surface later as anomalies.
func (r Record) Post(loc *time.Location) Post {
	p := Post{
		ID:                 r.ID,
		Title:              r.Title,
		Slug:               r.Slug,
		Status:             Status(r.Status),
		ViewCount:          r.ViewCount,
		LikeCount:          r.LikeCount,
		CommentCount:       r.CommentCount,
		BookmarkCount:      r.BookmarkCount,
		ReadingTimeMinutes: r.ReadingTime,
	}
	if strings.TrimSpace(r.PublishedAt) != "" {
		t, ok := ParseTimestamp(r.PublishedAt, loc)
		if !ok {
			// an unreadable published_at leaves the post undated
			p.PublishedAt = &time.Time{}
			return p
		}
		p.PublishedAt = &t
	}
	if t, ok := ParseTimestamp(r.CreatedAt, loc); ok {
		p.CreatedAt = t
	}
	return p
}
