package models

import (
	"time"

	"github.com/inkwell/api/internal/analytics"
)

// DashboardResponse wraps an analytics snapshot for the author dashboard
type DashboardResponse struct {
	Snapshot    analytics.Snapshot `json:"snapshot"`
	GeneratedAt time.Time          `json:"generated_at"`
	Cached      bool               `json:"cached"`
}

// ExportResponse is the content backup download
type ExportResponse struct {
	ExportedAt time.Time    `json:"exported_at"`
	AuthorID   string       `json:"author_id"`
	Posts      []ExportPost `json:"posts"`
}

// ExportPost is one post of a content backup. The embedded record is what
// the offline analytics tool reads back.
type ExportPost struct {
	analytics.Record
	Content  string   `json:"content"`
	Excerpt  string   `json:"excerpt"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags"`
}

// ExportPostFrom builds the backup entry for p.
func ExportPostFrom(p BlogPost) ExportPost {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ExportPost{
		Record:   p.AnalyticsPost().ToRecord(),
		Content:  p.Content,
		Excerpt:  p.Excerpt,
		Category: p.Category,
		Tags:     tags,
	}
}
