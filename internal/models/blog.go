package models

import (
	"time"

	"github.com/inkwell/api/internal/analytics"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusDraft     = string(analytics.StatusDraft)
	StatusPublished = string(analytics.StatusPublished)
)

// BlogPost represents a blog article. Content is Markdown and stored verbatim.
type BlogPost struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AuthorID        primitive.ObjectID `json:"author_id" bson:"author_id"`
	Title           string             `json:"title" bson:"title"`
	Slug            string             `json:"slug" bson:"slug"`
	Content         string             `json:"content" bson:"content"`
	Excerpt         string             `json:"excerpt" bson:"excerpt"`
	CoverImage      string             `json:"cover_image,omitempty" bson:"cover_image,omitempty"`
	Category        string             `json:"category" bson:"category"`
	Tags            []string           `json:"tags" bson:"tags"`
	Status          string             `json:"status" bson:"status"` // "draft" or "published"
	MetaTitle       string             `json:"meta_title,omitempty" bson:"meta_title,omitempty"`
	MetaDescription string             `json:"meta_description,omitempty" bson:"meta_description,omitempty"`
	ReadingTime     int                `json:"reading_time" bson:"reading_time"` // estimated minutes
	ViewCount       int64              `json:"view_count" bson:"view_count"`
	UniqueViewCount int64              `json:"unique_view_count" bson:"unique_view_count"`
	LikeCount       int64              `json:"like_count" bson:"like_count"`
	CommentCount    int64              `json:"comment_count" bson:"comment_count"`
	BookmarkCount   int64              `json:"bookmark_count" bson:"bookmark_count"`
	PublishedAt     *time.Time         `json:"published_at,omitempty" bson:"published_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// AnalyticsPost returns the fields the dashboard aggregator reads.
func (p BlogPost) AnalyticsPost() analytics.Post {
	return analytics.Post{
		ID:                 p.ID.Hex(),
		Title:              p.Title,
		Slug:               p.Slug,
		Status:             analytics.Status(p.Status),
		PublishedAt:        p.PublishedAt,
		CreatedAt:          p.CreatedAt,
		ViewCount:          p.ViewCount,
		LikeCount:          p.LikeCount,
		CommentCount:       p.CommentCount,
		BookmarkCount:      p.BookmarkCount,
		ReadingTimeMinutes: p.ReadingTime,
	}
}

// AnalyticsPosts converts a batch of posts for aggregation.
func AnalyticsPosts(posts []BlogPost) []analytics.Post {
	out := make([]analytics.Post, len(posts))
	for i, p := range posts {
		out[i] = p.AnalyticsPost()
	}
	return out
}

// CreatePostRequest is the request body for creating a blog post
type CreatePostRequest struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Excerpt         string   `json:"excerpt"`
	CoverImage      string   `json:"cover_image,omitempty"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags,omitempty"`
	Status          string   `json:"status"` // "draft" or "published"
	MetaTitle       string   `json:"meta_title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
}

// UpdatePostRequest is the request body for updating a blog post
type UpdatePostRequest struct {
	Title           *string  `json:"title,omitempty"`
	Content         *string  `json:"content,omitempty"`
	Excerpt         *string  `json:"excerpt,omitempty"`
	CoverImage      *string  `json:"cover_image,omitempty"`
	Category        *string  `json:"category,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Status          *string  `json:"status,omitempty"`
	MetaTitle       *string  `json:"meta_title,omitempty"`
	MetaDescription *string  `json:"meta_description,omitempty"`
}

// PostResponse is the response for a single blog post with author info
type PostResponse struct {
	BlogPost     `json:",inline"`
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar,omitempty"`
}

// PostListResponse is the paginated response for listing blog posts
type PostListResponse struct {
	Posts []PostResponse `json:"posts"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// TrendingTag is a tag with the number of published posts using it
type TrendingTag struct {
	Name      string `json:"name" bson:"_id"`
	PostCount int64  `json:"post_count" bson:"post_count"`
}

// BlogImage represents an uploaded image stored in the images collection
type BlogImage struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UploaderID primitive.ObjectID `json:"uploader_id" bson:"uploader_id"`
	Kind       string             `json:"kind" bson:"kind"`     // "cover" or "avatar"
	Width      int                `json:"width" bson:"width"`   // image width in pixels
	Data       string             `json:"-" bson:"data"`        // base64 data, never in JSON list responses
	Size       int                `json:"size" bson:"size"`     // compressed size in bytes
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}
