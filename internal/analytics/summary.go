package analytics

import "math"

// Totals are the engagement sums over published posts.
type Totals struct {
	Views          int64   `json:"total_views"`
	Likes          int64   `json:"total_likes"`
	Comments       int64   `json:"total_comments"`
	Bookmarks      int64   `json:"total_bookmarks"`
	AvgReadingTime float64 `json:"avg_reading_time"`
	EngagementRate float64 `json:"engagement_rate"`
}

// Summarize sums counters over published posts. The average reading time is
// rounded to one decimal and the engagement rate, a percentage of views, to two.
func Summarize(published []Post) Totals {
	var t Totals
	var reading int64
	for _, p := range published {
		t.Views += p.ViewCount
		t.Likes += p.LikeCount
		t.Comments += p.CommentCount
		t.Bookmarks += p.BookmarkCount
		reading += int64(p.ReadingTimeMinutes)
	}
	if len(published) > 0 {
		t.AvgReadingTime = roundHalfUp(float64(reading)/float64(len(published)), 1)
	}
	t.EngagementRate = EngagementRate(t.Likes, t.Comments, t.Bookmarks, t.Views)
	return t
}

// EngagementRate is (likes+comments+bookmarks)/views*100, or 0 without views.
// It is not clamped and may exceed 100.
func EngagementRate(likes, comments, bookmarks, views int64) float64 {
	if views <= 0 {
		return 0
	}
	rate := float64(likes+comments+bookmarks) / float64(views) * 100
	return roundHalfUp(rate, 2)
}

func roundHalfUp(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Floor(v*scale+0.5) / scale
}
