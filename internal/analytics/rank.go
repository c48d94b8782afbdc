package analytics

// RankedPost references the best scoring post.
type RankedPost struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Slug  string `json:"slug,omitempty"`
	Score int64  `json:"score"`
}

// TopPost folds left to right from an empty accumulator scoring 0 and keeps
// a post only when it scores strictly higher, so the first of equal posts
// wins and a post scoring 0 is never chosen. Returns nil for no winner.
func TopPost(published []Post, w Weights) *RankedPost {
	var top *RankedPost
	var best int64
	for _, p := range published {
		score := w.Score(p)
		if score > best {
			best = score
			top = &RankedPost{ID: p.ID, Title: p.Title, Slug: p.Slug, Score: score}
		}
	}
	return top
}
