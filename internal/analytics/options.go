package analytics

import "time"

// Scoring and streak defaults. Override through Options.
const (
	DefaultViewWeight          int64 = 1
	DefaultLikeWeight          int64 = 2
	DefaultCommentWeight       int64 = 3
	DefaultStreakToleranceDays       = 7
)

// Weights are the multipliers of the top-post score.
type Weights struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// DefaultWeights returns views*1 + likes*2 + comments*3.
func DefaultWeights() Weights {
	return Weights{
		Views:    DefaultViewWeight,
		Likes:    DefaultLikeWeight,
		Comments: DefaultCommentWeight,
	}
}

// Score applies w to a post's counters.
func (w Weights) Score(p Post) int64 {
	return p.ViewCount*w.Views + p.LikeCount*w.Likes + p.CommentCount*w.Comments
}

// Options configures an Aggregator. Zero fields take the defaults.
type Options struct {
	// Location defines calendar days for both binning and streak gaps.
	Location *time.Location
	Weights  *Weights
	// StreakToleranceDays is the largest gap, in days, that keeps a streak
	// going. Zero keeps only same-day posts together; nil or negative means
	// DefaultStreakToleranceDays.
	StreakToleranceDays *int
	Now                 func() time.Time
}

// Tolerance returns a StreakToleranceDays value.
func Tolerance(days int) *int {
	return &days
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Weights == nil {
		w := DefaultWeights()
		o.Weights = &w
	}
	if o.StreakToleranceDays == nil || *o.StreakToleranceDays < 0 {
		o.StreakToleranceDays = Tolerance(DefaultStreakToleranceDays)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
