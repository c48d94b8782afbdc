// Package analytics turns an author's posts into the dashboard snapshot:
// status counts, engagement totals, a per-day series, the publishing streak
// and the top post. Everything here is pure; callers fetch posts first.
package analytics

import "time"

// Snapshot is the derived view of a set of posts. A new one is built on every
// call and never modified afterwards.
type Snapshot struct {
	Range          Range  `json:"range"`
	TotalPosts     int    `json:"total_posts"`
	PublishedCount int    `json:"published_count"`
	DraftCount     int    `json:"draft_count"`
	OtherCount     int    `json:"other_count"`
	Totals
	PublishingStreak int         `json:"publishing_streak"`
	TopPost          *RankedPost `json:"top_post"`
	Series           Series      `json:"series"`
	Anomalies        []Anomaly   `json:"anomalies,omitempty"`
}

// Aggregator computes snapshots with a fixed configuration. It holds no
// mutable state and is safe for concurrent use.
type Aggregator struct {
	opts Options
}

// NewAggregator returns an Aggregator with opts applied over the defaults.
func NewAggregator(opts Options) *Aggregator {
	return &Aggregator{opts: opts.withDefaults()}
}

// Options returns the effective configuration.
func (a *Aggregator) Options() Options {
	return a.opts
}

// Compute builds a snapshot for posts over r ending at the configured clock's
// current day. An unknown range yields an empty series; use ParseRange to
// validate user input first.
func (a *Aggregator) Compute(posts []Post, r Range) Snapshot {
	return a.ComputeAt(posts, r, a.opts.Now())
}

// ComputeAt is Compute with an explicit reference time, for callers that
// already keyed their work on now.
func (a *Aggregator) ComputeAt(posts []Post, r Range, now time.Time) Snapshot {
	c := Classify(posts)

	return Snapshot{
		Range:            r,
		TotalPosts:       len(posts),
		PublishedCount:   len(c.Published),
		DraftCount:       len(c.Drafts),
		OtherCount:       len(c.Other),
		Totals:           Summarize(c.Published),
		PublishingStreak: Streak(c.Published, *a.opts.StreakToleranceDays, a.opts.Location),
		TopPost:          TopPost(c.Published, *a.opts.Weights),
		Series:           BinByDay(c.Published, r.Days(), now, a.opts.Location),
		Anomalies:        FindUndated(c.Published),
	}
}
