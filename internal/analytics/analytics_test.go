package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := fixedNow.AddDate(0, 0, -n)
	return &t
}

func published(id string, offset int, views, likes, comments int64) Post {
	return Post{
		ID:           id,
		Status:       StatusPublished,
		PublishedAt:  daysAgo(offset),
		CreatedAt:    fixedNow.AddDate(0, 0, -offset-1),
		ViewCount:    views,
		LikeCount:    likes,
		CommentCount: comments,
	}
}

func newTestAggregator() *Aggregator {
	return NewAggregator(Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    Range
		days    int
		wantErr bool
	}{
		{in: "", want: Range30Days, days: 30},
		{in: "7d", want: Range7Days, days: 7},
		{in: "30d", want: Range30Days, days: 30},
		{in: "90d", want: Range90Days, days: 90},
		{in: "1y", want: RangeYear, days: 365},
		{in: "2w", wantErr: true},
		{in: "7D", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.days, got.Days())
		})
	}
}

func TestClassify(t *testing.T) {
	posts := []Post{
		{ID: "a", Status: StatusPublished},
		{ID: "b", Status: StatusDraft},
		{ID: "c", Status: "archived"},
		{ID: "d", Status: StatusPublished},
		{ID: "e", Status: ""},
	}

	c := Classify(posts)

	require.Len(t, c.Published, 2)
	assert.Equal(t, "a", c.Published[0].ID)
	assert.Equal(t, "d", c.Published[1].ID)
	require.Len(t, c.Drafts, 1)
	assert.Equal(t, "b", c.Drafts[0].ID)
	assert.Len(t, c.Other, 2)
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, Totals{}, Summarize(nil))
	})

	t.Run("sums and rounding", func(t *testing.T) {
		posts := []Post{
			{ViewCount: 100, LikeCount: 3, CommentCount: 1, BookmarkCount: 2, ReadingTimeMinutes: 4},
			{ViewCount: 200, LikeCount: 5, CommentCount: 0, BookmarkCount: 1, ReadingTimeMinutes: 5},
			{ViewCount: 0, LikeCount: 0, CommentCount: 0, BookmarkCount: 0, ReadingTimeMinutes: 5},
		}
		got := Summarize(posts)
		assert.Equal(t, int64(300), got.Views)
		assert.Equal(t, int64(8), got.Likes)
		assert.Equal(t, int64(1), got.Comments)
		assert.Equal(t, int64(3), got.Bookmarks)
		// 14/3 = 4.666...
		assert.Equal(t, 4.7, got.AvgReadingTime)
		// 12/300*100 = 4
		assert.Equal(t, 4.0, got.EngagementRate)
	})

	t.Run("rate rounds to two decimals", func(t *testing.T) {
		got := Summarize([]Post{{ViewCount: 3, LikeCount: 1}})
		assert.Equal(t, 33.33, got.EngagementRate)
	})

	t.Run("rate is not clamped", func(t *testing.T) {
		got := Summarize([]Post{{ViewCount: 2, LikeCount: 3, CommentCount: 2, BookmarkCount: 1}})
		assert.Equal(t, 400.0, got.EngagementRate)
	})

	t.Run("no views means zero rate", func(t *testing.T) {
		got := Summarize([]Post{{LikeCount: 10, CommentCount: 4, BookmarkCount: 2}})
		assert.Zero(t, got.EngagementRate)
	})
}

func TestBinByDay(t *testing.T) {
	at := func(y int, m time.Month, d, h, min, s int) *time.Time {
		v := time.Date(y, m, d, h, min, s, 0, time.UTC)
		return &v
	}
	posts := []Post{
		{ID: "today-midnight", PublishedAt: at(2026, 3, 15, 0, 0, 0), ViewCount: 10, LikeCount: 1, CommentCount: 2},
		{ID: "today-late", PublishedAt: at(2026, 3, 15, 23, 0, 0), ViewCount: 5},
		{ID: "first-day", PublishedAt: at(2026, 3, 9, 0, 0, 0), ViewCount: 7, LikeCount: 3},
		{ID: "before-range", PublishedAt: at(2026, 3, 8, 23, 59, 59), ViewCount: 1000},
		{ID: "future", PublishedAt: at(2026, 3, 16, 0, 0, 0), ViewCount: 1000},
		{ID: "created-only", CreatedAt: time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC), CommentCount: 4},
		{ID: "undated"},
	}

	s := BinByDay(posts, 7, fixedNow, time.UTC)

	require.Equal(t, 7, s.Len())
	assert.Equal(t, []string{"Mar 09", "Mar 10", "Mar 11", "Mar 12", "Mar 13", "Mar 14", "Mar 15"}, s.Labels)
	assert.Equal(t, "2026-03-09", s.Dates[0])
	assert.Equal(t, "2026-03-15", s.Dates[6])
	assert.Equal(t, []int64{7, 0, 0, 0, 0, 0, 15}, s.Views)
	assert.Equal(t, []int64{3, 0, 0, 0, 0, 0, 1}, s.Likes)
	assert.Equal(t, []int64{0, 0, 0, 4, 0, 0, 2}, s.Comments)
	assert.Equal(t, []int64{1, 0, 0, 1, 0, 0, 2}, s.Posts)
}

func TestBinByDayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 03:00 UTC on Mar 15 is still Mar 14 five hours west.
	p := Post{PublishedAt: func() *time.Time { v := time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC); return &v }(), ViewCount: 1}

	utc := BinByDay([]Post{p}, 7, fixedNow, time.UTC)
	west := BinByDay([]Post{p}, 7, fixedNow, loc)

	assert.Equal(t, int64(1), utc.Posts[6])
	assert.Equal(t, int64(1), west.Posts[5])
	assert.Equal(t, "Mar 15", west.Labels[6])
}

func TestBinByDayRangeLengths(t *testing.T) {
	for _, r := range Ranges() {
		t.Run(string(r), func(t *testing.T) {
			s := BinByDay(nil, r.Days(), fixedNow, time.UTC)
			assert.Equal(t, r.Days(), s.Len())
			assert.Len(t, s.Dates, r.Days())
			assert.Len(t, s.Views, r.Days())
			assert.Len(t, s.Likes, r.Days())
			assert.Len(t, s.Comments, r.Days())
			assert.Len(t, s.Posts, r.Days())
			for i := 1; i < len(s.Dates); i++ {
				assert.Less(t, s.Dates[i-1], s.Dates[i])
			}
		})
	}
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		want    int
	}{
		{name: "empty", offsets: nil, want: 0},
		{name: "single post", offsets: []int{40}, want: 1},
		{name: "all gaps within tolerance", offsets: []int{0, 3, 10, 12}, want: 4},
		{name: "gap of exactly seven days connects", offsets: []int{0, 7, 14}, want: 3},
		{name: "stops at first larger gap", offsets: []int{0, 3, 12}, want: 2},
		{name: "later posts ignored after break", offsets: []int{0, 9, 10, 11}, want: 1},
		{name: "unsorted input", offsets: []int{12, 0, 10, 3}, want: 4},
		{name: "same day posts", offsets: []int{2, 2, 2}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var posts []Post
			for i, off := range tt.offsets {
				posts = append(posts, published(string(rune('a'+i)), off, 0, 0, 0))
			}
			assert.Equal(t, tt.want, Streak(posts, DefaultStreakToleranceDays, time.UTC))
		})
	}
}

func TestStreakSkipsUndatedAndKeepsInputOrder(t *testing.T) {
	posts := []Post{
		published("old", 10, 0, 0, 0),
		{ID: "undated", Status: StatusPublished},
		published("new", 0, 0, 0, 0),
		published("mid", 3, 0, 0, 0),
	}

	assert.Equal(t, 3, Streak(posts, 7, time.UTC))
	assert.Equal(t, "old", posts[0].ID)
	assert.Equal(t, "new", posts[2].ID)
}

func TestStreakCustomTolerance(t *testing.T) {
	posts := []Post{published("a", 0, 0, 0, 0), published("b", 2, 0, 0, 0), published("c", 5, 0, 0, 0)}

	assert.Equal(t, 2, Streak(posts, 2, time.UTC))
	assert.Equal(t, 1, Streak(posts, 1, time.UTC))
}

func TestStreakToleranceOptions(t *testing.T) {
	sameDay := fixedNow.Add(-3 * time.Hour)
	posts := []Post{
		published("a", 0, 0, 0, 0),
		{ID: "b", Status: StatusPublished, PublishedAt: &sameDay},
		published("c", 1, 0, 0, 0),
	}

	tests := []struct {
		name      string
		tolerance *int
		want      int
	}{
		{name: "nil uses default", tolerance: nil, want: 3},
		{name: "zero keeps same day only", tolerance: Tolerance(0), want: 2},
		{name: "negative uses default", tolerance: Tolerance(-4), want: 3},
		{name: "one day", tolerance: Tolerance(1), want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(Options{
				Location:            time.UTC,
				StreakToleranceDays: tt.tolerance,
				Now:                 func() time.Time { return fixedNow },
			})
			assert.Equal(t, tt.want, agg.Compute(posts, Range7Days).PublishingStreak)
		})
	}
}

// Gaps are measured in calendar days of the configured location, not in
// elapsed 24h periods.
func TestStreakCountsCalendarDays(t *testing.T) {
	post := func(id string, t time.Time) Post {
		return Post{ID: id, Status: StatusPublished, PublishedAt: &t}
	}

	tests := []struct {
		name         string
		newer, older time.Time
		loc          *time.Location
		want         int
	}{
		{
			name:  "under seven elapsed days but eight calendar days",
			newer: time.Date(2026, 1, 10, 0, 30, 0, 0, time.UTC),
			older: time.Date(2026, 1, 2, 23, 30, 0, 0, time.UTC),
			loc:   time.UTC,
			want:  1,
		},
		{
			name:  "over seven elapsed days but seven calendar days",
			newer: time.Date(2026, 1, 9, 23, 59, 0, 0, time.UTC),
			older: time.Date(2026, 1, 2, 0, 1, 0, 0, time.UTC),
			loc:   time.UTC,
			want:  2,
		},
		{
			name:  "location moves the day boundary",
			newer: time.Date(2026, 1, 10, 0, 30, 0, 0, time.UTC),
			older: time.Date(2026, 1, 2, 23, 30, 0, 0, time.UTC),
			loc:   time.FixedZone("UTC-1", -3600),
			want:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := []Post{post("newer", tt.newer), post("older", tt.older)}
			assert.Equal(t, tt.want, Streak(posts, DefaultStreakToleranceDays, tt.loc))
		})
	}
}

func TestComputeAtIgnoresClock(t *testing.T) {
	agg := NewAggregator(Options{
		Location: time.UTC,
		Now:      func() time.Time { panic("clock must not be read") },
	})
	at := time.Date(2026, 3, 16, 0, 0, 1, 0, time.UTC)

	s := agg.ComputeAt([]Post{published("p", 1, 10, 0, 0)}, Range7Days, at)

	require.Equal(t, 7, s.Series.Len())
	assert.Equal(t, "2026-03-16", s.Series.Dates[6])
	assert.EqualValues(t, 10, s.Series.Views[4])
}

func TestTopPost(t *testing.T) {
	t.Run("highest weighted score", func(t *testing.T) {
		posts := []Post{
			published("first", 0, 100, 5, 1),
			published("second", 1, 10, 20, 20),
			published("third", 2, 50, 0, 0),
		}
		top := TopPost(posts, DefaultWeights())
		require.NotNil(t, top)
		assert.Equal(t, "first", top.ID)
		assert.Equal(t, int64(113), top.Score)
	})

	t.Run("first wins ties", func(t *testing.T) {
		posts := []Post{published("a", 0, 10, 0, 0), published("b", 0, 0, 5, 0)}
		top := TopPost(posts, DefaultWeights())
		require.NotNil(t, top)
		assert.Equal(t, "a", top.ID)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, TopPost(nil, DefaultWeights()))
	})

	t.Run("zero scores never win", func(t *testing.T) {
		assert.Nil(t, TopPost([]Post{published("a", 0, 0, 0, 0)}, DefaultWeights()))
	})

	t.Run("custom weights", func(t *testing.T) {
		posts := []Post{published("views", 0, 100, 0, 0), published("comments", 0, 0, 0, 10)}
		top := TopPost(posts, Weights{Views: 1, Likes: 1, Comments: 20})
		require.NotNil(t, top)
		assert.Equal(t, "comments", top.ID)
	})
}

func TestComputeEmpty(t *testing.T) {
	for _, r := range Ranges() {
		t.Run(string(r), func(t *testing.T) {
			s := newTestAggregator().Compute(nil, r)

			assert.Equal(t, r, s.Range)
			assert.Zero(t, s.TotalPosts)
			assert.Zero(t, s.PublishedCount)
			assert.Zero(t, s.DraftCount)
			assert.Equal(t, Totals{}, s.Totals)
			assert.Zero(t, s.PublishingStreak)
			assert.Nil(t, s.TopPost)
			assert.Empty(t, s.Anomalies)
			require.Equal(t, r.Days(), s.Series.Len())
			for i := 0; i < s.Series.Len(); i++ {
				assert.Zero(t, s.Series.Views[i])
				assert.Zero(t, s.Series.Likes[i])
				assert.Zero(t, s.Series.Comments[i])
				assert.Zero(t, s.Series.Posts[i])
			}
		})
	}
}

func TestCompute(t *testing.T) {
	posts := []Post{
		published("p1", 0, 100, 5, 1),
		published("p2", 3, 10, 20, 20),
		published("p3", 10, 50, 0, 0),
		published("p4", 45, 40, 2, 0),
		{ID: "d1", Status: StatusDraft, CreatedAt: fixedNow, ViewCount: 999, LikeCount: 999},
		{ID: "x1", Status: "scheduled", CreatedAt: fixedNow, ViewCount: 999},
		{ID: "bad", Status: StatusPublished, PublishedAt: &time.Time{}, ViewCount: 4, ReadingTimeMinutes: 3},
	}
	posts[0].BookmarkCount = 4
	posts[0].ReadingTimeMinutes = 6

	s := newTestAggregator().Compute(posts, Range30Days)

	assert.Equal(t, 7, s.TotalPosts)
	assert.Equal(t, 5, s.PublishedCount)
	assert.Equal(t, 1, s.DraftCount)
	assert.Equal(t, 1, s.OtherCount)
	assert.Equal(t, s.TotalPosts, s.PublishedCount+s.DraftCount+s.OtherCount)

	assert.Equal(t, int64(204), s.Views)
	assert.Equal(t, int64(27), s.Likes)
	assert.Equal(t, int64(21), s.Comments)
	assert.Equal(t, int64(4), s.Bookmarks)
	assert.Equal(t, 1.8, s.AvgReadingTime)
	// (27+21+4)/204*100 = 25.490...
	assert.Equal(t, 25.49, s.EngagementRate)

	assert.Equal(t, 3, s.PublishingStreak)
	require.NotNil(t, s.TopPost)
	assert.Equal(t, "p1", s.TopPost.ID)

	var inRange int64
	for _, n := range s.Series.Posts {
		inRange += n
	}
	assert.Equal(t, int64(3), inRange)
	assert.Equal(t, int64(100), s.Series.Views[29])
	assert.Equal(t, int64(10), s.Series.Views[26])
	assert.Equal(t, int64(50), s.Series.Views[19])

	require.Len(t, s.Anomalies, 1)
	assert.Equal(t, "bad", s.Anomalies[0].PostID)
	assert.Equal(t, ReasonMissingPublishedAt, s.Anomalies[0].Reason)
}

func TestComputeIsIdempotent(t *testing.T) {
	posts := []Post{
		published("p2", 3, 10, 20, 20),
		published("p1", 0, 100, 5, 1),
		{ID: "d1", Status: StatusDraft, CreatedAt: fixedNow},
	}
	agg := newTestAggregator()

	first := agg.Compute(posts, Range90Days)
	second := agg.Compute(posts, Range90Days)

	assert.Equal(t, first, second)
	assert.Equal(t, "p2", posts[0].ID)
}

func TestOptionsDefaults(t *testing.T) {
	opts := NewAggregator(Options{}).Options()

	assert.Equal(t, time.Local, opts.Location)
	assert.Equal(t, DefaultWeights(), *opts.Weights)
	require.NotNil(t, opts.StreakToleranceDays)
	assert.Equal(t, DefaultStreakToleranceDays, *opts.StreakToleranceDays)
	assert.NotNil(t, opts.Now)
}
