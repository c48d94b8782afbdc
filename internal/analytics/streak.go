package analytics

import (
	"sort"
	"time"
)

type datedPost struct {
	post Post
	date time.Time
}

// Streak counts the most recent run of posts whose consecutive gaps are at
// most toleranceDays calendar days in loc. The walk starts at the newest post
// and stops at the first larger gap. Undated posts are ignored and the input
// is not reordered.
func Streak(published []Post, toleranceDays int, loc *time.Location) int {
	dated := make([]datedPost, 0, len(published))
	for _, p := range published {
		if d, ok := p.EffectiveDate(); ok {
			dated = append(dated, datedPost{post: p, date: d})
		}
	}
	if len(dated) == 0 {
		return 0
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].date.After(dated[j].date)
	})

	streak := 1
	last := dated[0].date
	for _, dp := range dated[1:] {
		if daysBetween(last, dp.date, loc) > int64(toleranceDays) {
			break
		}
		streak++
		last = dp.date
	}
	return streak
}
