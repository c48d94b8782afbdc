package analytics

import "time"

const labelLayout = "Jan 02"

// Series holds one entry per day of the selected range, oldest first. All
// slices have the same length.
type Series struct {
	Labels   []string `json:"labels"`
	Dates    []string `json:"dates"`
	Views    []int64  `json:"views"`
	Likes    []int64  `json:"likes"`
	Comments []int64  `json:"comments"`
	Posts    []int64  `json:"posts"`
}

// Len returns the number of buckets.
func (s Series) Len() int {
	return len(s.Labels)
}

func newSeries(days int) Series {
	return Series{
		Labels:   make([]string, days),
		Dates:    make([]string, days),
		Views:    make([]int64, days),
		Likes:    make([]int64, days),
		Comments: make([]int64, days),
		Posts:    make([]int64, days),
	}
}

// BinByDay buckets published posts into the days days ending on the day of
// now, in loc. Posts dated outside the range and undated posts are left out.
func BinByDay(published []Post, days int, now time.Time, loc *time.Location) Series {
	if days < 0 {
		days = 0
	}
	s := newSeries(days)

	today := startOfDay(now, loc)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i-(days-1))
		s.Labels[i] = day.Format(labelLayout)
		s.Dates[i] = day.Format(time.DateOnly)
	}

	for _, p := range published {
		date, ok := p.EffectiveDate()
		if !ok {
			continue
		}
		age := daysBetween(today, date, loc)
		if age < 0 || age >= int64(days) {
			continue
		}
		i := days - 1 - int(age)
		s.Views[i] += p.ViewCount
		s.Likes[i] += p.LikeCount
		s.Comments[i] += p.CommentCount
		s.Posts[i]++
	}
	return s
}
