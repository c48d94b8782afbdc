package analytics

import (
	"errors"
	"fmt"
)

// Range selects how many calendar days the time series covers.
type Range string

const (
	Range7Days  Range = "7d"
	Range30Days Range = "30d"
	Range90Days Range = "90d"
	RangeYear   Range = "1y"

	DefaultRange = Range30Days
)

var ErrUnknownRange = errors.New("unknown time range")

var rangeDays = map[Range]int{
	Range7Days:  7,
	Range30Days: 30,
	Range90Days: 90,
	RangeYear:   365,
}

// Ranges lists the accepted ranges from shortest to longest.
func Ranges() []Range {
	return []Range{Range7Days, Range30Days, Range90Days, RangeYear}
}

// ParseRange validates a range identifier. An empty string selects DefaultRange.
func ParseRange(s string) (Range, error) {
	if s == "" {
		return DefaultRange, nil
	}
	r := Range(s)
	if _, ok := rangeDays[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
	}
	return r, nil
}

// Days returns the number of buckets for r, or 0 for an unknown range.
func (r Range) Days() int {
	return rangeDays[r]
}
