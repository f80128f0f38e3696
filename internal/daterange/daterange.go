// Package daterange provides the inclusive calendar-day span a search run
// walks, and its partitioning into contiguous per-worker sub-ranges.
package daterange

import (
	"fmt"
	"time"
)

// Layout is the wire format for dates throughout the service.
const Layout = "2006-01-02"

// Range is an inclusive span of calendar days, day-granular in UTC. The zero
// value is the empty range.
type Range struct {
	Start time.Time
	End   time.Time
}

// New builds a Range from two instants, truncating both to midnight UTC.
func New(start, end time.Time) (Range, error) {
	start = Day(start)
	end = Day(end)
	if end.Before(start) {
		return Range{}, fmt.Errorf("range start %s is after end %s", start.Format(Layout), end.Format(Layout))
	}
	return Range{Start: start, End: end}, nil
}

// Parse builds a Range from two YYYY-MM-DD strings.
func Parse(start, end string) (Range, error) {
	s, err := time.Parse(Layout, start)
	if err != nil {
		return Range{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	e, err := time.Parse(Layout, end)
	if err != nil {
		return Range{}, fmt.Errorf("parse end date %q: %w", end, err)
	}
	return New(s, e)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether r is the empty range.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Days returns the inclusive length of the range in days, 0 for the empty
// range.
func (r Range) Days() int {
	if r.IsZero() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether the day of t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if r.IsZero() {
		return false
	}
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r Range) String() string {
	if r.IsZero() {
		return "(empty)"
	}
	return r.Start.Format(Layout) + ".." + r.End.Format(Layout)
}

// Partition splits r into exactly k contiguous, non-overlapping sub-ranges
// that cover r. Lengths differ by at most one day, with earlier partitions
// receiving the remainder days, so boundaries are deterministic for a given
// input. When k exceeds the day count the trailing partitions are empty.
func Partition(r Range, k int) ([]Range, error) {
	if k <= 0 {
		return nil, fmt.Errorf("partition count must be >= 1, got %d", k)
	}
	total := r.Days()
	base := total / k
	rem := total % k

	parts := make([]Range, 0, k)
	cursor := r.Start
	for i := 0; i < k; i++ {
		n := base
		if i < rem {
			n++
		}
		if n == 0 {
			parts = append(parts, Range{})
			continue
		}
		end := cursor.AddDate(0, 0, n-1)
		parts = append(parts, Range{Start: cursor, End: end})
		cursor = end.AddDate(0, 0, 1)
	}
	return parts, nil
}
