package item

import (
	"fmt"
	"time"
)

// DateRange is a window with independently optional bounds. A nil Start is
// the unbounded past and a nil End the unbounded future.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// NewDateRange copies the given bounds into a DateRange.
func NewDateRange(start, end *time.Time) DateRange {
	return DateRange{Start: copyTime(start), End: copyTime(end)}
}

// Validate rejects a range whose start is after its end.
func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return fmt.Errorf("%w: range start %s after end %s", ErrInvalid,
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return nil
}

// IsOpen reports whether neither bound is set.
func (r DateRange) IsOpen() bool {
	return r.Start == nil && r.End == nil
}

// Contains reports whether t lies within the range, bounds inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return r.Overlaps(t, t)
}

// Overlaps reports whether [start, end] intersects the range, bounds
// inclusive. A zero end is treated as equal to start.
func (r DateRange) Overlaps(start, end time.Time) bool {
	if end.IsZero() || end.Before(start) {
		end = start
	}
	if r.Start != nil && end.Before(*r.Start) {
		return false
	}
	if r.End != nil && start.After(*r.End) {
		return false
	}
	return true
}

// AfterEnd reports whether t is past the end bound.
func (r DateRange) AfterEnd(t time.Time) bool {
	return r.End != nil && t.After(*r.End)
}

// String renders the range for logs, with "*" for open bounds.
func (r DateRange) String() string {
	start, end := "*", "*"
	if r.Start != nil {
		start = r.Start.Format(time.RFC3339)
	}
	if r.End != nil {
		end = r.End.Format(time.RFC3339)
	}
	return start + ".." + end
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
