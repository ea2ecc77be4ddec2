package filter

import "github.com/roach88/organizer/internal/item"

// Query is a complete item query as backends receive it.
type Query struct {
	Filter Filter
	// Range keeps items whose own [start, end] overlaps it. Items carrying a
	// recurrence rule always pass, since one of their occurrences may.
	Range   item.DateRange
	Sorting []SortOrder
}

// Validate checks the filter and the range.
func (q Query) Validate() error {
	if err := Validate(q.Filter); err != nil {
		return err
	}
	return q.Range.Validate()
}

// Match reports whether it satisfies the filter and the range.
func (q Query) Match(it item.Item) bool {
	if !Match(q.Filter, it) {
		return false
	}
	if q.Range.IsOpen() || it.Recurrence != nil {
		return true
	}
	return q.Range.Overlaps(it.Start, it.End)
}
