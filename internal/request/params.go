package request

import (
	"slices"
	"time"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/item"
)

// queryParams are the parameters shared by the fetch-style requests.
// Embedded in the typed request; guarded by the owning Base's mutex.
type queryParams struct {
	b       *Base
	filter  filter.Filter
	sorting []filter.SortOrder
	hint    item.FetchHint
	start   *time.Time
	end     *time.Time
}

// QuerySnapshot is a consistent copy of a fetch request's parameters.
type QuerySnapshot struct {
	Filter  filter.Filter
	Sorting []filter.SortOrder
	Hint    item.FetchHint
	Range   item.DateRange
}

// SetFilter sets the item filter. Nil means match everything.
func (q *queryParams) SetFilter(f filter.Filter) {
	q.b.setParam("filter", func() { q.filter = f })
}

// Filter returns the item filter, filter.Any{} if none was set.
func (q *queryParams) Filter() filter.Filter {
	var f filter.Filter
	q.b.read(func() { f = q.filter })
	if f == nil {
		return filter.Any{}
	}
	return f
}

// SetSorting sets the result ordering.
func (q *queryParams) SetSorting(orders ...filter.SortOrder) {
	q.b.setParam("sorting", func() { q.sorting = slices.Clone(orders) })
}

// Sorting returns a copy of the result ordering.
func (q *queryParams) Sorting() []filter.SortOrder {
	var out []filter.SortOrder
	q.b.read(func() { out = slices.Clone(q.sorting) })
	return out
}

// SetFetchHint sets the fetch hint.
func (q *queryParams) SetFetchHint(h item.FetchHint) {
	q.b.setParam("fetch_hint", func() { q.hint = h.Clone() })
}

// FetchHint returns the fetch hint.
func (q *queryParams) FetchHint() item.FetchHint {
	var h item.FetchHint
	q.b.read(func() { h = q.hint.Clone() })
	return h
}

// SetStartDate sets the lower bound of the time window. Nil means unbounded.
func (q *queryParams) SetStartDate(t *time.Time) {
	q.b.setParam("start_date", func() { q.start = copyTime(t) })
}

// StartDate returns a copy of the lower bound, nil if unbounded.
func (q *queryParams) StartDate() *time.Time {
	var t *time.Time
	q.b.read(func() { t = copyTime(q.start) })
	return t
}

// SetEndDate sets the upper bound of the time window. Nil means unbounded.
func (q *queryParams) SetEndDate(t *time.Time) {
	q.b.setParam("end_date", func() { q.end = copyTime(t) })
}

// EndDate returns a copy of the upper bound, nil if unbounded.
func (q *queryParams) EndDate() *time.Time {
	var t *time.Time
	q.b.read(func() { t = copyTime(q.end) })
	return t
}

// Query returns all parameters read under a single lock.
func (q *queryParams) Query() QuerySnapshot {
	var s QuerySnapshot
	q.b.read(func() {
		s = QuerySnapshot{
			Filter:  q.filter,
			Sorting: slices.Clone(q.sorting),
			Hint:    q.hint.Clone(),
			Range:   item.NewDateRange(q.start, q.end),
		}
	})
	if s.Filter == nil {
		s.Filter = filter.Any{}
	}
	return s
}

// indexErrors is the per-index error map of the batch requests.
type indexErrors map[int]error

func (m indexErrors) clone() map[int]error {
	out := make(map[int]error, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
