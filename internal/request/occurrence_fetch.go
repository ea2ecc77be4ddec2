package request

import (
	"context"
	"time"

	"github.com/roach88/organizer/internal/item"
)

// DefaultMaxOccurrences is the MaxOccurrences of a new request: no limit
// requested, the engine applies its own default.
const DefaultMaxOccurrences = -1

// OccurrenceFetchRequest retrieves the occurrences of one recurring parent
// item, optionally restricted to a time window and capped in count.
//
// Occurrences are ordered by start time. Generated occurrences and persisted
// exceptions are merged: an exception replaces the occurrence it overrides.
type OccurrenceFetchRequest struct {
	*Base

	parent         item.Item
	start          *time.Time
	end            *time.Time
	maxOccurrences int
	hint           item.FetchHint

	occurrences []item.Item
}

// OccurrenceQuery is a consistent copy of the request parameters.
type OccurrenceQuery struct {
	Parent         item.Item
	Range          item.DateRange
	MaxOccurrences int
	Hint           item.FetchHint
}

// NewOccurrenceFetchRequest creates an Inactive request. eng may be nil and
// set later with SetEngine.
func NewOccurrenceFetchRequest(ctx context.Context, eng Engine) *OccurrenceFetchRequest {
	r := &OccurrenceFetchRequest{maxOccurrences: DefaultMaxOccurrences}
	r.Base = newBase(ctx, ItemOccurrenceFetch, r, eng)
	return r
}

// SetParentItem sets the item whose occurrences are fetched.
func (r *OccurrenceFetchRequest) SetParentItem(parent item.Item) {
	r.setParam("parent_item", func() { r.parent = parent.Clone() })
}

// ParentItem returns a copy of the parent item.
func (r *OccurrenceFetchRequest) ParentItem() item.Item {
	var it item.Item
	r.read(func() { it = r.parent.Clone() })
	return it
}

// SetStartDate sets the window start. Nil means unbounded.
func (r *OccurrenceFetchRequest) SetStartDate(t *time.Time) {
	r.setParam("start_date", func() { r.start = copyTime(t) })
}

// StartDate returns a copy of the window start, nil if unbounded.
func (r *OccurrenceFetchRequest) StartDate() *time.Time {
	var t *time.Time
	r.read(func() { t = copyTime(r.start) })
	return t
}

// SetEndDate sets the window end. Nil means unbounded.
func (r *OccurrenceFetchRequest) SetEndDate(t *time.Time) {
	r.setParam("end_date", func() { r.end = copyTime(t) })
}

// EndDate returns a copy of the window end, nil if unbounded.
func (r *OccurrenceFetchRequest) EndDate() *time.Time {
	var t *time.Time
	r.read(func() { t = copyTime(r.end) })
	return t
}

// SetMaxOccurrences caps the result count. Negative values mean the engine
// default applies.
func (r *OccurrenceFetchRequest) SetMaxOccurrences(n int) {
	r.setParam("max_occurrences", func() { r.maxOccurrences = n })
}

// MaxOccurrences returns the cap, DefaultMaxOccurrences if never set.
func (r *OccurrenceFetchRequest) MaxOccurrences() int {
	var n int
	r.read(func() { n = r.maxOccurrences })
	return n
}

// SetFetchHint sets which item fields the caller needs.
//
// Occurrences fetched with a restricting hint lack the omitted fields. Saving
// such an occurrence back with a full detail mask erases them in the backend.
func (r *OccurrenceFetchRequest) SetFetchHint(h item.FetchHint) {
	r.setParam("fetch_hint", func() { r.hint = h.Clone() })
}

// FetchHint returns the fetch hint.
func (r *OccurrenceFetchRequest) FetchHint() item.FetchHint {
	var h item.FetchHint
	r.read(func() { h = r.hint.Clone() })
	return h
}

// Query returns all parameters read under a single lock.
func (r *OccurrenceFetchRequest) Query() OccurrenceQuery {
	var q OccurrenceQuery
	r.read(func() {
		q = OccurrenceQuery{
			Parent:         r.parent.Clone(),
			Range:          item.NewDateRange(r.start, r.end),
			MaxOccurrences: r.maxOccurrences,
			Hint:           r.hint.Clone(),
		}
	})
	return q
}

// ItemOccurrences returns a copy of the occurrences published so far.
// Meaningful once the request is finished; partial while Active.
func (r *OccurrenceFetchRequest) ItemOccurrences() []item.Item {
	var out []item.Item
	r.read(func() { out = item.CloneAll(r.occurrences) })
	return out
}

// PublishOccurrences appends results. Engine-side; false once the request no
// longer accepts output.
func (r *OccurrenceFetchRequest) PublishOccurrences(items ...item.Item) bool {
	cp := item.CloneAll(items)
	return r.publish(len(cp), func() { r.occurrences = append(r.occurrences, cp...) })
}
