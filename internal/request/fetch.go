package request

import (
	"context"

	"github.com/roach88/organizer/internal/item"
)

// FetchRequest retrieves items for display. Recurring parents inside the time
// window are expanded into their occurrences; with an open window they are
// returned as stored.
type FetchRequest struct {
	*Base
	queryParams

	maxCount int
	items    []item.Item
}

// NewFetchRequest creates an Inactive request with no result cap.
func NewFetchRequest(ctx context.Context, eng Engine) *FetchRequest {
	r := &FetchRequest{maxCount: -1}
	r.Base = newBase(ctx, ItemFetch, r, eng)
	r.queryParams.b = r.Base
	return r
}

// SetMaxCount caps the result count. Negative means no cap.
func (r *FetchRequest) SetMaxCount(n int) {
	r.setParam("max_count", func() { r.maxCount = n })
}

// MaxCount returns the cap.
func (r *FetchRequest) MaxCount() int {
	var n int
	r.read(func() { n = r.maxCount })
	return n
}

// Items returns a copy of the items published so far.
func (r *FetchRequest) Items() []item.Item {
	var out []item.Item
	r.read(func() { out = item.CloneAll(r.items) })
	return out
}

// PublishItems appends results. Engine-side.
func (r *FetchRequest) PublishItems(items ...item.Item) bool {
	cp := item.CloneAll(items)
	return r.publish(len(cp), func() { r.items = append(r.items, cp...) })
}
