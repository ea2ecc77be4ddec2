package request

import (
	"context"

	"github.com/roach88/organizer/internal/item"
)

// FetchForExportRequest retrieves persisted items without expanding
// recurrences: parents carry their rules, exceptions are returned as stored.
// The time window matches items by their own start and end.
type FetchForExportRequest struct {
	*Base
	queryParams

	items []item.Item
}

// NewFetchForExportRequest creates an Inactive request.
func NewFetchForExportRequest(ctx context.Context, eng Engine) *FetchForExportRequest {
	r := &FetchForExportRequest{}
	r.Base = newBase(ctx, ItemFetchForExport, r, eng)
	r.queryParams.b = r.Base
	return r
}

// Items returns a copy of the items published so far.
func (r *FetchForExportRequest) Items() []item.Item {
	var out []item.Item
	r.read(func() { out = item.CloneAll(r.items) })
	return out
}

// PublishItems appends results. Engine-side.
func (r *FetchForExportRequest) PublishItems(items ...item.Item) bool {
	cp := item.CloneAll(items)
	return r.publish(len(cp), func() { r.items = append(r.items, cp...) })
}
