package request

import (
	"context"
	"slices"

	"github.com/roach88/organizer/internal/item"
)

// SaveRequest creates or updates items. Items with a null ID are created and
// receive a new ID; others are updated, restricted to DetailMask when set.
//
// Failures are per item: the request finishes with the first error while
// ErrorMap records every failing input index. Items saved before a failure
// stay saved.
type SaveRequest struct {
	*Base

	items []item.Item
	mask  []item.Field

	saved  map[int]item.Item
	errors indexErrors
}

// NewSaveRequest creates an Inactive request.
func NewSaveRequest(ctx context.Context, eng Engine) *SaveRequest {
	r := &SaveRequest{saved: map[int]item.Item{}, errors: indexErrors{}}
	r.Base = newBase(ctx, ItemSave, r, eng)
	return r
}

// SetItems sets the items to save.
func (r *SaveRequest) SetItems(items ...item.Item) {
	r.setParam("items", func() { r.items = item.CloneAll(items) })
}

// Items returns a copy of the items to save.
func (r *SaveRequest) Items() []item.Item {
	var out []item.Item
	r.read(func() { out = item.CloneAll(r.items) })
	return out
}

// SetDetailMask restricts updates to the named fields. Empty saves everything.
func (r *SaveRequest) SetDetailMask(fields ...item.Field) {
	r.setParam("detail_mask", func() { r.mask = slices.Clone(fields) })
}

// DetailMask returns the detail mask.
func (r *SaveRequest) DetailMask() []item.Field {
	var out []item.Field
	r.read(func() { out = slices.Clone(r.mask) })
	return out
}

// SavedItems returns the stored form of every successfully saved input, in
// input order.
func (r *SaveRequest) SavedItems() []item.Item {
	var out []item.Item
	r.read(func() {
		idx := make([]int, 0, len(r.saved))
		for i := range r.saved {
			idx = append(idx, i)
		}
		slices.Sort(idx)
		out = make([]item.Item, 0, len(idx))
		for _, i := range idx {
			out = append(out, r.saved[i].Clone())
		}
	})
	return out
}

// SavedItem returns the stored form of input index i.
func (r *SaveRequest) SavedItem(i int) (item.Item, bool) {
	var it item.Item
	var ok bool
	r.read(func() {
		it, ok = r.saved[i]
		it = it.Clone()
	})
	return it, ok
}

// ErrorMap returns the per-index errors.
func (r *SaveRequest) ErrorMap() map[int]error {
	var out map[int]error
	r.read(func() { out = r.errors.clone() })
	return out
}

// PublishSaved records the stored form of input index i. Engine-side.
func (r *SaveRequest) PublishSaved(i int, saved item.Item) bool {
	cp := saved.Clone()
	return r.publish(1, func() { r.saved[i] = cp })
}

// SetItemError records the failure of input index i. Engine-side.
func (r *SaveRequest) SetItemError(i int, err error) bool {
	return r.publish(0, func() { r.errors[i] = err })
}
