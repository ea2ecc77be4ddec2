package request

import (
	"context"
	"slices"

	"github.com/roach88/organizer/internal/itemid"
)

// RemoveRequest deletes items by ID. Removing a recurring parent also removes
// its persisted exceptions.
type RemoveRequest struct {
	*Base

	ids     []itemid.ItemID
	removed []itemid.ItemID
	errors  indexErrors
}

// NewRemoveRequest creates an Inactive request.
func NewRemoveRequest(ctx context.Context, eng Engine) *RemoveRequest {
	r := &RemoveRequest{errors: indexErrors{}}
	r.Base = newBase(ctx, ItemRemove, r, eng)
	return r
}

// SetItemIDs sets the IDs to remove.
func (r *RemoveRequest) SetItemIDs(ids ...itemid.ItemID) {
	r.setParam("item_ids", func() { r.ids = cloneIDs(ids) })
}

// ItemIDs returns a copy of the IDs to remove.
func (r *RemoveRequest) ItemIDs() []itemid.ItemID {
	var out []itemid.ItemID
	r.read(func() { out = cloneIDs(r.ids) })
	return out
}

// RemovedIDs returns the IDs removed so far.
func (r *RemoveRequest) RemovedIDs() []itemid.ItemID {
	var out []itemid.ItemID
	r.read(func() { out = cloneIDs(r.removed) })
	return out
}

// ErrorMap returns the per-index errors.
func (r *RemoveRequest) ErrorMap() map[int]error {
	var out map[int]error
	r.read(func() { out = r.errors.clone() })
	return out
}

// PublishRemoved records a removed ID. Engine-side.
func (r *RemoveRequest) PublishRemoved(id itemid.ItemID) bool {
	cp := id.Clone()
	return r.publish(1, func() { r.removed = append(r.removed, cp) })
}

// SetItemError records the failure of input index i. Engine-side.
func (r *RemoveRequest) SetItemError(i int, err error) bool {
	return r.publish(0, func() { r.errors[i] = err })
}

func cloneIDs(ids []itemid.ItemID) []itemid.ItemID {
	if ids == nil {
		return nil
	}
	out := slices.Clone(ids)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}
