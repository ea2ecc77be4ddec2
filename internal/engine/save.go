package engine

import (
	"context"
	"errors"

	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/request"
)

// save stores every item of r. Failures are recorded per index and the
// remaining items are still attempted; the first failure becomes the
// request error.
func (e *Engine) save(ctx context.Context, r *request.SaveRequest) error {
	items := r.Items()
	mask := r.DetailMask()

	var first error
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		saved, err := e.saveOne(ctx, it, mask)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.SetItemError(i, err)
			if first == nil {
				first = err
			}
			continue
		}
		if !r.PublishSaved(i, saved) {
			return request.Errorf(request.CodeCanceled, "request no longer active")
		}
		e.metrics.RecordResults(r.Kind().String(), 1)
	}
	return first
}

func (e *Engine) saveOne(ctx context.Context, it item.Item, mask []item.Field) (item.Item, error) {
	if err := e.checkManager(it.ID); err != nil {
		return item.Item{}, err
	}
	if err := e.checkManager(it.ParentID); err != nil {
		return item.Item{}, err
	}

	var existing *item.Item
	if it.ID.IsNull() {
		id, err := e.resolveID(ctx, it)
		if err != nil {
			return item.Item{}, err
		}
		it.ID = id
	} else {
		stored, err := e.store.Get(ctx, it.ID)
		switch {
		case err == nil:
			existing = &stored
		case !errors.Is(err, request.ErrDoesNotExist):
			return item.Item{}, err
		}
	}

	// A mask only narrows updates; new items are stored whole.
	if existing != nil {
		it = item.ApplyMask(*existing, it, mask)
	}
	if err := e.store.Put(ctx, it); err != nil {
		return item.Item{}, err
	}
	return it.Clone(), nil
}

// resolveID returns the id for an item saved without one. An occurrence
// overriding an already persisted exception takes over that exception's id;
// anything else gets a freshly minted one.
func (e *Engine) resolveID(ctx context.Context, it item.Item) (itemid.ItemID, error) {
	if it.Type.IsOccurrence() && !it.ParentID.IsNull() {
		exceptions, err := e.store.Exceptions(ctx, it.ParentID)
		if err != nil {
			return itemid.ItemID{}, err
		}
		for _, ex := range exceptions {
			if ex.OriginalStart.Equal(it.OriginalStart) {
				return ex.ID, nil
			}
		}
	}
	return itemid.LocalItemID(e.store.ManagerURI(), e.gen.Generate()), nil
}

// remove deletes every id of r, recording failures per index.
func (e *Engine) remove(ctx context.Context, r *request.RemoveRequest) error {
	var first error
	for i, id := range r.ItemIDs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.store.Delete(ctx, id); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.SetItemError(i, err)
			if first == nil {
				first = err
			}
			continue
		}
		if !r.PublishRemoved(id) {
			return request.Errorf(request.CodeCanceled, "request no longer active")
		}
		e.metrics.RecordResults(r.Kind().String(), 1)
	}
	return first
}
