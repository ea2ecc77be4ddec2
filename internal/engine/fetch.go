package engine

import (
	"context"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/request"
)

// fetchForExport publishes stored items as they are: recurring parents and
// persisted exceptions, never generated occurrences.
func (e *Engine) fetchForExport(ctx context.Context, r *request.FetchForExportRequest) error {
	q := r.Query()
	items, err := e.list(ctx, q)
	if err != nil {
		return err
	}

	out := items[:0]
	for _, it := range items {
		// A parent whose rule produces nothing inside a bounded window is
		// not part of the export.
		if it.Recurrence != nil && !q.Range.IsOpen() && len(item.Expand(it, q.Range, 1)) == 0 {
			continue
		}
		out = append(out, it)
	}
	return e.publishBatches(ctx, r.Kind(), applyHint(q.Hint, out), r.PublishItems)
}

// fetch publishes matching items. Inside a bounded window recurring parents
// are replaced by their occurrences; with an open window nothing is expanded.
func (e *Engine) fetch(ctx context.Context, r *request.FetchRequest) error {
	q := r.Query()
	items, err := e.list(ctx, q)
	if err != nil {
		return err
	}

	if !q.Range.IsOpen() {
		expanded := make(map[uint64][]itemid.ItemID)
		var out []item.Item
		for _, it := range items {
			if it.Recurrence == nil {
				continue
			}
			occs, err := e.occurrencesOf(ctx, it, q.Range, e.defaultMaxOccs)
			if err != nil {
				return err
			}
			out = append(out, occs...)
			h := it.ID.Hash()
			expanded[h] = append(expanded[h], it.ID)
		}
		for _, it := range items {
			if it.Recurrence != nil || isExpandedChild(expanded, it) {
				continue
			}
			out = append(out, it)
		}
		items = out
		if len(q.Sorting) == 0 {
			filter.Sort(items, []filter.SortOrder{{Field: filter.SortByStart}})
		} else {
			filter.Sort(items, q.Sorting)
		}
	}

	if n := r.MaxCount(); n >= 0 && len(items) > n {
		items = items[:n]
	}
	return e.publishBatches(ctx, r.Kind(), applyHint(q.Hint, items), r.PublishItems)
}

func (e *Engine) list(ctx context.Context, q request.QuerySnapshot) ([]item.Item, error) {
	fq := filter.Query{Filter: q.Filter, Range: q.Range, Sorting: q.Sorting}
	if err := fq.Validate(); err != nil {
		return nil, request.Wrap(request.InvalidArgument, err, "item query")
	}
	return e.store.List(ctx, fq)
}

// isExpandedChild reports whether it is a persisted exception of a parent
// whose occurrences were already merged.
func isExpandedChild(expanded map[uint64][]itemid.ItemID, it item.Item) bool {
	if it.ParentID.IsNull() {
		return false
	}
	for _, id := range expanded[it.ParentID.Hash()] {
		if id.Equal(it.ParentID) {
			return true
		}
	}
	return false
}
