package engine

import (
	"context"

	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/request"
)

// fetchOccurrences expands the parent of r within its window.
//
// A parent with an id is reloaded from the store so that its persisted
// exception occurrences are merged in. A parent without one is expanded as
// given.
func (e *Engine) fetchOccurrences(ctx context.Context, r *request.OccurrenceFetchRequest) error {
	q := r.Query()
	if err := q.Range.Validate(); err != nil {
		return request.Wrap(request.InvalidArgument, err, "occurrence window")
	}

	parent := q.Parent
	if !parent.ID.IsNull() {
		if err := e.checkManager(parent.ID); err != nil {
			return err
		}
		stored, err := e.store.Get(ctx, parent.ID)
		if err != nil {
			return err
		}
		parent = stored
	}
	if parent.Recurrence == nil {
		return request.Errorf(request.InvalidArgument, "item %s is not recurring", parent.ID)
	}
	if parent.Type.OccurrenceType() == "" {
		return request.Errorf(request.InvalidArgument, "items of type %s have no occurrences", parent.Type)
	}

	limit := q.MaxOccurrences
	if limit < 0 {
		limit = e.defaultMaxOccs
	}
	if limit == 0 {
		return nil
	}

	occs, err := e.occurrencesOf(ctx, parent, q.Range, limit)
	if err != nil {
		return err
	}
	return e.publishBatches(ctx, r.Kind(), applyHint(q.Hint, occs), r.PublishOccurrences)
}

// occurrencesOf returns at most limit occurrences of parent overlapping rng,
// generated and persisted merged, in start order.
func (e *Engine) occurrencesOf(ctx context.Context, parent item.Item, rng item.DateRange, limit int) ([]item.Item, error) {
	var exceptions []item.Item
	if !parent.ID.IsNull() {
		var err error
		exceptions, err = e.store.Exceptions(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
	}

	// Every exception may displace one generated occurrence, so generate
	// enough that limit survive the merge.
	generated := item.Expand(parent, rng, limit+len(exceptions))
	merged := item.MergeExceptions(generated, exceptions)

	out := merged[:0]
	for _, occ := range merged {
		if rng.Overlaps(occ.Start, occ.End) {
			out = append(out, occ)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// publishBatches hands items to publish in batches, checking ctx between
// batches. It stops early when the request no longer accepts results.
func (e *Engine) publishBatches(ctx context.Context, kind request.Kind, items []item.Item, publish func(...item.Item) bool) error {
	for i := 0; i < len(items); i += e.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+e.batchSize, len(items))
		if !publish(items[i:end]...) {
			return request.Errorf(request.CodeCanceled, "request no longer active")
		}
		e.metrics.RecordResults(kind.String(), end-i)
	}
	return nil
}

func applyHint(h item.FetchHint, items []item.Item) []item.Item {
	if h.IsDefault() {
		return items
	}
	out := make([]item.Item, len(items))
	for i, it := range items {
		out[i] = h.Apply(it)
	}
	return out
}
