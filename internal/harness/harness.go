package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/roach88/organizer/internal/compiler"
	"github.com/roach88/organizer/internal/engine"
	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/manager"
	"github.com/roach88/organizer/internal/memstore"
	"github.com/roach88/organizer/internal/request"
)

// ManagerURI is the manager of every scenario store.
const ManagerURI = "organizer:harness"

// deliveryTimeout bounds the wait for a step's final notification.
const deliveryTimeout = 10 * time.Second

// Harness executes one scenario.
type Harness struct {
	store   *memstore.Store
	manager *manager.Manager
	logger  *slog.Logger
}

// sequenceGenerator mints "new-1", "new-2", ... so saved items get
// deterministic ids.
type sequenceGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "new-" + strconv.Itoa(g.n)
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store and a real engine.
//
// Execution flow:
// 1. Seed the store with the scenario documents
// 2. Execute flow steps in order, recording notifications
// 3. Check each step's expect clause
// 4. Evaluate assertions against the trace and the final store
func Run(scenario *Scenario) (*Result, error) {
	st := memstore.New(ManagerURI)
	ctx := context.Background()

	for _, doc := range scenario.Documents {
		items, err := compiler.LoadFile(doc, ManagerURI)
		if err != nil {
			return nil, fmt.Errorf("failed to load document: %w", err)
		}
		for _, it := range items {
			if err := st.Put(ctx, it); err != nil {
				return nil, fmt.Errorf("failed to seed %s: %w", it.ID, err)
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	engOpts := []engine.Option{engine.WithGenerator(&sequenceGenerator{})}
	if scenario.BatchSize > 0 {
		engOpts = append(engOpts, engine.WithBatchSize(scenario.BatchSize))
	}
	if scenario.DefaultMaxOccurrences > 0 {
		engOpts = append(engOpts, engine.WithDefaultMaxOccurrences(scenario.DefaultMaxOccurrences))
	}
	m := manager.New(st, manager.WithLogger(logger), manager.WithEngineOptions(engOpts...))
	m.Start(ctx)
	defer m.Close()

	h := &Harness{store: st, manager: m, logger: logger}

	result := NewResult()
	for i, step := range scenario.Flow {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}
	}
	result.Stored = st.Len()

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}
	return result, nil
}

// executeStep runs one request through the manager and records its
// notifications and results.
func (h *Harness) executeStep(ctx context.Context, index int, step RequestStep, result *Result) error {
	r, results, err := h.buildRequest(ctx, step)
	if err != nil {
		return err
	}

	var (
		mu     sync.Mutex
		events []TraceEvent
		done   = make(chan struct{})
	)
	r.Subscribe(func(n request.Notification) {
		mu.Lock()
		defer mu.Unlock()
		typ := EventResultsAvailable
		if n.Kind == request.StateChanged {
			typ = EventStateChanged
		}
		events = append(events, TraceEvent{
			Step:    index,
			Type:    typ,
			State:   n.State.String(),
			Results: n.Results,
			Seq:     n.Seq,
		})
		if n.Kind == request.StateChanged && n.State.IsTerminal() {
			close(done)
		}
	})

	// The request error is part of the recorded outcome, not a harness
	// failure.
	_ = h.manager.Execute(ctx, r)

	select {
	case <-done:
	case <-time.After(deliveryTimeout):
		return fmt.Errorf("terminal notification not delivered")
	}

	mu.Lock()
	result.Trace = append(result.Trace, events...)
	mu.Unlock()

	sr := StepResult{
		Request: step.Request,
		State:   r.State().String(),
		Error:   r.ErrorCode().String(),
		Items:   results(),
	}
	result.Steps = append(result.Steps, sr)

	h.logger.Info("step completed", "step", index, "request", step.Request, "state", sr.State)

	if step.Expect != nil {
		for _, msg := range checkExpect(index, step.Expect, sr) {
			result.AddError(msg)
		}
	}
	return nil
}

// buildRequest creates the request of step and a function reading its
// results as summaries.
func (h *Harness) buildRequest(ctx context.Context, step RequestStep) (request.Request, func() []ItemSummary, error) {
	start, err := parseOptionalTime(step.Start)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseOptionalTime(step.End)
	if err != nil {
		return nil, nil, err
	}
	hint := item.FetchHint{DetailKeys: step.Fields}

	switch requestKinds[step.Request] {
	case request.ItemOccurrenceFetch:
		r := h.manager.NewOccurrenceFetch(ctx)
		r.SetParentItem(item.Item{ID: itemid.LocalItemID(ManagerURI, step.Parent)})
		r.SetStartDate(start)
		r.SetEndDate(end)
		r.SetFetchHint(hint)
		if step.Max != nil {
			r.SetMaxOccurrences(*step.Max)
		}
		return r, func() []ItemSummary { return summarize(r.ItemOccurrences()) }, nil

	case request.ItemFetchForExport:
		r := h.manager.NewFetchForExport(ctx)
		if err := applyQuery(step, start, end, hint, r.SetFilter, r.SetSorting, r.SetStartDate, r.SetEndDate, r.SetFetchHint); err != nil {
			return nil, nil, err
		}
		return r, func() []ItemSummary { return summarize(r.Items()) }, nil

	case request.ItemFetch:
		r := h.manager.NewFetch(ctx)
		if err := applyQuery(step, start, end, hint, r.SetFilter, r.SetSorting, r.SetStartDate, r.SetEndDate, r.SetFetchHint); err != nil {
			return nil, nil, err
		}
		if step.Max != nil {
			r.SetMaxCount(*step.Max)
		}
		return r, func() []ItemSummary { return summarize(r.Items()) }, nil

	case request.ItemSave:
		items, err := compiler.LoadFile(step.Save, ManagerURI)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load save document: %w", err)
		}
		r := h.manager.NewSave(ctx)
		r.SetItems(items...)
		mask := make([]item.Field, len(step.Mask))
		for i, f := range step.Mask {
			mask[i] = item.Field(f)
		}
		r.SetDetailMask(mask...)
		return r, func() []ItemSummary { return summarize(r.SavedItems()) }, nil

	case request.ItemRemove:
		r := h.manager.NewRemove(ctx)
		ids := make([]itemid.ItemID, len(step.IDs))
		for i, key := range step.IDs {
			ids[i] = itemid.LocalItemID(ManagerURI, key)
		}
		r.SetItemIDs(ids...)
		return r, func() []ItemSummary {
			removed := r.RemovedIDs()
			out := make([]ItemSummary, len(removed))
			for i, id := range removed {
				out[i] = ItemSummary{ID: keyOf(id)}
			}
			return out
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown request %q", step.Request)
	}
}

// applyQuery sets the filter, sorting, window and hint shared by the fetch
// requests.
func applyQuery(
	step RequestStep,
	start, end *time.Time,
	hint item.FetchHint,
	setFilter func(filter.Filter),
	setSorting func(...filter.SortOrder),
	setStart, setEnd func(*time.Time),
	setHint func(item.FetchHint),
) error {
	var parts []filter.Filter
	if len(step.Types) > 0 {
		types := make([]item.Type, len(step.Types))
		for i, t := range step.Types {
			types[i] = item.Type(t)
		}
		parts = append(parts, filter.TypeIs{Types: types})
	}
	if step.Label != "" {
		parts = append(parts, filter.LabelContains{Substring: step.Label})
	}
	switch len(parts) {
	case 0:
		setFilter(filter.Any{})
	case 1:
		setFilter(parts[0])
	default:
		setFilter(filter.Intersection{Filters: parts})
	}

	orders := make([]filter.SortOrder, 0, len(step.Sort))
	for _, s := range step.Sort {
		o, err := filter.ParseSortOrder(s)
		if err != nil {
			return err
		}
		orders = append(orders, o)
	}
	setSorting(orders...)
	setStart(start)
	setEnd(end)
	setHint(hint)
	return nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return &t, nil
}

func summarize(items []item.Item) []ItemSummary {
	out := make([]ItemSummary, len(items))
	for i, it := range items {
		out[i] = summary(it)
	}
	return out
}

func summary(it item.Item) ItemSummary {
	s := ItemSummary{
		ID:     keyOf(it.ID),
		Parent: keyOf(it.ParentID),
		Type:   string(it.Type),
		Label:  it.DisplayLabel,
	}
	if !it.Start.IsZero() {
		s.Start = it.Start.UTC().Format(time.RFC3339)
	}
	return s
}

// keyOf returns the local key of id, or "" for the null id.
func keyOf(id itemid.ItemID) string {
	if id.IsNull() {
		return ""
	}
	if l, ok := id.EngineID().(*itemid.LocalID); ok {
		return l.Key()
	}
	return id.String()
}

// checkExpect compares a step outcome with its expect clause.
func checkExpect(index int, want *ExpectClause, got StepResult) []string {
	var errs []string
	if got.State != want.State {
		errs = append(errs, fmt.Sprintf("flow[%d]: state = %s, want %s", index, got.State, want.State))
	}
	if want.Error != "" && got.Error != want.Error {
		errs = append(errs, fmt.Sprintf("flow[%d]: error = %s, want %s", index, got.Error, want.Error))
	}
	if want.Count != nil && len(got.Items) != *want.Count {
		errs = append(errs, fmt.Sprintf("flow[%d]: %d results, want %d", index, len(got.Items), *want.Count))
	}
	if want.Starts != nil {
		starts := make([]string, len(got.Items))
		for i, s := range got.Items {
			starts[i] = s.Start
		}
		if !slices.Equal(starts, want.Starts) {
			errs = append(errs, fmt.Sprintf("flow[%d]: starts = %v, want %v", index, starts, want.Starts))
		}
	}
	if want.Labels != nil {
		labels := make([]string, len(got.Items))
		for i, s := range got.Items {
			labels[i] = s.Label
		}
		if !slices.Equal(labels, want.Labels) {
			errs = append(errs, fmt.Sprintf("flow[%d]: labels = %v, want %v", index, labels, want.Labels))
		}
	}
	return errs
}
