package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/memstore"
)

// AssertionContext provides what store assertions need.
type AssertionContext struct {
	Store *memstore.Store
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step=%d %s state=%s results=%d\n",
				i+1, event.Step, event.Type, event.State, event.Results)
		}
	}
	return buf.String()
}

// assertTraceCount checks how many notifications of one type a step got.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Step == a.Step && event.Type == a.Event {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d %s notification(s) for step %d", a.Count, a.Event, a.Step),
		Actual:   fmt.Sprintf("%d", count),
		Trace:    trace,
	}
}

// assertStoredCount checks the number of stored items.
func assertStoredCount(actx *AssertionContext, a Assertion) error {
	if n := actx.Store.Len(); n != a.Count {
		return &AssertionError{
			Type:     AssertStoredCount,
			Expected: fmt.Sprintf("%d stored item(s)", a.Count),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}

// assertStoredItem checks the summary fields of one stored item (subset
// match).
func assertStoredItem(actx *AssertionContext, a Assertion) error {
	it, err := actx.Store.Get(actx.Ctx, itemid.LocalItemID(ManagerURI, a.Key))
	if err != nil {
		return &AssertionError{
			Type:     AssertStoredItem,
			Expected: fmt.Sprintf("item %q exists", a.Key),
			Actual:   err.Error(),
		}
	}

	s := summary(it)
	fields := map[string]string{
		"id":     s.ID,
		"parent": s.Parent,
		"type":   s.Type,
		"label":  s.Label,
		"start":  s.Start,
	}
	if it.Description != "" {
		fields["description"] = it.Description
	}

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		if got := fields[k]; got != a.Expect[k] {
			mismatches = append(mismatches, fmt.Sprintf("%s=%q (want %q)", k, got, a.Expect[k]))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertStoredItem,
		Expected: fmt.Sprintf("item %q with %v", a.Key, a.Expect),
		Actual:   strings.Join(mismatches, ", "),
	}
}

// EvaluateAssertions runs all assertions and returns the failure messages.
// Does not fail fast.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertStoredCount:
			err = assertStoredCount(actx, a)
		case AssertStoredItem:
			err = assertStoredItem(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err))
		}
	}
	return errs
}
