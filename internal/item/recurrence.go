package item

import (
	"fmt"
	"slices"
	"time"
)

// Frequency is the unit a recurrence rule advances by.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// maxExpansionSteps bounds rule iteration so an unbounded rule combined with
// an open range always terminates.
const maxExpansionSteps = 100_000

// Rule is a simple recurrence rule anchored at the parent item's start.
type Rule struct {
	Frequency  Frequency   `json:"frequency"`
	Interval   int         `json:"interval,omitempty"` // 0 is treated as 1
	Count      int         `json:"count,omitempty"`    // 0 = unlimited
	Until      *time.Time  `json:"until,omitempty"`
	Exceptions []time.Time `json:"exceptions,omitempty"`
}

// Clone returns a deep copy.
func (r Rule) Clone() Rule {
	out := r
	out.Until = copyTime(r.Until)
	out.Exceptions = slices.Clone(r.Exceptions)
	return out
}

// Validate checks the rule fields.
func (r Rule) Validate() error {
	switch r.Frequency {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalid, r.Frequency)
	}
	if r.Interval < 0 {
		return fmt.Errorf("%w: negative interval %d", ErrInvalid, r.Interval)
	}
	if r.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalid, r.Count)
	}
	return nil
}

func (r Rule) interval() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

// step returns the k-th candidate start. ok is false when the calendar date
// does not exist (the 31st in a short month, Feb 29 in a common year); such
// candidates are skipped rather than normalized into the next month.
func (r Rule) step(base time.Time, k int) (time.Time, bool) {
	n := k * r.interval()
	switch r.Frequency {
	case Daily:
		return base.AddDate(0, 0, n), true
	case Weekly:
		return base.AddDate(0, 0, 7*n), true
	case Monthly:
		t := base.AddDate(0, n, 0)
		return t, t.Day() == base.Day()
	default:
		t := base.AddDate(n, 0, 0)
		return t, t.Day() == base.Day() && t.Month() == base.Month()
	}
}

func (r Rule) isException(t time.Time) bool {
	for _, ex := range r.Exceptions {
		if ex.Equal(t) {
			return true
		}
	}
	return false
}

// Expand generates the occurrences of a recurring parent that overlap rng, in
// start order, stopping after max occurrences when max > 0. Items without a
// rule produce nothing. Exception dates consume a rule instance (they count
// toward Count) but are not emitted.
func Expand(parent Item, rng DateRange, max int) []Item {
	if parent.Recurrence == nil || parent.Start.IsZero() {
		return nil
	}
	rule := *parent.Recurrence
	occType := parent.Type.OccurrenceType()
	dur := parent.Duration()

	var out []Item
	instances := 0
	for k := 0; k < maxExpansionSteps; k++ {
		start, ok := rule.step(parent.Start, k)
		if !ok {
			continue
		}
		if rule.Until != nil && start.After(*rule.Until) {
			break
		}
		if rule.Count > 0 && instances >= rule.Count {
			break
		}
		instances++
		if rng.AfterEnd(start) {
			break
		}
		if rule.isException(start) {
			continue
		}
		end := start.Add(dur)
		if !rng.Overlaps(start, end) {
			continue
		}
		occ := Item{
			ParentID:      parent.ID.Clone(),
			Type:          occType,
			DisplayLabel:  parent.DisplayLabel,
			Description:   parent.Description,
			Start:         start,
			OriginalStart: start,
			Details:       parent.Details.Clone(),
		}
		if !parent.End.IsZero() {
			occ.End = end
		}
		out = append(out, occ)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

// MergeExceptions replaces generated occurrences with persisted exception
// occurrences that share their OriginalStart, adds persisted exceptions that
// moved into the window, and returns the result ordered by start. Ties keep
// generated-before-persisted order.
func MergeExceptions(generated, persisted []Item) []Item {
	out := make([]Item, 0, len(generated)+len(persisted))
	for _, g := range generated {
		replaced := false
		for _, p := range persisted {
			if p.OriginalStart.Equal(g.OriginalStart) {
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, g)
		}
	}
	out = append(out, persisted...)
	slices.SortStableFunc(out, func(a, b Item) int {
		return a.Start.Compare(b.Start)
	})
	return out
}
