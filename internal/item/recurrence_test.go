package item

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/organizer/internal/itemid"
)

func starts(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Start.Format(time.RFC3339)
	}
	return out
}

func recurring(rule Rule) Item {
	return Item{
		ID:           itemid.LocalItemID("memory", "standup"),
		Type:         TypeEvent,
		DisplayLabel: "Standup",
		Start:        ts("2026-01-01T09:00:00Z"),
		End:          ts("2026-01-01T09:15:00Z"),
		Recurrence:   &rule,
	}
}

func TestExpand_DailyCount(t *testing.T) {
	occ := Expand(recurring(Rule{Frequency: Daily, Count: 3}), DateRange{}, 0)

	assert.Equal(t, []string{
		"2026-01-01T09:00:00Z",
		"2026-01-02T09:00:00Z",
		"2026-01-03T09:00:00Z",
	}, starts(occ))

	first := occ[0]
	assert.Equal(t, TypeEventOccurrence, first.Type)
	assert.True(t, first.ID.IsNull())
	assert.Equal(t, "memory#standup", first.ParentID.String())
	assert.Equal(t, first.Start, first.OriginalStart)
	assert.Equal(t, 15*time.Minute, first.Duration())
	assert.Nil(t, first.Recurrence)
}

func TestExpand_WeeklyIntervalUntil(t *testing.T) {
	occ := Expand(recurring(Rule{Frequency: Weekly, Interval: 2, Until: tp("2026-02-01T00:00:00Z")}), DateRange{}, 0)

	assert.Equal(t, []string{
		"2026-01-01T09:00:00Z",
		"2026-01-15T09:00:00Z",
		"2026-01-29T09:00:00Z",
	}, starts(occ))
}

func TestExpand_MonthlySkipsMissingDays(t *testing.T) {
	parent := recurring(Rule{Frequency: Monthly, Count: 4})
	parent.Start = ts("2026-01-31T09:00:00Z")
	parent.End = time.Time{}

	occ := Expand(parent, DateRange{}, 0)

	assert.Equal(t, []string{
		"2026-01-31T09:00:00Z",
		"2026-03-31T09:00:00Z",
		"2026-05-31T09:00:00Z",
		"2026-07-31T09:00:00Z",
	}, starts(occ))
	assert.True(t, occ[0].End.IsZero())
}

func TestExpand_YearlyLeapDay(t *testing.T) {
	parent := recurring(Rule{Frequency: Yearly, Count: 2})
	parent.Start = ts("2024-02-29T09:00:00Z")
	parent.End = time.Time{}

	assert.Equal(t, []string{"2024-02-29T09:00:00Z", "2028-02-29T09:00:00Z"}, starts(Expand(parent, DateRange{}, 0)))
}

func TestExpand_RangeWindow(t *testing.T) {
	rng := NewDateRange(tp("2026-01-03T00:00:00Z"), tp("2026-01-05T23:59:59Z"))

	occ := Expand(recurring(Rule{Frequency: Daily}), rng, 0)

	assert.Equal(t, []string{
		"2026-01-03T09:00:00Z",
		"2026-01-04T09:00:00Z",
		"2026-01-05T09:00:00Z",
	}, starts(occ))
}

func TestExpand_OpenStartBoundedEnd(t *testing.T) {
	rng := DateRange{End: tp("2026-01-02T12:00:00Z")}

	occ := Expand(recurring(Rule{Frequency: Daily}), rng, 0)

	assert.Len(t, occ, 2)
}

func TestExpand_Max(t *testing.T) {
	occ := Expand(recurring(Rule{Frequency: Daily}), DateRange{}, 5)
	assert.Len(t, occ, 5)
}

func TestExpand_Exceptions(t *testing.T) {
	occ := Expand(recurring(Rule{
		Frequency:  Daily,
		Count:      3,
		Exceptions: []time.Time{ts("2026-01-02T09:00:00Z")},
	}), DateRange{}, 0)

	assert.Equal(t, []string{"2026-01-01T09:00:00Z", "2026-01-03T09:00:00Z"}, starts(occ))
}

func TestExpand_NonRecurring(t *testing.T) {
	assert.Empty(t, Expand(Item{Type: TypeEvent, Start: ts("2026-01-01T09:00:00Z")}, DateRange{}, 10))
}

func TestExpand_UnboundedTerminates(t *testing.T) {
	occ := Expand(recurring(Rule{Frequency: Daily}), DateRange{}, 0)
	require.NotEmpty(t, occ)
	assert.LessOrEqual(t, len(occ), maxExpansionSteps)
}
