package testutil

import (
	"time"

	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

// TestManager is the manager URI used by fixtures.
const TestManager = "organizer:test"

// Time parses an RFC 3339 timestamp and panics on error.
func Time(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimePtr is Time returning a pointer.
func TimePtr(s string) *time.Time {
	t := Time(s)
	return &t
}

// ID returns the local item ID for key in TestManager.
func ID(key string) itemid.ItemID {
	return itemid.LocalItemID(TestManager, key)
}

// Event builds a one-hour event starting at start.
func Event(key, label, start string) item.Item {
	s := Time(start)
	return item.Item{
		ID:           ID(key),
		Type:         item.TypeEvent,
		DisplayLabel: label,
		Start:        s,
		End:          s.Add(time.Hour),
	}
}

// Daily builds a daily recurring one-hour event repeating count times.
func Daily(key, label, start string, count int) item.Item {
	it := Event(key, label, start)
	it.Recurrence = &item.Rule{Frequency: item.Daily, Interval: 1, Count: count}
	return it
}

// Occurrences builds n one-hour event occurrences of parent, one day apart.
func Occurrences(parent item.Item, n int) []item.Item {
	out := make([]item.Item, 0, n)
	for i := 0; i < n; i++ {
		s := parent.Start.AddDate(0, 0, i)
		out = append(out, item.Item{
			ParentID:      parent.ID,
			Type:          item.TypeEventOccurrence,
			DisplayLabel:  parent.DisplayLabel,
			Start:         s,
			End:           s.Add(parent.Duration()),
			OriginalStart: s,
		})
	}
	return out
}
