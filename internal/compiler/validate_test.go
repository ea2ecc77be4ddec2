package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

func TestValidate(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	id := func(k string) itemid.ItemID { return itemid.LocalItemID(testManager, k) }

	parent := item.Item{
		ID: id("p"), Type: item.TypeEvent, Start: start,
		Recurrence: &item.Rule{Frequency: item.Daily},
	}
	plain := item.Item{ID: id("plain"), Type: item.TypeEvent, Start: start}
	occ := func(key string, parentKey string, typ item.Type) item.Item {
		return item.Item{ID: id(key), ParentID: id(parentKey), Type: typ, Start: start, OriginalStart: start}
	}

	tests := []struct {
		name  string
		items []item.Item
		codes []string
	}{
		{"valid", []item.Item{parent, occ("o", "p", item.TypeEventOccurrence)}, nil},
		{"invalid item", []item.Item{{ID: id("x"), Type: "meeting"}}, []string{ErrInvalidItem}},
		{"undefined parent", []item.Item{occ("o", "ghost", item.TypeEventOccurrence)}, []string{ErrUndefinedParent}},
		{"parent not recurring", []item.Item{plain, occ("o", "plain", item.TypeEventOccurrence)}, []string{ErrParentNotRecurring}},
		{"type mismatch", []item.Item{parent, occ("o", "p", item.TypeTodoOccurrence)}, []string{ErrParentTypeMismatch}},
		{
			"duplicate exception",
			[]item.Item{parent, occ("o1", "p", item.TypeEventOccurrence), occ("o2", "p", item.TypeEventOccurrence)},
			[]string{ErrDuplicateException},
		},
		{
			"collects all errors",
			[]item.Item{{ID: id("x"), Type: "meeting"}, occ("o", "ghost", item.TypeEventOccurrence)},
			[]string{ErrInvalidItem, ErrUndefinedParent},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range Validate(tt.items) {
				got = append(got, e.Code)
			}
			assert.Equal(t, tt.codes, got)
		})
	}
}
