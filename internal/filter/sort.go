package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

// SortField names an item field that can be sorted on.
type SortField string

const (
	SortByStart SortField = "start"
	SortByEnd   SortField = "end"
	SortByLabel SortField = "label"
	SortByType  SortField = "type"
)

// Direction is ascending or descending.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// SortOrder is one sort key. Orders are applied in sequence; remaining ties
// are broken by item id so results are deterministic.
type SortOrder struct {
	Field         SortField
	Direction     Direction
	CaseSensitive bool
}

// ParseSortOrder parses "field" or "field:desc" / "field:asc".
func ParseSortOrder(s string) (SortOrder, error) {
	field, dir, _ := strings.Cut(s, ":")
	o := SortOrder{Field: SortField(field)}
	switch o.Field {
	case SortByStart, SortByEnd, SortByLabel, SortByType:
	default:
		return SortOrder{}, fmt.Errorf("unknown sort field %q", field)
	}
	switch dir {
	case "", "asc":
	case "desc":
		o.Direction = Descending
	default:
		return SortOrder{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return o, nil
}

func (o SortOrder) compare(a, b item.Item) int {
	var c int
	switch o.Field {
	case SortByStart:
		c = a.Start.Compare(b.Start)
	case SortByEnd:
		c = a.End.Compare(b.End)
	case SortByLabel:
		al, bl := a.DisplayLabel, b.DisplayLabel
		if !o.CaseSensitive {
			al, bl = strings.ToLower(al), strings.ToLower(bl)
		}
		c = strings.Compare(al, bl)
	case SortByType:
		c = strings.Compare(string(a.Type), string(b.Type))
	}
	if o.Direction == Descending {
		return -c
	}
	return c
}

// Sort orders items in place by the given orders, then by id.
func Sort(items []item.Item, orders []SortOrder) {
	slices.SortStableFunc(items, func(a, b item.Item) int {
		for _, o := range orders {
			if c := o.compare(a, b); c != 0 {
				return c
			}
		}
		return itemid.Compare(a.ID, b.ID)
	})
}
