package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/organizer/internal/ir"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

// Filter selects items.
type Filter interface {
	filterNode()
}

// Any matches every item. A nil Filter behaves the same way.
type Any struct{}

func (Any) filterNode() {}

// IDs matches items whose id is one of the listed ids.
type IDs struct {
	IDs []itemid.ItemID
}

func (IDs) filterNode() {}

// TypeIs matches items of any of the listed types.
type TypeIs struct {
	Types []item.Type
}

func (TypeIs) filterNode() {}

// DetailEquals matches items whose detail Key equals Value.
// Only scalar values (String, Int, Bool) are allowed.
type DetailEquals struct {
	Key   string
	Value ir.Value
}

func (DetailEquals) filterNode() {}

// LabelContains matches items whose display label contains Substring.
type LabelContains struct {
	Substring     string
	CaseSensitive bool
}

func (LabelContains) filterNode() {}

// Intersection matches items matched by every filter. An empty intersection
// matches everything.
type Intersection struct {
	Filters []Filter
}

func (Intersection) filterNode() {}

// Union matches items matched by at least one filter. An empty union matches
// nothing.
type Union struct {
	Filters []Filter
}

func (Union) filterNode() {}

// ErrInvalidFilter is wrapped by every Validate error.
var ErrInvalidFilter = errors.New("invalid filter")

// Validate checks a filter tree for unsupported shapes.
func Validate(f Filter) error {
	switch v := f.(type) {
	case nil, Any, *Any:
		return nil
	case IDs:
		for i, id := range v.IDs {
			if id.IsNull() {
				return fmt.Errorf("%w: ids[%d] is null", ErrInvalidFilter, i)
			}
		}
		return nil
	case TypeIs:
		for _, t := range v.Types {
			if !t.Valid() {
				return fmt.Errorf("%w: unknown type %q", ErrInvalidFilter, t)
			}
		}
		return nil
	case DetailEquals:
		if v.Key == "" {
			return fmt.Errorf("%w: empty detail key", ErrInvalidFilter)
		}
		switch v.Value.(type) {
		case ir.String, ir.Int, ir.Bool:
			return nil
		default:
			return fmt.Errorf("%w: detail %q: value must be string, int or bool, got %T", ErrInvalidFilter, v.Key, v.Value)
		}
	case LabelContains:
		return nil
	case Intersection:
		return validateAll(v.Filters)
	case Union:
		return validateAll(v.Filters)
	default:
		return fmt.Errorf("%w: unsupported filter type %T", ErrInvalidFilter, f)
	}
}

func validateAll(fs []Filter) error {
	for i, f := range fs {
		if err := Validate(f); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

// Match reports whether it satisfies f. Invalid filters match nothing.
func Match(f Filter, it item.Item) bool {
	switch v := f.(type) {
	case nil, Any, *Any:
		return true
	case IDs:
		for _, id := range v.IDs {
			if id.Equal(it.ID) {
				return true
			}
		}
		return false
	case TypeIs:
		for _, t := range v.Types {
			if t == it.Type {
				return true
			}
		}
		return false
	case DetailEquals:
		got, ok := it.Details[v.Key]
		return ok && ir.Equal(got, v.Value)
	case LabelContains:
		if v.CaseSensitive {
			return strings.Contains(it.DisplayLabel, v.Substring)
		}
		return strings.Contains(strings.ToLower(it.DisplayLabel), strings.ToLower(v.Substring))
	case Intersection:
		for _, sub := range v.Filters {
			if !Match(sub, it) {
				return false
			}
		}
		return true
	case Union:
		for _, sub := range v.Filters {
			if Match(sub, it) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Describe renders a filter for logs and CLI output.
func Describe(f Filter) string {
	switch v := f.(type) {
	case nil, Any, *Any:
		return "any"
	case IDs:
		parts := make([]string, len(v.IDs))
		for i, id := range v.IDs {
			parts[i] = id.String()
		}
		return "id in [" + strings.Join(parts, ", ") + "]"
	case TypeIs:
		parts := make([]string, len(v.Types))
		for i, t := range v.Types {
			parts[i] = string(t)
		}
		return "type in [" + strings.Join(parts, ", ") + "]"
	case DetailEquals:
		return fmt.Sprintf("details.%s = %v", v.Key, ir.ToAny(v.Value))
	case LabelContains:
		return fmt.Sprintf("label contains %q", v.Substring)
	case Intersection:
		return joinDescribed(v.Filters, " and ", "any")
	case Union:
		return joinDescribed(v.Filters, " or ", "none")
	default:
		return fmt.Sprintf("<%T>", f)
	}
}

func joinDescribed(fs []Filter, sep, empty string) string {
	if len(fs) == 0 {
		return empty
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = Describe(f)
	}
	return "(" + strings.Join(parts, sep) + ")"
}
