package compiler

import (
	_ "embed"
	"fmt"
	"slices"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/organizer/internal/ir"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

//go:embed schema.cue
var schemaSource string

// itemDoc is one item as written in a document.
type itemDoc struct {
	Type          string         `json:"type" yaml:"type"`
	Label         string         `json:"label,omitempty" yaml:"label"`
	Description   string         `json:"description,omitempty" yaml:"description"`
	Start         string         `json:"start,omitempty" yaml:"start"`
	End           string         `json:"end,omitempty" yaml:"end"`
	OriginalStart string         `json:"original_start,omitempty" yaml:"original_start"`
	Parent        string         `json:"parent,omitempty" yaml:"parent"`
	Recurrence    *ruleDoc       `json:"recurrence,omitempty" yaml:"recurrence"`
	Details       map[string]any `json:"-" yaml:"details"` // CUE details are walked, not decoded
}

type ruleDoc struct {
	Frequency  string   `json:"frequency" yaml:"frequency"`
	Interval   int      `json:"interval,omitempty" yaml:"interval"`
	Count      int      `json:"count,omitempty" yaml:"count"`
	Until      string   `json:"until,omitempty" yaml:"until"`
	Exceptions []string `json:"exceptions,omitempty" yaml:"exceptions"`
}

// CompileCUE compiles a CUE document. filename is used in error positions.
func CompileCUE(src []byte, filename, managerURI string) ([]item.Item, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", formatCUEError(err))
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileItems(v.LookupPath(cue.ParsePath("items")), managerURI)
}

// CompileItems compiles the items struct of a document. Items are returned
// parents first, each group ordered by key.
func CompileItems(v cue.Value, managerURI string) ([]item.Item, error) {
	if !v.Exists() {
		return []item.Item{}, nil
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	docs := make(map[string]itemDoc)
	for iter.Next() {
		key := iter.Selector().Unquoted()
		var doc itemDoc
		if err := iter.Value().Decode(&doc); err != nil {
			return nil, formatCUEError(err)
		}
		if details := iter.Value().LookupPath(cue.ParsePath("details")); details.Exists() {
			obj, err := cueDetails(details)
			if err != nil {
				return nil, err
			}
			doc.Details = obj
		}
		docs[key] = doc
	}
	return build(docs, managerURI)
}

// cueDetails converts a details struct to plain Go values. Floats and nulls
// are rejected.
func cueDetails(v cue.Value) (map[string]any, error) {
	out, err := cueValue(v)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, &CompileError{Field: "details", Message: "details must be a struct", Pos: v.Pos()}
	}
	return m, nil
}

func cueValue(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		return v.Int64()
	case cue.BoolKind:
		return v.Bool()
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := []any{}
		for iter.Next() {
			elem, err := cueValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := map[string]any{}
		for iter.Next() {
			elem, err := cueValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Selector().Unquoted()] = elem
		}
		return out, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{Field: "details", Message: "float values are not allowed, use int", Pos: v.Pos()}
	default:
		return nil, &CompileError{Field: "details", Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()), Pos: v.Pos()}
	}
}

// build converts decoded documents to items and orders them.
func build(docs map[string]itemDoc, managerURI string) ([]item.Item, error) {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	items := make([]item.Item, 0, len(keys))
	for _, key := range keys {
		it, err := docs[key].toItem(key, managerURI)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	// Parents must be stored before their exceptions.
	slices.SortStableFunc(items, func(a, b item.Item) int {
		switch {
		case a.ParentID.IsNull() == b.ParentID.IsNull():
			return 0
		case a.ParentID.IsNull():
			return -1
		default:
			return 1
		}
	})
	return items, nil
}

func (d itemDoc) toItem(key, managerURI string) (item.Item, error) {
	field := "items." + key
	id, err := itemid.NewLocal(managerURI, key)
	if err != nil {
		return item.Item{}, &CompileError{Field: field, Message: err.Error()}
	}

	it := item.Item{
		ID:           itemid.New(id),
		Type:         item.Type(d.Type),
		DisplayLabel: d.Label,
		Description:  d.Description,
	}
	if d.Parent != "" {
		it.ParentID = itemid.LocalItemID(managerURI, d.Parent)
	}

	times := []struct {
		name string
		src  string
		dst  *time.Time
	}{
		{"start", d.Start, &it.Start},
		{"end", d.End, &it.End},
		{"original_start", d.OriginalStart, &it.OriginalStart},
	}
	for _, tt := range times {
		if tt.src == "" {
			continue
		}
		t, err := parseTime(tt.src)
		if err != nil {
			return item.Item{}, &CompileError{Field: field + "." + tt.name, Message: err.Error()}
		}
		*tt.dst = t
	}

	if d.Recurrence != nil {
		rule, err := d.Recurrence.toRule()
		if err != nil {
			return item.Item{}, &CompileError{Field: field + ".recurrence", Message: err.Error()}
		}
		it.Recurrence = &rule
	}

	if len(d.Details) > 0 {
		v, err := ir.FromAny(d.Details)
		if err != nil {
			return item.Item{}, &CompileError{Field: field + ".details", Message: err.Error()}
		}
		it.Details = v.(ir.Object)
	}
	return it, nil
}

func (r ruleDoc) toRule() (item.Rule, error) {
	rule := item.Rule{
		Frequency: item.Frequency(r.Frequency),
		Interval:  r.Interval,
		Count:     r.Count,
	}
	if r.Until != "" {
		t, err := parseTime(r.Until)
		if err != nil {
			return item.Rule{}, fmt.Errorf("until: %w", err)
		}
		rule.Until = &t
	}
	for i, s := range r.Exceptions {
		t, err := parseTime(s)
		if err != nil {
			return item.Rule{}, fmt.Errorf("exceptions[%d]: %w", i, err)
		}
		rule.Exceptions = append(rule.Exceptions, t)
	}
	return rule, rule.Validate()
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid RFC 3339 time %q", s)
	}
	return t.UTC(), nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError converts a CUE error into a *CompileError. Schema
// violations often fail inside a disjunction and carry no position; the
// first position found anywhere in the error list is used, if any.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error()}
	}

	ce := &CompileError{Field: "cue", Message: errs[0].Error()}
	for _, e := range errs {
		if positions := errors.Positions(e); len(positions) > 0 {
			ce.Pos = positions[0]
			break
		}
	}
	return ce
}
