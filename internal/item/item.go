package item

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/organizer/internal/ir"
	"github.com/roach88/organizer/internal/itemid"
)

// Type is the kind of an organizer item.
type Type string

const (
	TypeEvent           Type = "event"
	TypeEventOccurrence Type = "event-occurrence"
	TypeTodo            Type = "todo"
	TypeTodoOccurrence  Type = "todo-occurrence"
	TypeJournal         Type = "journal"
	TypeNote            Type = "note"
)

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case TypeEvent, TypeEventOccurrence, TypeTodo, TypeTodoOccurrence, TypeJournal, TypeNote:
		return true
	}
	return false
}

// IsOccurrence reports whether t is an occurrence type.
func (t Type) IsOccurrence() bool {
	return t == TypeEventOccurrence || t == TypeTodoOccurrence
}

// OccurrenceType returns the occurrence type generated by a recurring item of
// type t, or "" when t cannot recur.
func (t Type) OccurrenceType() Type {
	switch t {
	case TypeEvent:
		return TypeEventOccurrence
	case TypeTodo:
		return TypeTodoOccurrence
	}
	return ""
}

// Item is one organizer item.
//
// Occurrences carry the id of their recurring parent in ParentID and the
// start the parent's rule generated for them in OriginalStart. Generated
// occurrences have a null ID; persisted exception occurrences have their own.
type Item struct {
	ID            itemid.ItemID `json:"id"`
	ParentID      itemid.ItemID `json:"parent_id"`
	Type          Type          `json:"type"`
	DisplayLabel  string        `json:"display_label,omitempty"`
	Description   string        `json:"description,omitempty"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	OriginalStart time.Time     `json:"original_start"`
	Recurrence    *Rule         `json:"recurrence,omitempty"`
	Details       ir.Object     `json:"details,omitempty"`
}

// Clone returns a deep copy. Ids are cloned so the copy shares no backend
// state with the original.
func (it Item) Clone() Item {
	out := it
	out.ID = it.ID.Clone()
	out.ParentID = it.ParentID.Clone()
	out.Details = it.Details.Clone()
	if it.Recurrence != nil {
		r := it.Recurrence.Clone()
		out.Recurrence = &r
	}
	return out
}

// CloneAll deep copies a slice of items. A nil slice clones to nil.
func CloneAll(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// ErrInvalid is wrapped by every validation error in this package.
var ErrInvalid = errors.New("invalid item")

// Validate checks the structural invariants of an item.
func (it Item) Validate() error {
	if !it.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalid, it.Type)
	}
	if !it.Start.IsZero() && !it.End.IsZero() && it.End.Before(it.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalid, it.End.Format(time.RFC3339), it.Start.Format(time.RFC3339))
	}
	if it.Type.IsOccurrence() {
		if it.ParentID.IsNull() {
			return fmt.Errorf("%w: occurrence without parent", ErrInvalid)
		}
		if it.OriginalStart.IsZero() {
			return fmt.Errorf("%w: occurrence without original start", ErrInvalid)
		}
		if it.Recurrence != nil {
			return fmt.Errorf("%w: occurrence cannot recur", ErrInvalid)
		}
	}
	if it.Recurrence != nil {
		if it.Type.OccurrenceType() == "" {
			return fmt.Errorf("%w: type %q cannot recur", ErrInvalid, it.Type)
		}
		if it.Start.IsZero() {
			return fmt.Errorf("%w: recurring item needs a start", ErrInvalid)
		}
		if err := it.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Duration returns End-Start, or zero when either bound is unset.
func (it Item) Duration() time.Duration {
	if it.Start.IsZero() || it.End.IsZero() {
		return 0
	}
	return it.End.Sub(it.Start)
}

// Field names a group of item fields for save masks.
type Field string

const (
	FieldLabel       Field = "label"
	FieldDescription Field = "description"
	FieldTime        Field = "time"
	FieldRecurrence  Field = "recurrence"
	FieldDetails     Field = "details"
)

// ApplyMask returns existing with only the masked fields taken from incoming.
// An empty mask means incoming replaces existing entirely.
func ApplyMask(existing, incoming Item, mask []Field) Item {
	if len(mask) == 0 {
		return incoming.Clone()
	}
	out := existing.Clone()
	for _, f := range mask {
		switch f {
		case FieldLabel:
			out.DisplayLabel = incoming.DisplayLabel
		case FieldDescription:
			out.Description = incoming.Description
		case FieldTime:
			out.Start, out.End = incoming.Start, incoming.End
		case FieldRecurrence:
			out.Recurrence = nil
			if incoming.Recurrence != nil {
				r := incoming.Recurrence.Clone()
				out.Recurrence = &r
			}
		case FieldDetails:
			out.Details = incoming.Details.Clone()
		}
	}
	return out
}
