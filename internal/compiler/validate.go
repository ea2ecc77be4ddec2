package compiler

import (
	"fmt"
	"time"

	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

// Validation error codes (E100-E199)
const (
	ErrInvalidItem           = "E101" // item fails its structural checks
	ErrUndefinedParent       = "E102" // parent key not defined in the document
	ErrParentNotRecurring    = "E103" // parent has no recurrence rule
	ErrDuplicateException    = "E104" // two exceptions override the same occurrence
	ErrParentTypeMismatch    = "E105" // occurrence type does not match the parent
	ErrParentIsNotStandalone = "E106" // parent is itself an occurrence
)

// ValidationError represents a document validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled items against each other.
// Returns all errors found (does not fail-fast).
func Validate(items []item.Item) []ValidationError {
	var errs []ValidationError

	byID := make(map[string]item.Item, len(items))
	for _, it := range items {
		byID[it.ID.String()] = it
	}

	type exceptionKey struct {
		parent string
		at     time.Time
	}
	seen := make(map[exceptionKey]string)

	for _, it := range items {
		field := "items." + keyOf(it.ID)

		if err := it.Validate(); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error(), Code: ErrInvalidItem})
		}
		if it.ParentID.IsNull() {
			continue
		}

		parent, ok := byID[it.ParentID.String()]
		if !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".parent",
				Message: fmt.Sprintf("parent %q is not defined", keyOf(it.ParentID)),
				Code:    ErrUndefinedParent,
			})
			continue
		}
		switch {
		case !parent.ParentID.IsNull():
			errs = append(errs, ValidationError{
				Field:   field + ".parent",
				Message: fmt.Sprintf("parent %q is itself an occurrence", keyOf(parent.ID)),
				Code:    ErrParentIsNotStandalone,
			})
		case parent.Recurrence == nil:
			errs = append(errs, ValidationError{
				Field:   field + ".parent",
				Message: fmt.Sprintf("parent %q has no recurrence", keyOf(parent.ID)),
				Code:    ErrParentNotRecurring,
			})
		case parent.Type.OccurrenceType() != it.Type:
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("occurrences of a %s must have type %s", parent.Type, parent.Type.OccurrenceType()),
				Code:    ErrParentTypeMismatch,
			})
		}

		k := exceptionKey{parent: it.ParentID.String(), at: it.OriginalStart}
		if other, dup := seen[k]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".original_start",
				Message: fmt.Sprintf("occurrence at %s is already overridden by %q", it.OriginalStart.Format(time.RFC3339), other),
				Code:    ErrDuplicateException,
			})
			continue
		}
		seen[k] = keyOf(it.ID)
	}

	return errs
}

// keyOf returns the local key of id for error messages.
func keyOf(id itemid.ItemID) string {
	if l, ok := id.EngineID().(*itemid.LocalID); ok {
		return l.Key()
	}
	return id.String()
}
