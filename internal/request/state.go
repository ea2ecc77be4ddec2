package request

import "fmt"

// State is a request lifecycle state.
type State int

const (
	Inactive State = iota
	Active
	Finished
	FinishedWithError
	Canceled
)

// String returns the lowercase state name used in logs and CLI output.
func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Finished:
		return "finished"
	case FinishedWithError:
		return "finished_with_error"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == Finished || s == FinishedWithError || s == Canceled
}

// Kind is the operation a request performs.
type Kind int

const (
	ItemFetch Kind = iota + 1
	ItemFetchForExport
	ItemOccurrenceFetch
	ItemSave
	ItemRemove
)

// String returns the kind name used in logs, metrics labels and CLI output.
func (k Kind) String() string {
	switch k {
	case ItemFetch:
		return "item_fetch"
	case ItemFetchForExport:
		return "item_fetch_for_export"
	case ItemOccurrenceFetch:
		return "item_occurrence_fetch"
	case ItemSave:
		return "item_save"
	case ItemRemove:
		return "item_remove"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}
