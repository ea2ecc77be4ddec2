package itemid

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// EngineID is the backend-supplied identity of one item.
//
// Implementations must be immutable after construction and must satisfy:
//   - IsEqualTo is reflexive and symmetric
//   - IsLessThan is a strict weak ordering, never true when IsEqualTo is
//   - equal ids return equal Hash values
//   - Clone returns an independent copy that compares equal
//
// ItemID only calls IsEqualTo and IsLessThan with ids of the same manager.
type EngineID interface {
	ManagerURI() string
	IsEqualTo(other EngineID) bool
	IsLessThan(other EngineID) bool
	Clone() EngineID
	// Payload returns the backend-specific part of the string form.
	Payload() string
	Hash() uint64
}

// ItemID identifies an item across engine boundaries. The zero value is the
// null id.
type ItemID struct {
	e EngineID
}

// New wraps an engine id. A nil engine id yields the null ItemID.
func New(e EngineID) ItemID {
	return ItemID{e: e}
}

// IsNull reports whether the id names no item.
func (id ItemID) IsNull() bool {
	return id.e == nil
}

// EngineID returns the wrapped backend id, or nil for the null id.
func (id ItemID) EngineID() EngineID {
	return id.e
}

// ManagerURI returns the URI of the manager that issued the id.
func (id ItemID) ManagerURI() string {
	if id.e == nil {
		return ""
	}
	return id.e.ManagerURI()
}

// Equal reports whether both ids name the same item. The null id equals only
// the null id.
func (id ItemID) Equal(other ItemID) bool {
	if id.e == nil || other.e == nil {
		return id.e == nil && other.e == nil
	}
	if id.e.ManagerURI() != other.e.ManagerURI() {
		return false
	}
	return id.e.IsEqualTo(other.e)
}

// Less orders ids: null first, then by manager URI, then by backend payload.
func (id ItemID) Less(other ItemID) bool {
	return Compare(id, other) < 0
}

// Compare returns -1, 0 or +1 following the package ordering. It is suitable
// for slices.SortFunc.
func Compare(a, b ItemID) int {
	switch {
	case a.e == nil && b.e == nil:
		return 0
	case a.e == nil:
		return -1
	case b.e == nil:
		return 1
	}
	if am, bm := a.e.ManagerURI(), b.e.ManagerURI(); am != bm {
		if am < bm {
			return -1
		}
		return 1
	}
	switch {
	case a.e.IsEqualTo(b.e):
		return 0
	case a.e.IsLessThan(b.e):
		return -1
	default:
		return 1
	}
}

// Hash returns a hash consistent with Equal. The null id hashes to 0.
func (id ItemID) Hash() uint64 {
	if id.e == nil {
		return 0
	}
	return id.e.Hash()
}

// Clone returns an id wrapping a deep copy of the backend id. Use it when an
// id is handed to a container the original does not own.
func (id ItemID) Clone() ItemID {
	if id.e == nil {
		return ItemID{}
	}
	return ItemID{e: id.e.Clone()}
}

// String renders the id as "<manager-uri>#<escaped payload>". The null id
// renders as the empty string.
func (id ItemID) String() string {
	if id.e == nil {
		return ""
	}
	return id.e.ManagerURI() + "#" + url.PathEscape(id.e.Payload())
}

// MarshalText implements encoding.TextMarshaler using String.
func (id ItemID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// ParseFunc rebuilds a backend id from the manager URI and unescaped payload.
type ParseFunc func(managerURI, payload string) (EngineID, error)

// ErrMalformed is returned when a string is not a valid id.
var ErrMalformed = errors.New("malformed item id")

// Parse parses the String form into a LocalID-backed ItemID. The empty string
// parses to the null id.
func Parse(s string) (ItemID, error) {
	return ParseWith(s, func(managerURI, payload string) (EngineID, error) {
		return NewLocal(managerURI, payload)
	})
}

// ParseWith parses the String form using a backend-specific constructor.
func ParseWith(s string, fn ParseFunc) (ItemID, error) {
	if s == "" {
		return ItemID{}, nil
	}
	i := strings.LastIndexByte(s, '#')
	if i <= 0 || i == len(s)-1 {
		return ItemID{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	payload, err := url.PathUnescape(s[i+1:])
	if err != nil {
		return ItemID{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	e, err := fn(s[:i], payload)
	if err != nil {
		return ItemID{}, err
	}
	return ItemID{e: e}, nil
}

// MustParse is like Parse but panics on error. Use only in tests.
func MustParse(s string) ItemID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}
