package itemid

import (
	"fmt"

	"github.com/roach88/organizer/internal/ir"
)

// LocalID is the EngineID used by the bundled engines: a manager URI plus an
// opaque local key. Keys compare bytewise.
type LocalID struct {
	managerURI string
	key        string
	hash       uint64
}

// NewLocal creates a LocalID. Both parts must be non-empty.
func NewLocal(managerURI, key string) (*LocalID, error) {
	if managerURI == "" {
		return nil, fmt.Errorf("%w: empty manager uri", ErrMalformed)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrMalformed)
	}
	h, err := ir.Hash64(ir.DomainEngineID, ir.Object{
		"manager_uri": ir.String(managerURI),
		"key":         ir.String(key),
	})
	if err != nil {
		return nil, err
	}
	return &LocalID{managerURI: managerURI, key: key, hash: h}, nil
}

// LocalItemID is a convenience wrapper returning an ItemID. It panics on empty
// arguments.
func LocalItemID(managerURI, key string) ItemID {
	l, err := NewLocal(managerURI, key)
	if err != nil {
		panic(err)
	}
	return New(l)
}

// Key returns the local key.
func (l *LocalID) Key() string { return l.key }

// ManagerURI implements EngineID.
func (l *LocalID) ManagerURI() string { return l.managerURI }

// Payload implements EngineID.
func (l *LocalID) Payload() string { return l.key }

// Hash implements EngineID.
func (l *LocalID) Hash() uint64 { return l.hash }

// IsEqualTo implements EngineID.
func (l *LocalID) IsEqualTo(other EngineID) bool {
	o, ok := other.(*LocalID)
	if !ok || o == nil {
		return false
	}
	return l.managerURI == o.managerURI && l.key == o.key
}

// IsLessThan implements EngineID. Foreign id types sort after LocalIDs.
func (l *LocalID) IsLessThan(other EngineID) bool {
	o, ok := other.(*LocalID)
	if !ok || o == nil {
		return true
	}
	if l.managerURI != o.managerURI {
		return l.managerURI < o.managerURI
	}
	return l.key < o.key
}

// Clone implements EngineID.
func (l *LocalID) Clone() EngineID {
	c := *l
	return &c
}
