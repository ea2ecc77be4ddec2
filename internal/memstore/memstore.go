// Package memstore is an in-memory item store with the same contract as the
// SQLite store. It backs tests and the scenario harness.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/request"
)

// Store keeps items in a map keyed by ItemID hash.
//
// Thread-safety: all methods are safe for concurrent use.
type Store struct {
	manager string

	mu    sync.RWMutex
	items map[uint64][]item.Item
}

// New returns an empty store for managerURI.
func New(managerURI string) *Store {
	return &Store{manager: managerURI, items: make(map[uint64][]item.Item)}
}

// ManagerURI returns the manager the store is scoped to.
func (s *Store) ManagerURI() string { return s.manager }

// Get returns the item with id.
func (s *Store) Get(ctx context.Context, id itemid.ItemID) (item.Item, error) {
	if err := ctx.Err(); err != nil {
		return item.Item{}, err
	}
	if err := s.check(id); err != nil {
		return item.Item{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.lookup(id)
	if !ok {
		return item.Item{}, request.Errorf(request.DoesNotExist, "item %s", id)
	}
	return it.Clone(), nil
}

// List returns the items matching q.
func (s *Store) List(ctx context.Context, q filter.Query) ([]item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, request.Wrap(request.InvalidArgument, err, "list items")
	}
	s.mu.RLock()
	out := []item.Item{}
	for _, bucket := range s.items {
		for _, it := range bucket {
			if q.Match(it) {
				out = append(out, it.Clone())
			}
		}
	}
	s.mu.RUnlock()

	// Stable base order, as the SQL store's id tiebreaker.
	slices.SortFunc(out, func(a, b item.Item) int { return itemid.Compare(a.ID, b.ID) })
	filter.Sort(out, q.Sorting)
	return out, nil
}

// Exceptions returns the stored occurrences of parentID by original start.
func (s *Store) Exceptions(ctx context.Context, parentID itemid.ItemID) ([]item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.check(parentID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := s.children(parentID)
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b item.Item) int {
		if c := a.OriginalStart.Compare(b.OriginalStart); c != 0 {
			return c
		}
		return itemid.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Put inserts or replaces it.
func (s *Store) Put(ctx context.Context, it item.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := it.Validate(); err != nil {
		return request.Wrap(request.InvalidArgument, err, "put item")
	}
	if err := s.check(it.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !it.ParentID.IsNull() {
		if err := s.check(it.ParentID); err != nil {
			return err
		}
		if _, ok := s.lookup(it.ParentID); !ok {
			return request.Errorf(request.DoesNotExist, "parent %s of %s", it.ParentID, it.ID)
		}
		for _, sib := range s.children(it.ParentID) {
			if !sib.ID.Equal(it.ID) && sib.OriginalStart.Equal(it.OriginalStart) {
				return request.Errorf(request.InvalidArgument, "exception for %s at %s already exists",
					it.ParentID, it.OriginalStart)
			}
		}
	}
	s.remove(it.ID)
	h := it.ID.Hash()
	s.items[h] = append(s.items[h], it.Clone())
	return nil
}

// Delete removes the item with id and its exceptions.
func (s *Store) Delete(ctx context.Context, id itemid.ItemID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.check(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.remove(id) {
		return request.Errorf(request.DoesNotExist, "item %s", id)
	}
	for _, child := range s.children(id) {
		s.remove(child.ID)
	}
	return nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, bucket := range s.items {
		n += len(bucket)
	}
	return n
}

func (s *Store) check(id itemid.ItemID) error {
	if id.IsNull() {
		return request.Errorf(request.InvalidArgument, "null item id")
	}
	if id.ManagerURI() != s.manager {
		return request.Errorf(request.DoesNotExist, "item %s belongs to manager %q", id, id.ManagerURI())
	}
	return nil
}

func (s *Store) lookup(id itemid.ItemID) (item.Item, bool) {
	for _, it := range s.items[id.Hash()] {
		if it.ID.Equal(id) {
			return it, true
		}
	}
	return item.Item{}, false
}

func (s *Store) children(parentID itemid.ItemID) []item.Item {
	var out []item.Item
	for _, bucket := range s.items {
		for _, it := range bucket {
			if it.ParentID.Equal(parentID) {
				out = append(out, it.Clone())
			}
		}
	}
	return out
}

func (s *Store) remove(id itemid.ItemID) bool {
	h := id.Hash()
	bucket := s.items[h]
	for i, it := range bucket {
		if it.ID.Equal(id) {
			bucket = slices.Delete(bucket, i, i+1)
			if len(bucket) == 0 {
				delete(s.items, h)
			} else {
				s.items[h] = bucket
			}
			return true
		}
	}
	return false
}
