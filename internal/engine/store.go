package engine

import (
	"context"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

// Store is the persistence an Engine executes against. Implemented by
// store.Store (SQLite) and memstore.Store.
//
// Errors carry request error codes: DoesNotExist for missing or foreign
// items, InvalidArgument for rejected input, BackendUnavailable for I/O.
type Store interface {
	ManagerURI() string
	Get(ctx context.Context, id itemid.ItemID) (item.Item, error)
	List(ctx context.Context, q filter.Query) ([]item.Item, error)
	Exceptions(ctx context.Context, parentID itemid.ItemID) ([]item.Item, error)
	Put(ctx context.Context, it item.Item) error
	Delete(ctx context.Context, id itemid.ItemID) error
}
