package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/querysql"
	"github.com/roach88/organizer/internal/request"
)

// Get returns the item with id. Returns a DoesNotExist error when absent.
func (s *Store) Get(ctx context.Context, id itemid.ItemID) (item.Item, error) {
	key, err := s.key(id)
	if err != nil {
		return item.Item{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+querysql.Columns+" FROM items WHERE manager = ? AND id = ?",
		s.manager, key)
	if err != nil {
		return item.Item{}, request.Wrap(request.BackendUnavailable, err, "get item")
	}
	items, err := s.scanItems(rows)
	if err != nil {
		return item.Item{}, err
	}
	if len(items) == 0 {
		return item.Item{}, request.Errorf(request.DoesNotExist, "item %s", id)
	}
	return items[0], nil
}

// List returns the items matching q, ordered by q.Sorting with the item id
// as final tiebreaker.
func (s *Store) List(ctx context.Context, q filter.Query) ([]item.Item, error) {
	query, params, err := querysql.NewSQLCompiler(s.manager).Compile(q)
	if err != nil {
		return nil, request.Wrap(request.InvalidArgument, err, "list items")
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, request.Wrap(request.BackendUnavailable, err, "list items")
	}
	candidates, err := s.scanItems(rows)
	if err != nil {
		return nil, err
	}

	items := candidates[:0]
	for _, it := range candidates {
		if q.Match(it) {
			items = append(items, it)
		}
	}
	filter.Sort(items, q.Sorting)
	return items, nil
}

// Exceptions returns the persisted exception occurrences of parentID,
// ordered by original start.
func (s *Store) Exceptions(ctx context.Context, parentID itemid.ItemID) ([]item.Item, error) {
	key, err := s.key(parentID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+querysql.Columns+`
		FROM items
		WHERE manager = ? AND parent_id = ?
		ORDER BY original_start ASC, id COLLATE BINARY ASC
	`, s.manager, key)
	if err != nil {
		return nil, request.Wrap(request.BackendUnavailable, err, "read exceptions")
	}
	return s.scanItems(rows)
}

// Put inserts or replaces it. The ID must be a non-null ID of this manager.
// An exception occurrence must reference an existing parent.
func (s *Store) Put(ctx context.Context, it item.Item) error {
	if err := it.Validate(); err != nil {
		return request.Wrap(request.InvalidArgument, err, "put item")
	}
	r, err := s.toRow(it)
	if err != nil {
		if request.CodeOf(err) != request.Unknown {
			return err
		}
		return request.Wrap(request.InvalidArgument, err, "put item")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return request.Wrap(request.BackendUnavailable, err, "put item")
	}
	defer tx.Rollback()

	if r.parentID.Valid {
		var n int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM items WHERE manager = ? AND id = ?",
			s.manager, r.parentID.String).Scan(&n)
		if err != nil {
			return request.Wrap(request.BackendUnavailable, err, "put item")
		}
		if n == 0 {
			return request.Errorf(request.DoesNotExist, "parent %s of %s", it.ParentID, it.ID)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO items
		(manager, id, parent_id, type, label, description, start_at, end_at, original_start, recurrence, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(manager, id) DO UPDATE SET
			parent_id = excluded.parent_id,
			type = excluded.type,
			label = excluded.label,
			description = excluded.description,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			original_start = excluded.original_start,
			recurrence = excluded.recurrence,
			details = excluded.details
	`,
		s.manager,
		r.id,
		r.parentID,
		r.typ,
		r.label,
		r.description,
		r.start,
		r.end,
		r.originalStart,
		r.recurrence,
		r.details,
	)
	if err != nil {
		return request.Wrap(request.InvalidArgument, err, "put item")
	}

	if err := tx.Commit(); err != nil {
		return request.Wrap(request.BackendUnavailable, err, "put item")
	}
	return nil
}

// Delete removes the item with id and its exception occurrences.
// Returns a DoesNotExist error when absent.
func (s *Store) Delete(ctx context.Context, id itemid.ItemID) error {
	key, err := s.key(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM items WHERE manager = ? AND (id = ? OR parent_id = ?)",
		s.manager, key, key)
	if err != nil {
		return request.Wrap(request.BackendUnavailable, err, "delete item")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return request.Wrap(request.BackendUnavailable, err, "delete item")
	}
	if n == 0 {
		return request.Errorf(request.DoesNotExist, "item %s", id)
	}
	return nil
}

// key returns the stored key of id, rejecting null and foreign IDs.
func (s *Store) key(id itemid.ItemID) (string, error) {
	if id.IsNull() {
		return "", request.Errorf(request.InvalidArgument, "null item id")
	}
	if id.ManagerURI() != s.manager {
		return "", request.Errorf(request.DoesNotExist, "item %s belongs to manager %q", id, id.ManagerURI())
	}
	if l, ok := id.EngineID().(*itemid.LocalID); ok {
		return l.Key(), nil
	}
	return id.EngineID().Payload(), nil
}

func (s *Store) scanItems(rows *sql.Rows) ([]item.Item, error) {
	defer rows.Close()

	items := []item.Item{}
	for rows.Next() {
		var r row
		if err := rows.Scan(
			&r.id,
			&r.parentID,
			&r.typ,
			&r.label,
			&r.description,
			&r.start,
			&r.end,
			&r.originalStart,
			&r.recurrence,
			&r.details,
		); err != nil {
			return nil, request.Wrap(request.BackendUnavailable, err, "scan item")
		}
		it, err := s.toItem(r)
		if err != nil {
			return nil, request.Wrap(request.Unknown, err, "decode item")
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, request.Wrap(request.BackendUnavailable, err, "iterate items")
	}
	return items, nil
}
