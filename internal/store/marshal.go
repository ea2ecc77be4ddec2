package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/organizer/internal/ir"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

// row is the stored form of an item.
type row struct {
	id            string
	parentID      sql.NullString
	typ           string
	label         string
	description   string
	start         sql.NullInt64
	end           sql.NullInt64
	originalStart sql.NullInt64
	recurrence    sql.NullString
	details       string
}

// toRow encodes it for storage. The ID must be a local ID of s.manager.
func (s *Store) toRow(it item.Item) (row, error) {
	key, err := s.key(it.ID)
	if err != nil {
		return row{}, err
	}
	r := row{
		id:            key,
		typ:           string(it.Type),
		label:         it.DisplayLabel,
		description:   it.Description,
		start:         nanos(it.Start),
		end:           nanos(it.End),
		originalStart: nanos(it.OriginalStart),
	}
	if !it.ParentID.IsNull() {
		pk, err := s.key(it.ParentID)
		if err != nil {
			return row{}, fmt.Errorf("parent: %w", err)
		}
		r.parentID = sql.NullString{String: pk, Valid: true}
	}
	if it.Recurrence != nil {
		data, err := marshalRule(*it.Recurrence)
		if err != nil {
			return row{}, err
		}
		r.recurrence = sql.NullString{String: data, Valid: true}
	}
	r.details, err = marshalDetails(it.Details)
	if err != nil {
		return row{}, err
	}
	return r, nil
}

// toItem decodes a stored row.
func (s *Store) toItem(r row) (item.Item, error) {
	it := item.Item{
		ID:            itemid.LocalItemID(s.manager, r.id),
		Type:          item.Type(r.typ),
		DisplayLabel:  r.label,
		Description:   r.description,
		Start:         fromNanos(r.start),
		End:           fromNanos(r.end),
		OriginalStart: fromNanos(r.originalStart),
	}
	if r.parentID.Valid {
		it.ParentID = itemid.LocalItemID(s.manager, r.parentID.String)
	}
	if r.recurrence.Valid {
		var rule item.Rule
		if err := json.Unmarshal([]byte(r.recurrence.String), &rule); err != nil {
			return item.Item{}, fmt.Errorf("unmarshal recurrence of %s: %w", r.id, err)
		}
		it.Recurrence = &rule
	}
	details, err := unmarshalDetails(r.details)
	if err != nil {
		return item.Item{}, fmt.Errorf("item %s: %w", r.id, err)
	}
	it.Details = details
	return it, nil
}

// marshalDetails converts details to canonical JSON TEXT for storage.
func marshalDetails(d ir.Object) (string, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	data, err := ir.MarshalCanonical(d)
	if err != nil {
		return "", fmt.Errorf("marshal details: %w", err)
	}
	return string(data), nil
}

// unmarshalDetails parses canonical JSON TEXT. Uses ir.Object.UnmarshalJSON,
// which keeps integers beyond 2^53 exact.
func unmarshalDetails(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	return obj, nil
}

// marshalRule stores a rule as canonical JSON with UTC timestamps.
func marshalRule(rule item.Rule) (string, error) {
	raw, err := json.Marshal(rule)
	if err != nil {
		return "", fmt.Errorf("marshal recurrence: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("marshal recurrence: %w", err)
	}
	data, err := ir.MarshalCanonical(generic)
	if err != nil {
		return "", fmt.Errorf("marshal recurrence: %w", err)
	}
	return string(data), nil
}

func nanos(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNanos(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(0, n.Int64).UTC()
}
