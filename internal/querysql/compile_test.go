package querysql

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/ir"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

const manager = "organizer:sqlite"

func TestCompile_AnyFilter(t *testing.T) {
	sql, params, err := NewSQLCompiler(manager).Compile(filter.Query{})
	require.NoError(t, err)

	assert.Equal(t, "SELECT "+Columns+" FROM items WHERE manager = ? ORDER BY id COLLATE BINARY ASC", sql)
	assert.Equal(t, []any{manager}, params)
}

func TestCompile_OrderByMandatory(t *testing.T) {
	tests := []filter.Query{
		{Filter: filter.TypeIs{Types: []item.Type{item.TypeEvent}}},
		{Sorting: []filter.SortOrder{{Field: filter.SortByStart, Direction: filter.Descending}}},
		{Filter: filter.Union{}},
	}
	for _, q := range tests {
		sql, _, err := NewSQLCompiler(manager).Compile(q)
		require.NoError(t, err)
		assert.Contains(t, sql, "id COLLATE BINARY ASC")
	}
}

func TestCompile_ValuesAreParameterized(t *testing.T) {
	q := filter.Query{Filter: filter.Intersection{Filters: []filter.Filter{
		filter.TypeIs{Types: []item.Type{item.TypeEvent, item.TypeTodo}},
		filter.DetailEquals{Key: "room", Value: ir.String("Robert'); DROP TABLE items;--")},
		filter.LabelContains{Substring: "Standup"},
	}}}

	sql, params, err := NewSQLCompiler(manager).Compile(q)
	require.NoError(t, err)

	assert.NotContains(t, sql, "DROP TABLE")
	assert.NotContains(t, sql, "Standup")
	assert.Contains(t, sql, "(type IN (?, ?)) AND (json_extract(details, ?) = ?) AND (instr(lower(label), lower(?)) > 0)")
	assert.Equal(t, []any{
		manager,
		"event", "todo",
		`$."room"`, "Robert'); DROP TABLE items;--",
		"Standup",
	}, params)
}

func TestCompile_IDs(t *testing.T) {
	q := filter.Query{Filter: filter.IDs{IDs: []itemid.ItemID{
		itemid.LocalItemID(manager, "a"),
		itemid.LocalItemID("organizer:other", "b"),
		itemid.LocalItemID(manager, "c"),
	}}}

	sql, params, err := NewSQLCompiler(manager).Compile(q)
	require.NoError(t, err)
	assert.Contains(t, sql, "id IN (?, ?)")
	assert.Equal(t, []any{manager, "a", "c"}, params)

	q = filter.Query{Filter: filter.IDs{IDs: []itemid.ItemID{itemid.LocalItemID("organizer:other", "b")}}}
	sql, params, err = NewSQLCompiler(manager).Compile(q)
	require.NoError(t, err)
	assert.Contains(t, sql, "0 = 1")
	assert.Equal(t, []any{manager}, params)
}

func TestCompile_Union(t *testing.T) {
	q := filter.Query{Filter: filter.Union{Filters: []filter.Filter{
		filter.TypeIs{Types: []item.Type{item.TypeNote}},
		filter.DetailEquals{Key: "done", Value: ir.Bool(true)},
	}}}
	sql, params, err := NewSQLCompiler(manager).Compile(q)
	require.NoError(t, err)
	assert.Contains(t, sql, "(type IN (?)) OR (json_extract(details, ?) = ?)")
	assert.Equal(t, []any{manager, "note", `$."done"`, int64(1)}, params)
}

func TestCompile_LabelNonASCIIDelegated(t *testing.T) {
	q := filter.Query{Filter: filter.LabelContains{Substring: "Ärzte"}}
	sql, params, err := NewSQLCompiler(manager).Compile(q)
	require.NoError(t, err)
	assert.NotContains(t, whereClause(t, sql), "label")
	assert.Equal(t, []any{manager}, params)

	q = filter.Query{Filter: filter.LabelContains{Substring: "Ärzte", CaseSensitive: true}}
	sql, params, err = NewSQLCompiler(manager).Compile(q)
	require.NoError(t, err)
	assert.Contains(t, sql, "instr(label, ?) > 0")
	assert.Equal(t, []any{manager, "Ärzte"}, params)
}

func TestCompile_Range(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	sql, params, err := NewSQLCompiler(manager).Compile(filter.Query{Range: item.NewDateRange(&start, &end)})
	require.NoError(t, err)
	assert.Contains(t, sql, "recurrence IS NOT NULL OR")
	assert.Equal(t, []any{manager, start.UnixNano(), end.UnixNano()}, params)

	_, _, err = NewSQLCompiler(manager).Compile(filter.Query{Range: item.NewDateRange(&end, &start)})
	require.ErrorIs(t, err, item.ErrInvalid)
}

func TestCompile_Sorting(t *testing.T) {
	q := filter.Query{Sorting: []filter.SortOrder{
		{Field: filter.SortByLabel},
		{Field: filter.SortByStart, Direction: filter.Descending},
	}}
	sql, _, err := NewSQLCompiler(manager).Compile(q)
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY label COLLATE NOCASE ASC, start_at DESC, id COLLATE BINARY ASC")
}

func TestCompile_InvalidFilter(t *testing.T) {
	q := filter.Query{Filter: filter.DetailEquals{Key: "k", Value: ir.List{ir.Int(1)}}}
	_, _, err := NewSQLCompiler(manager).Compile(q)
	require.ErrorIs(t, err, filter.ErrInvalidFilter)
}

// whereClause returns the WHERE clause of sql without the ORDER BY list.
func whereClause(t *testing.T, sql string) string {
	t.Helper()
	start := strings.Index(sql, " WHERE ")
	end := strings.Index(sql, " ORDER BY ")
	require.True(t, start >= 0 && end > start, "unexpected statement %q", sql)
	return sql[start:end]
}
