package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/ir"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

// Columns is the select list shared by every items query.
const Columns = "id, parent_id, type, label, description, start_at, end_at, original_start, recurrence, details"

// SQLCompiler compiles item queries to parameterized SQL for SQLite.
//
// Every query ends with the stable key "id COLLATE BINARY ASC" so that equal
// sort keys come back in a deterministic order. Values are always bound as
// parameters, never interpolated.
//
// The compiled WHERE clause selects a superset of the matching items: label
// matching is delegated to Go for case-insensitive non-ASCII patterns, and
// detail comparisons follow SQLite's JSON typing. Callers apply filter.Match
// to the rows.
type SQLCompiler struct {
	// ManagerURI scopes every query; IDs from other managers never match.
	ManagerURI string
}

// NewSQLCompiler creates a compiler for managerURI.
func NewSQLCompiler(managerURI string) *SQLCompiler {
	return &SQLCompiler{ManagerURI: managerURI}
}

// Compile converts q to (sql, params). The range test follows
// filter.Query.Match on the stored columns.
func (c *SQLCompiler) Compile(q filter.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	where := []string{"manager = ?"}
	params := []any{c.ManagerURI}

	if q.Filter != nil {
		sql, fp, err := c.compileFilter(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		if sql != "1 = 1" {
			where = append(where, sql)
			params = append(params, fp...)
		}
	}

	if sql, rp := compileRange(q.Range); sql != "" {
		where = append(where, sql)
		params = append(params, rp...)
	}

	orderBy, err := compileOrder(q.Sorting)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM items WHERE %s ORDER BY %s",
		Columns, strings.Join(where, " AND "), orderBy)
	return sql, params, nil
}

func (c *SQLCompiler) compileFilter(f filter.Filter) (string, []any, error) {
	switch v := f.(type) {
	case nil, filter.Any, *filter.Any:
		return "1 = 1", nil, nil
	case filter.IDs:
		return c.compileIDs(v)
	case filter.TypeIs:
		if len(v.Types) == 0 {
			return "0 = 1", nil, nil
		}
		params := make([]any, len(v.Types))
		for i, t := range v.Types {
			params[i] = string(t)
		}
		return "type IN (" + placeholders(len(params)) + ")", params, nil
	case filter.DetailEquals:
		return compileDetail(v)
	case filter.LabelContains:
		return compileLabel(v), labelParams(v), nil
	case filter.Intersection:
		return c.compileJunction(v.Filters, " AND ", "1 = 1")
	case filter.Union:
		return c.compileJunction(v.Filters, " OR ", "0 = 1")
	default:
		return "", nil, fmt.Errorf("unsupported filter type: %T", f)
	}
}

func (c *SQLCompiler) compileIDs(v filter.IDs) (string, []any, error) {
	var params []any
	for _, id := range v.IDs {
		if id.IsNull() || id.ManagerURI() != c.ManagerURI {
			continue
		}
		params = append(params, localKey(id))
	}
	if len(params) == 0 {
		return "0 = 1", nil, nil
	}
	return "id IN (" + placeholders(len(params)) + ")", params, nil
}

func (c *SQLCompiler) compileJunction(fs []filter.Filter, sep, empty string) (string, []any, error) {
	if len(fs) == 0 {
		return empty, nil, nil
	}
	parts := make([]string, 0, len(fs))
	var params []any
	for _, sub := range fs {
		sql, p, err := c.compileFilter(sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, p...)
	}
	return strings.Join(parts, sep), params, nil
}

func compileDetail(v filter.DetailEquals) (string, []any, error) {
	path := jsonPath(v.Key)
	switch val := v.Value.(type) {
	case ir.String:
		return "json_extract(details, ?) = ?", []any{path, string(val)}, nil
	case ir.Int:
		return "json_extract(details, ?) = ?", []any{path, int64(val)}, nil
	case ir.Bool:
		// json_extract yields 1/0 for JSON booleans.
		b := int64(0)
		if val {
			b = 1
		}
		return "json_extract(details, ?) = ?", []any{path, b}, nil
	default:
		return "", nil, fmt.Errorf("detail value %T cannot be used as SQL parameter", v.Value)
	}
}

func compileLabel(v filter.LabelContains) string {
	switch {
	case v.CaseSensitive:
		return "instr(label, ?) > 0"
	case isASCII(v.Substring):
		// SQLite lower() folds ASCII only.
		return "instr(lower(label), lower(?)) > 0"
	default:
		return "1 = 1"
	}
}

func labelParams(v filter.LabelContains) []any {
	if !v.CaseSensitive && !isASCII(v.Substring) {
		return nil
	}
	return []any{v.Substring}
}

// compileRange mirrors item.DateRange.Overlaps on the stored columns. NULL
// start_at is the zero time; NULL end_at means the item ends at its start.
func compileRange(r item.DateRange) (string, []any) {
	var parts []string
	var params []any
	if r.Start != nil {
		parts = append(parts, "(start_at IS NOT NULL AND MAX(COALESCE(end_at, start_at), start_at) >= ?)")
		params = append(params, r.Start.UnixNano())
	}
	if r.End != nil {
		parts = append(parts, "(start_at IS NULL OR start_at <= ?)")
		params = append(params, r.End.UnixNano())
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(recurrence IS NOT NULL OR (" + strings.Join(parts, " AND ") + "))", params
}

// compileOrder renders the ORDER BY list, always ending in the stable key.
func compileOrder(orders []filter.SortOrder) (string, error) {
	parts := make([]string, 0, len(orders)+1)
	for _, o := range orders {
		var col string
		switch o.Field {
		case filter.SortByStart:
			col = "start_at"
		case filter.SortByEnd:
			col = "COALESCE(end_at, start_at)"
		case filter.SortByLabel:
			col = "label COLLATE NOCASE"
			if o.CaseSensitive {
				col = "label COLLATE BINARY"
			}
		case filter.SortByType:
			col = "type COLLATE BINARY"
		default:
			return "", fmt.Errorf("unsupported sort field %q", o.Field)
		}
		dir := "ASC"
		if o.Direction == filter.Descending {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	parts = append(parts, "id COLLATE BINARY ASC")
	return strings.Join(parts, ", "), nil
}

// localKey returns the stored key of id.
func localKey(id itemid.ItemID) string {
	if l, ok := id.EngineID().(*itemid.LocalID); ok {
		return l.Key()
	}
	return id.EngineID().Payload()
}

// jsonPath quotes key as a single JSON path member.
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
