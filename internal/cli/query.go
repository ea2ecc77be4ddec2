package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

// windowFlags are the --start and --end flags of fetch commands.
type windowFlags struct {
	Start string
	End   string
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.Start, "start", "", "window start (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&w.End, "end", "", "window end (RFC 3339 or YYYY-MM-DD, a date includes the whole day)")
}

// dateRange parses the window. Unset bounds stay open.
func (w *windowFlags) dateRange() (item.DateRange, error) {
	start, err := parseTimeFlag("start", w.Start, false)
	if err != nil {
		return item.DateRange{}, err
	}
	end, err := parseTimeFlag("end", w.End, true)
	if err != nil {
		return item.DateRange{}, err
	}
	return item.DateRange{Start: start, End: end}, nil
}

// parseTimeFlag accepts RFC 3339 or a bare date. A bare end date means the
// last second of that day.
func parseTimeFlag(name, s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --%s %q: want RFC 3339 or YYYY-MM-DD", name, s))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}

// queryFlags select and order items for export and list.
type queryFlags struct {
	windowFlags
	Types  []string
	Label  string
	Sort   []string
	Fields []string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	q.windowFlags.register(cmd)
	cmd.Flags().StringSliceVar(&q.Types, "type", nil, "only items of these types (event, todo, journal, note, ...)")
	cmd.Flags().StringVar(&q.Label, "label", "", "only items whose label contains this text (case-insensitive)")
	cmd.Flags().StringSliceVar(&q.Sort, "sort", nil, "sort orders, e.g. start,label:desc")
	cmd.Flags().StringSliceVar(&q.Fields, "fields", nil, "only these detail keys")
}

// build returns the filter and sort orders of the flags.
func (q *queryFlags) build() (filter.Filter, []filter.SortOrder, error) {
	var parts []filter.Filter
	if len(q.Types) > 0 {
		types := make([]item.Type, len(q.Types))
		for i, s := range q.Types {
			t := item.Type(strings.TrimSpace(s))
			if !t.Valid() {
				return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --type %q", s))
			}
			types[i] = t
		}
		parts = append(parts, filter.TypeIs{Types: types})
	}
	if q.Label != "" {
		parts = append(parts, filter.LabelContains{Substring: q.Label})
	}

	var f filter.Filter = filter.Any{}
	switch len(parts) {
	case 0:
	case 1:
		f = parts[0]
	default:
		f = filter.Intersection{Filters: parts}
	}

	orders := make([]filter.SortOrder, 0, len(q.Sort))
	for _, s := range q.Sort {
		o, err := filter.ParseSortOrder(strings.TrimSpace(s))
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "invalid --sort", err)
		}
		orders = append(orders, o)
	}
	return f, orders, nil
}

func (q *queryFlags) hint() item.FetchHint {
	return item.FetchHint{DetailKeys: q.Fields}
}

// resolveID parses a full item id ("manager#key") or takes a bare key as a
// local id of managerURI.
func resolveID(arg, managerURI string) (itemid.ItemID, error) {
	if arg == "" {
		return itemid.ItemID{}, NewExitError(ExitCommandError, "item id must not be empty")
	}
	if !strings.Contains(arg, "#") {
		return itemid.LocalItemID(managerURI, arg), nil
	}
	id, err := itemid.Parse(arg)
	if err != nil {
		return itemid.ItemID{}, WrapExitError(ExitCommandError, "invalid item id", err)
	}
	return id, nil
}
