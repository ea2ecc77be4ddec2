package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/organizer/internal/item"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	queryFlags
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored items without expanding recurrences",
		Long: `Export stored items: recurring parents, stored exception occurrences and
standalone items. Recurrences are not expanded; a window keeps only parents
with an occurrence inside it.

Examples:
  organizer export --format json > items.json
  organizer export --type event --sort label`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	opts.queryFlags.register(cmd)
	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	rng, err := opts.dateRange()
	if err != nil {
		return err
	}
	f, sorting, err := opts.build()
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	r := sess.manager.NewFetchForExport(ctx)
	r.SetFilter(f)
	r.SetSorting(sorting...)
	r.SetStartDate(rng.Start)
	r.SetEndDate(rng.End)
	r.SetFetchHint(opts.hint())

	if err := sess.manager.Execute(ctx, r); err != nil {
		return formatter.RequestError(err, nil)
	}
	return outputItems(formatter, r.Items())
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	queryFlags
	Max int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, expanding recurrences inside a window",
		Long: `List items matching a filter. With a bounded window, recurring items are
expanded into their occurrences in that window.

Examples:
  organizer list --start 2026-03-02 --end 2026-03-06
  organizer list --type todo --max 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	opts.queryFlags.register(cmd)
	cmd.Flags().IntVar(&opts.Max, "max", -1, "maximum number of items (negative means no limit)")
	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	rng, err := opts.dateRange()
	if err != nil {
		return err
	}
	f, sorting, err := opts.build()
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	r := sess.manager.NewFetch(ctx)
	r.SetFilter(f)
	r.SetSorting(sorting...)
	r.SetStartDate(rng.Start)
	r.SetEndDate(rng.End)
	r.SetFetchHint(opts.hint())
	r.SetMaxCount(opts.Max)

	if err := sess.manager.Execute(ctx, r); err != nil {
		return formatter.RequestError(err, nil)
	}
	return outputItems(formatter, r.Items())
}

func outputItems(formatter *OutputFormatter, items []item.Item) error {
	list := NewItemList(items)
	if formatter.Format == "json" {
		return formatter.Success(list)
	}
	writeItems(formatter.Writer, list)
	return nil
}
