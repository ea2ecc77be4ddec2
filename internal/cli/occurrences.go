package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/request"
)

// OccurrencesOptions holds flags for the occurrences command.
type OccurrencesOptions struct {
	*RootOptions
	windowFlags
	Max       int
	Fields    []string
	NoDetails bool
}

// NewOccurrencesCommand creates the occurrences command.
func NewOccurrencesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OccurrencesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "occurrences <item-id>",
		Short: "List the occurrences of a recurring item",
		Long: `List the occurrences of a recurring item within a window.

Generated occurrences are merged with the stored exception occurrences of the
item. The item id is either a full id ("organizer:sqlite#standup") or a key in
the configured manager.

Examples:
  organizer occurrences standup --start 2026-03-01 --end 2026-03-31
  organizer occurrences standup --max 5 --fields room --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOccurrences(opts, args[0], cmd)
		},
	}

	opts.windowFlags.register(cmd)
	cmd.Flags().IntVar(&opts.Max, "max", request.DefaultMaxOccurrences, "maximum number of occurrences (negative uses the engine default)")
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "only these detail keys")
	cmd.Flags().BoolVar(&opts.NoDetails, "no-details", false, "omit details")

	return cmd
}

func runOccurrences(opts *OccurrencesOptions, arg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	rng, err := opts.dateRange()
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	id, err := resolveID(arg, opts.Config.Manager)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Fetching occurrences of %s in %s", id, rng)

	r := sess.manager.NewOccurrenceFetch(ctx)
	r.SetParentItem(item.Item{ID: id})
	r.SetStartDate(rng.Start)
	r.SetEndDate(rng.End)
	r.SetMaxOccurrences(opts.Max)
	r.SetFetchHint(item.FetchHint{DetailKeys: opts.Fields, OmitDetails: opts.NoDetails})

	if err := sess.manager.Execute(ctx, r); err != nil {
		return formatter.RequestError(err, nil)
	}

	return outputItems(formatter, r.ItemOccurrences())
}
