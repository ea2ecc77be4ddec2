package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/organizer/internal/itemid"
)

// RemoveResult is the output of the remove command.
type RemoveResult struct {
	Removed []string          `json:"removed"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <item-id>...",
		Short: "Remove items",
		Long: `Remove items by id. Removing a recurring item also removes its stored
exception occurrences. Ids that do not exist are reported and the others are
still removed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runRemove(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	sess, err := openSession(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	ids := make([]itemid.ItemID, len(args))
	for i, arg := range args {
		if ids[i], err = resolveID(arg, opts.Config.Manager); err != nil {
			return err
		}
	}

	r := sess.manager.NewRemove(ctx)
	r.SetItemIDs(ids...)
	execErr := sess.manager.Execute(ctx, r)

	result := RemoveResult{Removed: []string{}}
	for _, id := range r.RemovedIDs() {
		result.Removed = append(result.Removed, id.String())
	}
	if errMap := r.ErrorMap(); len(errMap) > 0 {
		result.Errors = make(map[string]string, len(errMap))
		for i, err := range errMap {
			result.Errors[ids[i].String()] = err.Error()
		}
	}

	if execErr != nil {
		return formatter.RequestError(execErr, result)
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, id := range result.Removed {
		fmt.Fprintf(formatter.Writer, "✓ Removed %s\n", id)
	}
	return nil
}
