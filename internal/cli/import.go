package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/organizer/internal/item"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Mask []string
}

// ImportResult is the output of the import command.
type ImportResult struct {
	Files    []string          `json:"files"`
	Imported []string          `json:"imported"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <document|dir>",
		Short: "Save the items of item documents",
		Long: `Compile item documents (.cue, .yaml, .yml) and save their items.

Items already stored are replaced, or only the fields named by --mask are
updated (label, description, time, recurrence, details).

Exit codes:
  0 - All items saved
  1 - Invalid document or an item could not be saved
  2 - Command error (path not found, database cannot be opened, etc.)

Examples:
  organizer import ./team.yaml
  organizer import ./documents --mask label,time`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Mask, "mask", nil, "only update these fields of stored items")
	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	mask := make([]item.Field, len(opts.Mask))
	for i, f := range opts.Mask {
		mask[i] = item.Field(f)
	}

	if err := opts.setup(cmd); err != nil {
		return err
	}
	loaded, loadErrs := LoadDocuments(path, opts.Config.Manager, LoadModeCollectAll)
	if len(loadErrs) > 0 {
		return outputLoadErrors(formatter, loadErrs)
	}
	for _, f := range loaded.Files {
		formatter.VerboseLog("Loaded %s", f)
	}

	sess, err := openSession(ctx, cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	r := sess.manager.NewSave(ctx)
	r.SetItems(loaded.Items...)
	r.SetDetailMask(mask...)
	execErr := sess.manager.Execute(ctx, r)

	result := ImportResult{Files: loaded.Files, Imported: []string{}}
	for i := range loaded.Items {
		if saved, ok := r.SavedItem(i); ok {
			result.Imported = append(result.Imported, saved.ID.String())
		}
	}
	if errMap := r.ErrorMap(); len(errMap) > 0 {
		result.Errors = make(map[string]string, len(errMap))
		for i, err := range errMap {
			result.Errors[loaded.Items[i].ID.String()] = err.Error()
		}
	}

	if execErr != nil {
		return formatter.RequestError(execErr, result)
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d item(s) from %d document(s)\n", len(result.Imported), len(result.Files))
	if formatter.Verbose {
		ids := append([]string(nil), result.Imported...)
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(formatter.Writer, "  %s\n", id)
		}
	}
	return nil
}

// outputLoadErrors outputs document errors. Invalid documents are failures
// (exit 1); a missing path is a command error (exit 2).
func outputLoadErrors(formatter *OutputFormatter, errs []error) error {
	exit := ExitFailure
	code, _ := loadErrorCode(errs[0])
	switch code {
	case ErrCodeNotFound, ErrCodeScanError, ErrCodeNoFiles:
		exit = ExitCommandError
	}

	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			c, m := loadErrorCode(err)
			cliErrors[i] = CLIError{Code: c, Message: m}
		}
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}); err != nil {
			return err
		}
		return NewExitError(exit, fmt.Sprintf("loading failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Invalid documents")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", err)
	}
	return NewExitError(exit, fmt.Sprintf("loading failed with %d error(s)", len(errs)))
}
