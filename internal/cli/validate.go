package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool       `json:"valid"`
	Documents int        `json:"documents"`
	Items     int        `json:"items"`
	Errors    []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document|dir>",
		Short: "Validate item documents without saving them",
		Long: `Validate item documents (.cue, .yaml, .yml) without touching the database.

Checks the CUE schema, field formats, and the consistency of exception
occurrences with their recurring parents. Reports every error found.

Exit codes:
  0 - All documents valid
  1 - One or more documents invalid
  2 - Command error (path not found, etc.)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if err := opts.setup(cmd); err != nil {
		return err
	}

	loaded, loadErrs := LoadDocuments(path, opts.Config.Manager, LoadModeCollectAll)
	if loaded == nil {
		return outputLoadErrors(formatter, loadErrs)
	}
	for _, f := range loaded.Files {
		formatter.VerboseLog("Validated %s", f)
	}

	result := ValidationResult{
		Valid:     len(loadErrs) == 0,
		Documents: len(loaded.Files),
		Items:     len(loaded.Items),
	}
	for _, err := range loadErrs {
		code, _ := loadErrorCode(err)
		result.Errors = append(result.Errors, CLIError{Code: code, Message: err.Error()})
	}

	if formatter.Format == "json" {
		if !result.Valid {
			if err := formatter.encode(CLIResponse{Status: "error", Data: result, Error: &result.Errors[0]}); err != nil {
				return err
			}
			return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(loadErrs)))
		}
		return formatter.Success(result)
	}

	if !result.Valid {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", e.Message)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(loadErrs)))
	}
	fmt.Fprintf(formatter.Writer, "✓ All documents valid (%d item(s) in %d document(s))\n", result.Items, result.Documents)
	return nil
}
