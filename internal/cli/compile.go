package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/organizer/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled items.
type CompilationResult struct {
	Files []string `json:"files"`
	ItemList
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <document|dir>",
		Short: "Compile item documents to JSON",
		Long: `Compile item documents to the JSON form of their items, as export prints
them. Nothing is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if err := opts.setup(cmd); err != nil {
		return err
	}

	loaded, loadErrs := LoadDocuments(path, opts.Config.Manager, LoadModeFailFast)
	if len(loadErrs) > 0 {
		return outputLoadErrors(formatter, loadErrs)
	}

	result := CompilationResult{Files: loaded.Files, ItemList: NewItemList(loaded.Items)}

	if opts.Output != "" {
		data, err := ir.MarshalIndent(result)
		if err != nil {
			return WrapExitError(ExitCommandError, "marshaling items", err)
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	counts := make(map[string]int)
	for _, v := range result.Items {
		counts[v.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d item(s) from %d document(s)\n", result.Count, len(result.Files))
	for _, t := range types {
		fmt.Fprintf(formatter.Writer, "  %s: %d\n", t, counts[t])
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote items to %s\n", opts.Output)
	}
	return nil
}
