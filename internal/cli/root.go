package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/organizer/internal/config"
	"github.com/roach88/organizer/internal/observability"
)

// RootOptions holds global flags for all commands and the state derived from
// them before a command runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Overrides of config file values. Only flags set on the command line
	// take effect.
	DB              string
	Manager         string
	MetricsTextfile string
	WaitTimeout     time.Duration
	BatchSize       int

	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the organizer CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "organizer",
		Short: "organizer - calendar items through asynchronous requests",
		Long: `Store calendar items in SQLite and query them through asynchronous
requests: occurrence expansion of recurring items, export, listing, saving
and removal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigPath, "config", "", "config file (default ./organizer.yaml or $HOME/.config/organizer/organizer.yaml)")
	pf.StringVar(&opts.DB, "db", "", "SQLite database path (default organizer.db)")
	pf.StringVar(&opts.Manager, "manager", "", "manager URI of stored items")
	pf.StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the command")
	pf.DurationVar(&opts.WaitTimeout, "wait-timeout", 0, "maximum time to wait for a request (default 30s)")
	pf.IntVar(&opts.BatchSize, "batch-size", 0, "results per engine batch")

	// Add subcommands
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewOccurrencesCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads the configuration and builds the logger and metrics registry.
// It runs once per process; later calls are no-ops.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.Config != nil {
		return nil
	}
	cfg, err := config.Load(o.ConfigPath, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}

	o.Config = cfg
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	o.Registry = prometheus.NewRegistry()
	o.Metrics = observability.NewMetrics(o.Registry)
	return nil
}

// formatter returns the output formatter of cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
