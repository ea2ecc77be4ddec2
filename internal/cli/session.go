package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/organizer/internal/engine"
	"github.com/roach88/organizer/internal/manager"
	"github.com/roach88/organizer/internal/observability"
	"github.com/roach88/organizer/internal/store"
)

// session is the database and running manager of one command.
type session struct {
	opts    *RootOptions
	store   *store.Store
	manager *manager.Manager
}

// openSession opens the configured database and starts a manager over it.
// The caller must Close the session.
func openSession(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*session, error) {
	if err := opts.setup(cmd); err != nil {
		return nil, err
	}
	cfg := opts.Config

	st, err := store.Open(cfg.DB, cfg.Manager)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	opts.Logger.Debug("database opened", "path", cfg.DB, "manager", cfg.Manager)

	m := manager.New(st,
		manager.WithLogger(opts.Logger),
		manager.WithMetrics(opts.Metrics),
		manager.WithWaitTimeout(cfg.WaitTimeout),
		manager.WithEngineOptions(
			engine.WithBatchSize(cfg.BatchSize),
			engine.WithDefaultMaxOccurrences(cfg.DefaultMaxOccurrences),
		),
	)
	m.Start(ctx)
	return &session{opts: opts, store: st, manager: m}, nil
}

// Close stops the manager, closes the database and writes the metrics
// textfile if one is configured.
func (s *session) Close() error {
	var errs []error
	if err := s.manager.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if path := s.opts.Config.MetricsTextfile; path != "" {
		if err := observability.WriteTextfile(s.opts.Registry, path); err != nil {
			errs = append(errs, WrapExitError(ExitCommandError, "failed to write metrics", err))
		} else {
			s.opts.Logger.Debug("metrics written", "path", path)
		}
	}
	return errors.Join(errs...)
}
