// Command localesync imports a translation CSV export into per-locale
// translation documents, and can serve the same import over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/localesync/internal/config"
	"github.com/JonMunkholm/localesync/internal/core"
	"github.com/JonMunkholm/localesync/internal/history"
	"github.com/JonMunkholm/localesync/internal/logging"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// codedError carries the process exit code for an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

func exitCode(err error) int {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	if core.KindOf(err) == core.KindConfiguration {
		return exitUsage
	}
	return exitFailure
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "localesync",
		Short: "Merge a translation CSV export into per-locale translation files",
		Long: `localesync reads a CSV export with one key column and one column per
locale, overlays it on the translation documents found under the output
directory, and writes every locale back in full.

Settings come from defaults, then an optional YAML profile (--config),
then environment variables (and .env), then command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runImport,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(), newLocalesCmd(), newHistoryCmd())
	return cmd
}

// loadConfig resolves the configuration for cmd and sets up logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	profile, err := cmd.Flags().GetString(config.FlagConfig)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	if err := cfg.Import.ApplyFlags(cmd.Flags()); err != nil {
		return nil, withCode(exitUsage, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("config validation: %w", err))
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	return cfg, nil
}

// newService builds a Service, connecting the run history when a database
// is configured. The returned func releases the database pool.
func newService(ctx context.Context, cfg *config.Config, maxConcurrent int) (*core.Service, func(), error) {
	svcCfg := core.ServiceConfig{
		MaxConcurrent: maxConcurrent,
		MaxWait:       cfg.Server.MaxWaitTime,
	}
	if !cfg.Database.HistoryEnabled() {
		return core.NewService(svcCfg), func() {}, nil
	}

	if cfg.Database.Migrate {
		if err := history.Migrate(cfg.Database.URL, slog.Default()); err != nil {
			return nil, nil, fmt.Errorf("migrate history database: %w", err)
		}
	}

	pool, err := history.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect history database: %w", err)
	}
	slog.Info("run history enabled", "max_conns", cfg.Database.MaxConns)

	svcCfg.History = history.NewStore(pool)
	return core.NewService(svcCfg), pool.Close, nil
}
