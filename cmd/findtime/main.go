// Command findtime runs find-time queries, serves the API and manages the grid tables
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"findtime/internal/core/version"
	"findtime/internal/modkit"
	"findtime/internal/platform/config"
	"findtime/internal/platform/logger"
	"findtime/internal/platform/metrics"
	"findtime/internal/platform/store"
	ftmodule "findtime/internal/services/findtime/module"
	"findtime/internal/services/findtime/repo"

	"github.com/spf13/cobra"
)

var root = config.New()

var rootCmd = &cobra.Command{
	Use:           "findtime",
	Short:         "Find when a gridded variable satisfies a threshold",
	Long:          "findtime evaluates hourly threshold predicates over a lat/lon box, pruning whole years, months and days from stored bounds before reading raw hours.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// session is an open store with the find-time module built over it
type session struct {
	st     *store.Store
	module *ftmodule.Module
	opts   ftmodule.Options
}

func open(ctx context.Context, tag string) (*session, error) {
	cfg := store.ConfigFrom(root, "findtime", tag)
	st, err := store.Open(ctx, cfg, store.WithLogger(*logger.Get()), store.WithPingAttempts(cliPingAttempts))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	opts := ftmodule.FromConfig(root)
	if opts.CacheEnabled && cfg.RDS.Enabled && st.RDS == nil {
		logger.Get().Warn().Msg("redis unreachable: rollups from this run will not invalidate cached bounds")
	}
	if backendFlag != "" {
		b, err := repo.ParseBackend(backendFlag)
		if err != nil {
			_ = st.Close(ctx)
			return nil, err
		}
		opts.Backend = b
	}
	deps := modkit.DepsFrom(root, st, metrics.New())
	return &session{st: st, module: ftmodule.NewWithOptions(deps, opts), opts: opts}, nil
}

// repo returns the backend adapter or the reason it is unavailable
func (s *session) repo() (repo.Repo, error) {
	return ftmodule.OpenRepo(modkit.DepsFrom(root, s.st, nil), s.opts)
}

func (s *session) close() {
	if err := s.st.Close(context.Background()); err != nil {
		logger.Get().Error().Err(err).Msg("failed to close store")
	}
}

var backendFlag string

const cliPingAttempts = 3

func init() {
	bi := version.Info()
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", bi.Version, bi.Commit, bi.Date)
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend, clickhouse or postgres (default FINDTIME_BACKEND)")
}
