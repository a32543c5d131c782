package cmd

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/contre95/soulsearch/src/features/config"
	"github.com/contre95/soulsearch/src/features/hosting"
	"github.com/contre95/soulsearch/src/features/jobs"
	"github.com/contre95/soulsearch/src/features/logging"
	"github.com/contre95/soulsearch/src/features/metrics"
	"github.com/contre95/soulsearch/src/features/searching"
	"github.com/contre95/soulsearch/src/infra/watcher"
	"github.com/spf13/cobra"
)

const (
	finishedJobsTTL  = 24 * time.Hour
	jobSweepInterval = time.Hour
	shutdownTimeout  = 10 * time.Second
)

func cmdServe() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
			if err := a.slskd.Ping(pingCtx); err != nil {
				slog.Warn("slskd is not reachable, searches will fail until it is", "url", a.config.Get().Slskd.URL, "error", err)
			}
			cancelPing()

			var metricsHandler *metrics.Handler
			if a.registry != nil {
				metricsHandler = metrics.NewHandler(metrics.NewService(a.registry), a.registry)
			}
			server := hosting.NewServer(a.config, searching.NewHandler(a.searching, a.tagReader), a.jobs, metricsHandler)

			events := make(chan watcher.FileEvent, 1)
			configWatcher, err := watcher.NewWatcher(events, watcher.DefaultDebounce)
			if err != nil {
				slog.Warn("Config hot reload disabled", "error", err)
			} else if err := configWatcher.Start(ctx, configPath); err != nil {
				slog.Warn("Config hot reload disabled", "error", err)
			} else {
				defer configWatcher.Stop()
				go watcher.ReloadConfig(ctx, events, a.config, func(cfg *config.Config) {
					slog.SetDefault(logging.NewLogger(os.Stderr, cfg.Logger))
				})
			}
			go sweepJobs(ctx, a.jobs)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()
			slog.Info("Server started. Press Ctrl+C to shut down.", "port", a.config.Get().Server.Port)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			slog.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			slog.Info("Server gracefully shut down.")
			return nil
		},
	}
}

// sweepJobs drops finished jobs older than finishedJobsTTL until ctx is done.
func sweepJobs(ctx context.Context, jobService *jobs.Service) {
	ticker := time.NewTicker(jobSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := jobService.ClearFinishedJobs(finishedJobsTTL); n > 0 {
				slog.Debug("Cleared finished jobs", "count", n)
			}
		}
	}
}
