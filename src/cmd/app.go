package cmd

import (
	"fmt"
	"log/slog"

	"github.com/contre95/soulsearch/src/features/config"
	"github.com/contre95/soulsearch/src/features/jobs"
	"github.com/contre95/soulsearch/src/features/logging"
	"github.com/contre95/soulsearch/src/features/metrics"
	"github.com/contre95/soulsearch/src/features/pathmeta"
	"github.com/contre95/soulsearch/src/features/searching"
	"github.com/contre95/soulsearch/src/infra/cache"
	"github.com/contre95/soulsearch/src/infra/musicbrainz"
	"github.com/contre95/soulsearch/src/infra/retry"
	"github.com/contre95/soulsearch/src/infra/slskd"
	"github.com/contre95/soulsearch/src/infra/tag"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds the services shared by the commands.
type app struct {
	config    *config.Manager
	registry  *prometheus.Registry
	recorder  *metrics.Recorder
	stores    *cache.Stores
	slskd     *slskd.Client
	jobs      *jobs.Service
	searching *searching.Service
	tagReader pathmeta.TagReader
}

// newApp loads the configuration and wires every service. Metrics are only
// collected when withMetrics is set and enabled in the configuration.
func newApp(withMetrics bool) (*app, error) {
	cfgManager, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logging.SetupLogger(cfgManager))
	cfg := cfgManager.Get()

	a := &app{config: cfgManager, tagReader: tag.NewTagReader()}
	if withMetrics && cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.recorder = metrics.NewRecorder(a.registry)
	}

	a.stores, err = cache.Open(cache.Options{
		Driver:          cfg.Cache.Driver,
		TrackLinksPath:  cfg.Cache.TrackLinksPath,
		ExternalIDsPath: cfg.Cache.ExternalIDsPath,
		SqlitePath:      cfg.Cache.SqlitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	policy := retryPolicy(cfg.Slskd.Retry, a.recorder)
	a.slskd = slskd.NewClient(slskd.Options{
		URL:     cfg.Slskd.URL,
		APIKey:  cfg.Slskd.APIKey,
		Timeout: cfg.Slskd.Timeout,
		Retry:   policy,
		Poll: slskd.PollPolicy{
			InitialInterval: cfg.Slskd.Poll.InitialInterval,
			MaxInterval:     cfg.Slskd.Poll.MaxInterval,
			Multiplier:      cfg.Slskd.Poll.Multiplier,
			Timeout:         cfg.Slskd.Poll.Timeout,
		},
	})

	var resolver searching.AlbumResolver
	if cfg.MusicBrainz.Enabled {
		resolver = musicbrainz.NewClient(cfg.MusicBrainz.BaseURL, cfg.MusicBrainz.UserAgent, policy, a.stores.ExternalIDs)
	}

	a.jobs = jobs.NewService(&cfg.Jobs)
	a.searching = searching.NewService(cfgManager, a.slskd, a.stores.TrackLinks, resolver, a.recorder, a.jobs)
	a.jobs.RegisterHandler(searching.BatchJobType, jobs.NewBaseTaskHandler(searching.NewBatchSearchTask(a.searching)))
	return a, nil
}

// Close releases the cache handles.
func (a *app) Close() {
	if err := a.stores.Close(); err != nil {
		slog.Warn("Failed to close cache", "error", err)
	}
}

// retryPolicy overlays the configured retry settings on the defaults and
// counts every retry in recorder, which may be nil.
func retryPolicy(cfg config.Retry, recorder *metrics.Recorder) retry.Policy {
	p := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialDelay > 0 {
		p.InitialDelay = cfg.InitialDelay
	}
	if cfg.MaxDelay > 0 {
		p.MaxDelay = cfg.MaxDelay
	}
	if cfg.Multiplier >= 1 {
		p.Multiplier = cfg.Multiplier
	}
	p.OnRetry = recorder.Retry
	return p
}
