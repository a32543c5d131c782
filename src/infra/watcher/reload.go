package watcher

import (
	"context"
	"log/slog"

	"github.com/contre95/soulsearch/src/features/config"
)

// ReloadConfig applies every change of the config file to manager until ctx
// is done. A file that fails to parse or validate is logged and the running
// configuration stays in place. onReload, when set, is called after every
// successful reload.
func ReloadConfig(ctx context.Context, events <-chan FileEvent, manager *config.Manager, onReload func(*config.Config)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			if event.EventType == FileRemoved {
				slog.Warn("Config file removed, keeping current configuration", "path", event.Path)
				continue
			}
			cfg, err := config.ReadFile(event.Path)
			if err != nil {
				slog.Error("Ignoring invalid config change", "path", event.Path, "error", err)
				continue
			}
			manager.Update(cfg)
			slog.Info("Configuration reloaded", "path", event.Path)
			if onReload != nil {
				onReload(cfg)
			}
		}
	}
}
