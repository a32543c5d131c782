package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// Manager holds the application configuration and provides thread-safe access to it.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a new ConfigManager.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Update updates the configuration.
func (m *Manager) Update(config *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldConfig := m.config
	m.config = config

	if oldConfig != nil {
		slog.Debug("Configuration updated",
			"slskd_url_changed", oldConfig.Slskd.URL != config.Slskd.URL,
			"approaches_changed", !slices.Equal(oldConfig.Search.Approaches, config.Search.Approaches),
			"filters_changed", !slices.Equal(oldConfig.Search.Filters, config.Search.Filters),
			"cache_driver_changed", oldConfig.Cache.Driver != config.Cache.Driver,
			"logger_level_changed", oldConfig.Logger.Level != config.Logger.Level,
		)
	}
}

// EnsureDirectories creates the cache and job log directories if they don't exist.
func (m *Manager) EnsureDirectories() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	dirs := []string{}
	switch cfg.Cache.Driver {
	case "sqlite":
		dirs = append(dirs, filepath.Dir(cfg.Cache.SqlitePath))
	default:
		dirs = append(dirs, filepath.Dir(cfg.Cache.TrackLinksPath), filepath.Dir(cfg.Cache.ExternalIDsPath))
	}
	if cfg.Jobs.Log && cfg.Jobs.LogPath != "" {
		dirs = append(dirs, cfg.Jobs.LogPath)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	slog.Debug("Required directories created/verified", "dirs", dirs)
	return nil
}

// redactedCfg gets a redacted copy of the Config
func (m *Manager) redactedCfg() Config {
	var cfgCpy = *m.config
	if cfgCpy.Slskd.APIKey != "" {
		cfgCpy.Slskd.APIKey = "<redacted>"
	}
	return cfgCpy
}

// GetJSON returns the current configuration as a JSON string.
func (m *Manager) GetJSON() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jsonBytes, err := json.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to JSON", "error", err)
		return err.Error()
	}
	return string(jsonBytes)
}

func (m *Manager) GetYAML() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	yamlBytes, err := yaml.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to YAML", "error", err)
		return err.Error()
	}
	return string(yamlBytes)
}
