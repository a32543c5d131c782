package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/contre95/soulsearch/src/music"
)

const appName = "soulsearch"

// cacheDir is where cache files live unless configured otherwise.
func cacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	dir := cacheDir()
	return &Config{
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Server: Server{
			PrintRoutes: false,
			Port:        3535,
		},
		Slskd: Slskd{
			URL:     "http://localhost:5030",
			APIKey:  "",
			Timeout: 30 * time.Second,
			Retry: Retry{
				MaxAttempts:  3,
				InitialDelay: 500 * time.Millisecond,
				MaxDelay:     10 * time.Second,
				Multiplier:   2,
			},
			Poll: Poll{
				InitialInterval: time.Second,
				MaxInterval:     5 * time.Second,
				Multiplier:      1.5,
				Timeout:         2 * time.Minute,
			},
		},
		Search: Search{
			Approaches: []music.SearchApproach{
				{ID: "default"},
				{ID: "trimmed", Trim: true, IgnoreQuotes: true},
				{ID: "filtered", Trim: true, IgnoreQuotes: true, Filtered: true},
			},
			TextProcessing: TextProcessing{
				FilteredWords:   []string{"remastered", "remaster", "radio edit", "explicit", "version"},
				RemoveFeaturing: true,
			},
			Filters: []string{
				"artist:match AND title:match",
				"artist:contains AND title:contains",
				"artistWithTitle:similarity>=0.8",
			},
			AllowedExtensions:     []string{"flac", "alac", "wav", "aiff", "ape", "m4a", "ogg", "opus", "mp3"},
			ExtensionPriority:     []string{"flac", "alac", "wav", "aiff", "ape", "m4a", "ogg", "opus", "mp3"},
			MaxResultsPerApproach: 10,
			SearchTimeout:         15 * time.Second,
			DownloadAttempts:      3,
			MinBitRate:            192,
			MinBitDepth:           0,
			ResolveAlbums:         false,
			Download:              false,
		},
		MusicBrainz: MusicBrainz{
			Enabled:   true,
			BaseURL:   "https://musicbrainz.org/ws/2",
			UserAgent: "soulsearch/1.0 (https://github.com/contre95/soulsearch)",
		},
		Cache: Cache{
			Driver:          "json",
			TrackLinksPath:  filepath.Join(dir, "track_links.json"),
			ExternalIDsPath: filepath.Join(dir, "external_ids.json"),
			SqlitePath:      filepath.Join(dir, "cache.db"),
		},
		Jobs: Jobs{
			Log:         true,
			LogPath:     "./logs/jobs",
			Concurrency: 2,
			Webhooks: WebhookConfig{
				Enabled:  false,
				JobTypes: []string{},
				Command:  "",
			},
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}

// Default returns a fresh copy of the default configuration.
func Default() *Config {
	return createDefaultConfig()
}
