package config

import (
	"time"

	"github.com/contre95/soulsearch/src/music"
)

// Config holds the application configuration.
type Config struct {
	Logger      Logger      `yaml:"logger" json:"logger"`
	Server      Server      `yaml:"server" json:"server"`
	Slskd       Slskd       `yaml:"slskd" json:"slskd"`
	Search      Search      `yaml:"search" json:"search"`
	MusicBrainz MusicBrainz `yaml:"musicbrainz" json:"musicbrainz"`
	Cache       Cache       `yaml:"cache" json:"cache"`
	Jobs        Jobs        `yaml:"jobs" json:"jobs"`
	Metrics     Metrics     `yaml:"metrics" json:"metrics"`
}

type Jobs struct {
	Log         bool          `yaml:"log" json:"log"`
	LogPath     string        `yaml:"log_path" json:"log_path"`
	Concurrency int           `yaml:"concurrency" json:"concurrency" validate:"gte=0"`
	Webhooks    WebhookConfig `yaml:"webhooks" json:"webhooks"`
}

type WebhookConfig struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	JobTypes []string `yaml:"job_types" json:"job_types"`
	Command  string   `yaml:"command" json:"command"`
}

// Server hold the configuration for the Fiber server Config
type Server struct {
	PrintRoutes bool   `yaml:"show_routes" json:"show_routes"`
	Port        uint32 `yaml:"port" json:"port"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Level   string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" json:"format" validate:"omitempty,oneof=text json logfmt"`
}

// Slskd holds the connection settings for the slskd instance used to search.
type Slskd struct {
	URL     string        `yaml:"url" json:"url" validate:"required,url"`
	APIKey  string        `yaml:"api_key" json:"api_key"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	Retry   Retry         `yaml:"retry" json:"retry"`
	Poll    Poll          `yaml:"poll" json:"poll"`
}

// Retry is the backoff policy for every slskd and MusicBrainz call.
type Retry struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts" validate:"gte=1"`
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier" validate:"gte=1"`
}

// Poll bounds how long and how often a running search is polled.
type Poll struct {
	InitialInterval time.Duration `yaml:"initial_interval" json:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval" json:"max_interval"`
	Multiplier      float64       `yaml:"multiplier" json:"multiplier" validate:"gte=1"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
}

// Search holds the matching and orchestration settings.
type Search struct {
	Approaches            []music.SearchApproach `yaml:"approaches" json:"approaches" validate:"required,min=1,unique=ID,dive"`
	TextProcessing        TextProcessing         `yaml:"text_processing" json:"text_processing"`
	Filters               []string               `yaml:"filters" json:"filters" validate:"dive,filterexpr"`
	AllowedExtensions     []string               `yaml:"allowed_extensions" json:"allowed_extensions" validate:"required,min=1"`
	ExtensionPriority     []string               `yaml:"extension_priority" json:"extension_priority" validate:"required,min=1"`
	MaxResultsPerApproach int                    `yaml:"max_results_per_approach" json:"max_results_per_approach" validate:"gte=0"`
	SearchTimeout         time.Duration          `yaml:"search_timeout" json:"search_timeout"`
	DownloadAttempts      int                    `yaml:"download_attempts" json:"download_attempts" validate:"gte=1"`
	MinBitRate            int                    `yaml:"min_bitrate" json:"min_bitrate" validate:"gte=0"`
	MinBitDepth           int                    `yaml:"min_bitdepth" json:"min_bitdepth" validate:"gte=0"`
	ResolveAlbums         bool                   `yaml:"resolve_albums" json:"resolve_albums"`
	Download              bool                   `yaml:"download" json:"download"`
}

// TextProcessing configures the approach text cleanup.
type TextProcessing struct {
	FilteredWords   []string `yaml:"filtered_words" json:"filtered_words"`
	RemoveFeaturing bool     `yaml:"remove_featuring" json:"remove_featuring"`
}

// MusicBrainz configures album resolution.
type MusicBrainz struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	BaseURL   string `yaml:"base_url" json:"base_url" validate:"omitempty,url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// Cache selects where match results are persisted.
type Cache struct {
	Driver          string `yaml:"driver" json:"driver" validate:"oneof=json sqlite"`
	TrackLinksPath  string `yaml:"track_links_path" json:"track_links_path"`
	ExternalIDsPath string `yaml:"external_ids_path" json:"external_ids_path"`
	SqlitePath      string `yaml:"sqlite_path" json:"sqlite_path"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}
