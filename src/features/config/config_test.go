package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
slskd:
  url: http://slskd.local:5030
  api_key: abc
  poll:
    timeout: 45s
search:
  approaches:
    - id: plain
    - id: cleaned
      trim: true
      filtered: true
  filters:
    - "artist:match AND title:contains"
  allowed_extensions: [flac, mp3]
  extension_priority: [flac, mp3]
  download_attempts: 2
  min_bitrate: 256
cache:
  driver: sqlite
`

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "http://slskd.local:5030", cfg.Slskd.URL)
	assert.Equal(t, 45*time.Second, cfg.Slskd.Poll.Timeout)
	assert.Equal(t, time.Second, cfg.Slskd.Poll.InitialInterval, "unset values keep their default")
	require.Len(t, cfg.Search.Approaches, 2)
	assert.Equal(t, "cleaned", cfg.Search.Approaches[1].ID)
	assert.True(t, cfg.Search.Approaches[1].Filtered)
	assert.Equal(t, []string{"artist:match AND title:contains"}, cfg.Search.Filters)
	assert.Equal(t, 256, cfg.Search.MinBitRate)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, 3535, int(cfg.Server.Port))
}

func TestParse_RejectsInvalidFilter(t *testing.T) {
	data := strings.Replace(sampleYAML, `"artist:match AND title:contains"`, `"artist:match BUT title:contains"`, 1)
	_, err := Parse([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filterexpr")
}

func TestParse_RejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"duplicate approach": strings.Replace(sampleYAML, "id: cleaned", "id: plain", 1),
		"unknown driver":     strings.Replace(sampleYAML, "driver: sqlite", "driver: redis", 1),
		"zero attempts":      strings.Replace(sampleYAML, "download_attempts: 2", "download_attempts: 0", 1),
		"unknown key":        sampleYAML + "bogus: true\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("SLSKD_URL", "http://override:5030")
	t.Setenv("SLSKD_API_KEY", "from-env")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "http://override:5030", cfg.Slskd.URL)
	assert.Equal(t, "from-env", cfg.Slskd.APIKey)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Cache.TrackLinksPath = filepath.Join(dir, "cache", "links.json")
	cfg.Cache.ExternalIDsPath = filepath.Join(dir, "cache", "ids.json")
	cfg.Jobs.LogPath = filepath.Join(dir, "logs")
	require.NoError(t, saveDefaultConfig(path, cfg))

	manager, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Cache.TrackLinksPath, manager.Get().Cache.TrackLinksPath)
	assert.DirExists(t, filepath.Join(dir, "cache"))
	assert.DirExists(t, filepath.Join(dir, "logs"))

	missing := filepath.Join(dir, "fresh.yaml")
	_, err = os.Stat(missing)
	require.True(t, os.IsNotExist(err))
	_, err = ReadFile(missing)
	assert.Error(t, err)
}

func TestManager_RedactsAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Slskd.APIKey = "super-secret"
	m := NewManager(cfg)

	assert.NotContains(t, m.GetJSON(), "super-secret")
	assert.NotContains(t, m.GetYAML(), "super-secret")
	assert.Equal(t, "super-secret", m.Get().Slskd.APIKey, "redaction must not touch the live config")
}

func TestLoadEnv_MissingFileIsIgnored(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "nope.env")))

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SOULSEARCH_TEST_VALUE=42\n"), 0644))
	t.Setenv("SOULSEARCH_TEST_VALUE", "")
	os.Unsetenv("SOULSEARCH_TEST_VALUE")
	require.NoError(t, LoadEnv(envFile))
	assert.Equal(t, "42", os.Getenv("SOULSEARCH_TEST_VALUE"))
}
