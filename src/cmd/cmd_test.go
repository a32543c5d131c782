package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/contre95/soulsearch/src/features/config"
	"github.com/contre95/soulsearch/src/features/searching"
	"github.com/contre95/soulsearch/src/music"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, _, err := run(t, "validate", "artist:match AND title:contains")
	require.NoError(t, err)
	assert.Contains(t, out, "valid")

	_, errOut, err := run(t, "validate", "artist:match BUT title:contains")
	var exit *exitError
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 1, exit.code)
	assert.NotEmpty(t, errOut)
}

func TestExtractCommand(t *testing.T) {
	out, _, err := run(t, "extract", `Music\Daft Punk\Discovery\01 - Daft Punk - One More Time.flac`)
	require.NoError(t, err)
	assert.Contains(t, out, "artist: Daft Punk")
	assert.Contains(t, out, "title:  One More Time")
}

func TestExtractCommandTagsFallBackToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Band - Song.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o644))

	out, _, err := run(t, "extract", "--tags", path)
	require.NoError(t, err)
	assert.Contains(t, out, "artist: Band")
	assert.Contains(t, out, "title:  Song")
}

func TestTrackFromFlags(t *testing.T) {
	cmd := cmdSearch()
	require.NoError(t, cmd.ParseFlags([]string{"-a", "Daft Punk", "-a", "Pharrell", "-t", "Get Lucky"}))
	track, err := trackFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"Daft Punk", "Pharrell"}, track.Artists)
	assert.Equal(t, "daft punk, pharrell - get lucky", track.ID)

	cmd = cmdSearch()
	require.NoError(t, cmd.ParseFlags([]string{"-a", " ", "-t", "Song", "--id", "x1"}))
	_, err = trackFromFlags(cmd)
	assert.Error(t, err)
}

func TestReadTracks(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"id":"1","title":"Song","artists":["Band"]}]`), 0o644))
	tracks, err := readTracks(good)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Band", tracks[0].PrimaryArtist())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id":"1","title":"","artists":["Band"]}]`), 0o644))
	_, err = readTracks(bad)
	assert.ErrorContains(t, err, "track 0")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`[]`), 0o644))
	_, err = readTracks(empty)
	assert.Error(t, err)
}

func TestRetryPolicy(t *testing.T) {
	p := retryPolicy(config.Retry{MaxAttempts: 5, InitialDelay: time.Second}, nil)
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, time.Second, p.InitialDelay)
	require.NotNil(t, p.OnRetry)
	// a nil recorder ignores retries
	p.OnRetry("submit", 1, time.Millisecond, errors.New("boom"))
}

func TestPrintResponse(t *testing.T) {
	resp := &music.SearchResponse{
		Track: music.Track{ID: "1", Title: "Song", Artists: []string{"Band"}},
		Queries: []music.SearchQuery{
			{Approach: "base", Artist: "Band", Title: "Song", Error: "offline"},
			{Approach: "trim", Artist: "Band", Title: "Song", Duplicate: true},
		},
		Result: []music.Candidate{
			{Username: "peer", Filename: `Music\Band - Song.flac`, Extension: "flac", BitDepth: 16, SampleRate: 44100},
		},
		Duration: 1500 * time.Millisecond,
	}
	var buf bytes.Buffer
	printResponse(&buf, resp, true)
	out := buf.String()
	assert.Contains(t, out, "Band - Song")
	assert.Contains(t, out, `[base] "Band Song": offline`)
	assert.Contains(t, out, "duplicate")
	assert.Contains(t, out, `[flac 16bit/44.1kHz] peer\Music\Band - Song.flac`)
	assert.Contains(t, out, "took 1.5s")

	buf.Reset()
	printResponse(&buf, &music.SearchResponse{Track: resp.Track, FromCache: true, CachedIDs: []string{"a"}}, false)
	assert.Contains(t, buf.String(), "cached: a")
}

func TestPrintBatch(t *testing.T) {
	track := music.Track{ID: "1", Title: "Song", Artists: []string{"Band"}}
	outcomes := []searching.BatchOutcome{
		{Track: track, Response: &music.SearchResponse{Result: []music.Candidate{{}}}},
		{Track: track, Error: "offline"},
		{},
	}
	var buf bytes.Buffer
	printBatch(&buf, outcomes, searching.BatchStats{Total: 3, Matched: 1, Failed: 1})
	out := buf.String()
	assert.Contains(t, out, "OK    Band - Song")
	assert.Contains(t, out, "FAIL  Band - Song: offline")
	assert.Contains(t, out, "3 tracks: 1 matched (0 cached), 0 unmatched, 1 failed")
}
