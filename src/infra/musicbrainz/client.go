// Package musicbrainz resolves missing album names through the MusicBrainz
// recording search.
package musicbrainz

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/contre95/soulsearch/src/features/matching"
	"github.com/contre95/soulsearch/src/infra/retry"
	"github.com/contre95/soulsearch/src/music"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultBaseURL   = "https://musicbrainz.org/ws/2"
	DefaultUserAgent = "soulsearch/1.0 (https://github.com/contre95/soulsearch)"
	minScore         = 80
	minTitleSim      = 0.8
	metaAlbum        = "album"
)

// Cache is the external-id store the client reads before and writes after a
// lookup.
type Cache interface {
	Get(ctx context.Context, key string) (*music.CacheEntry, error)
	Add(ctx context.Context, entry music.CacheEntry) error
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("musicbrainz returned status %d", e.code)
}

// MusicBrainz answers 503 when the rate limit is exceeded.
func (e *statusError) Retryable() bool {
	return e.code == http.StatusServiceUnavailable || e.code == http.StatusTooManyRequests || e.code >= 500
}

type searchResponse struct {
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID           string `json:"id"`
	Score        int    `json:"score"`
	Title        string `json:"title"`
	ArtistCredit []struct {
		Name   string `json:"name"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"artist-credit"`
	Releases []struct {
		ID           string `json:"id"`
		Title        string `json:"title"`
		Status       string `json:"status"`
		ReleaseGroup struct {
			PrimaryType string `json:"primary-type"`
		} `json:"release-group"`
	} `json:"releases"`
}

// Client looks up recordings. Every HTTP request, retries included, waits on a
// one request per second limiter.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	retry     retry.Policy
	cache     Cache
}

// NewClient creates a MusicBrainz client. cache may be nil.
func NewClient(baseURL, userAgent string, policy retry.Policy, cache Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		retry:     policy,
		cache:     cache,
	}
}

// ResolveAlbum returns the album of the best recording for track and the
// recording MBID. Both are empty when nothing acceptable was found.
func (c *Client) ResolveAlbum(ctx context.Context, track music.Track) (string, string, error) {
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, track.ID)
		if err != nil {
			return "", "", fmt.Errorf("reading external id cache: %w", err)
		}
		if entry != nil && entry.Meta[metaAlbum] != "" {
			return entry.Meta[metaAlbum], firstID(entry.MappedIDs), nil
		}
	}

	recs, err := c.searchRecordings(ctx, track.PrimaryArtist(), track.Title)
	if err != nil {
		return "", "", err
	}
	mbid, album := pickRecording(recs, track)
	if album == "" {
		slog.Debug("No MusicBrainz album found", "track", track.String())
		return "", "", nil
	}

	if c.cache != nil {
		entry := music.CacheEntry{Key: track.ID, MappedIDs: []string{mbid}, Meta: map[string]string{metaAlbum: album}}
		if err := c.cache.Add(ctx, entry); err != nil {
			return "", "", fmt.Errorf("writing external id cache: %w", err)
		}
	}
	return album, mbid, nil
}

func (c *Client) searchRecordings(ctx context.Context, artist, title string) ([]recording, error) {
	query := fmt.Sprintf(`artist:"%s" AND recording:"%s"`, luceneEscape(artist), luceneEscape(matching.RemoveFeaturing(title)))
	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", "10")
	searchURL := c.baseURL + "/recording?" + params.Encode()

	return retry.Do(ctx, "musicbrainz search", c.retry, func(ctx context.Context) ([]recording, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to query MusicBrainz: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return nil, &statusError{code: resp.StatusCode}
		}
		var res searchResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, fmt.Errorf("failed to parse MusicBrainz response: %w", err)
		}
		return res.Recordings, nil
	}, retry.Transient)
}

// pickRecording returns the first recording with a high enough score, a
// matching title and the track artist in its credits, along with its album.
func pickRecording(recs []recording, track music.Track) (string, string) {
	want := matching.Normalize(matching.RemoveFeaturing(track.Title))
	for _, rec := range recs {
		if rec.Score < minScore || len(rec.Releases) == 0 {
			continue
		}
		got := matching.Normalize(matching.RemoveFeaturing(rec.Title))
		if got != want && matching.Similarity(got, want) < minTitleSim {
			continue
		}
		if !creditsArtist(rec, track.Artists) {
			continue
		}
		return rec.ID, releaseTitle(rec)
	}
	return "", ""
}

func creditsArtist(rec recording, artists []string) bool {
	for _, credit := range rec.ArtistCredit {
		for _, name := range []string{credit.Name, credit.Artist.Name} {
			for _, a := range artists {
				if m := matching.Compare(name, a, true); m.Match || m.Contains {
					return true
				}
			}
		}
	}
	return false
}

// releaseTitle prefers an official album over singles and compilations.
func releaseTitle(rec recording) string {
	for _, r := range rec.Releases {
		if r.Status == "Official" && r.ReleaseGroup.PrimaryType == "Album" {
			return r.Title
		}
	}
	for _, r := range rec.Releases {
		if r.ReleaseGroup.PrimaryType == "Album" {
			return r.Title
		}
	}
	return rec.Releases[0].Title
}

func luceneEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func firstID(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
