package searching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contre95/soulsearch/src/features/config"
	"github.com/contre95/soulsearch/src/features/jobs"
	"github.com/contre95/soulsearch/src/features/matching"
	"github.com/contre95/soulsearch/src/features/metrics"
	"github.com/contre95/soulsearch/src/features/pathmeta"
	"github.com/contre95/soulsearch/src/infra/slskd"
	"github.com/contre95/soulsearch/src/music"
)

const (
	modeSearch  = "search"
	modeAnalyze = "analyze"

	cancelTimeout = 10 * time.Second
)

// ErrServiceUnavailable is returned when every query of a track failed, which
// means the search service itself could not be used.
var ErrServiceUnavailable = errors.New("search service unavailable")

// ErrCacheWrite wraps failures to persist a match.
var ErrCacheWrite = errors.New("failed to write track cache")

// Service is the multi-approach search orchestrator.
type Service struct {
	config     *config.Manager
	client     SearchClient
	cache      Cache
	resolver   AlbumResolver
	metrics    *metrics.Recorder
	jobService jobs.JobService
}

// NewService creates a new searching service. cache, resolver, recorder and
// jobService may be nil.
func NewService(cfg *config.Manager, client SearchClient, cache Cache, resolver AlbumResolver, recorder *metrics.Recorder, jobService jobs.JobService) *Service {
	return &Service{
		config:     cfg,
		client:     client,
		cache:      cache,
		resolver:   resolver,
		metrics:    recorder,
		jobService: jobService,
	}
}

// run holds the per-track state of one orchestrator invocation.
type run struct {
	track    music.Track
	cfg      config.Search
	filters  matching.FilterSet
	seen     map[string]bool
	queries  []music.SearchQuery
	executed int
	failed   int
	lastErr  error
}

// Search tries the configured approaches in order and stops at the first one
// that yields an acceptable result. A cached match short-circuits the search
// unless an approach is forced. The result is written to the cache and, when
// downloads are enabled, the best file is queued. The response is returned
// alongside a download error so callers still see what was found.
func (s *Service) Search(ctx context.Context, track music.Track) (*music.SearchResponse, error) {
	return s.search(ctx, track, false)
}

// Analyze runs every approach and artist variant regardless of earlier
// matches. The first non-empty result stays authoritative; every accepted
// candidate is returned in Analyzed. It neither reads nor writes the cache.
func (s *Service) Analyze(ctx context.Context, track music.Track) (*music.SearchResponse, error) {
	return s.search(ctx, track, true)
}

func (s *Service) search(ctx context.Context, track music.Track, exhaustive bool) (*music.SearchResponse, error) {
	start := time.Now()
	mode := modeSearch
	if exhaustive {
		mode = modeAnalyze
	}
	if err := track.Validate(); err != nil {
		return nil, fmt.Errorf("invalid track: %w", err)
	}
	cfg := s.config.Get().Search
	filters, err := matching.CompileAll(cfg.Filters)
	if err != nil {
		return nil, fmt.Errorf("invalid search filters: %w", err)
	}

	resp := &music.SearchResponse{Track: track, Queries: []music.SearchQuery{}, Result: []music.Candidate{}}
	if !exhaustive && s.cache != nil && !anyForced(cfg.Approaches) {
		entry, err := s.cache.Get(ctx, track.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read track cache: %w", err)
		}
		if entry != nil && len(entry.MappedIDs) > 0 {
			s.metrics.CacheLookup("hit")
			slog.Debug("Track found in cache", "trackID", track.ID, "ids", len(entry.MappedIDs))
			resp.FromCache = true
			resp.CachedIDs = entry.MappedIDs
			resp.Duration = time.Since(start)
			s.metrics.SearchFinished(mode, "cached", resp.Duration)
			return resp, nil
		}
		s.metrics.CacheLookup("miss")
	}

	track = s.resolveAlbum(ctx, cfg, track)
	resp.Track = track

	r := &run{track: track, cfg: cfg, filters: filters, seen: map[string]bool{}}
loop:
	for _, approach := range cfg.Approaches {
		for _, artist := range track.ArtistVariants() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			result := s.attempt(ctx, r, buildQuery(approach, cfg.TextProcessing, artist, track))
			if len(result) == 0 {
				continue
			}
			if len(resp.Result) == 0 {
				resp.Result = result
			}
			if !exhaustive {
				break loop
			}
			resp.Analyzed = append(resp.Analyzed, result...)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp.Queries = r.queries
	resp.Duration = time.Since(start)

	if len(resp.Result) == 0 {
		if r.executed > 0 && r.failed == r.executed {
			s.metrics.SearchFinished(mode, "failed", resp.Duration)
			return resp, fmt.Errorf("%w: %w", ErrServiceUnavailable, r.lastErr)
		}
		slog.Info("No match found", "track", track.String(), "queries", len(resp.Queries))
		s.metrics.SearchFinished(mode, "empty", resp.Duration)
		return resp, nil
	}

	slog.Info("Match found", "track", track.String(), "file", resp.Result[0].Filename, "user", resp.Result[0].Username)
	s.metrics.SearchFinished(mode, "found", resp.Duration)
	if exhaustive {
		return resp, nil
	}
	if err := s.remember(ctx, track, resp.Result); err != nil {
		return resp, err
	}
	if cfg.Download {
		downloaded, err := s.Download(ctx, resp.Result)
		if err != nil {
			return resp, err
		}
		resp.Downloaded = downloaded
	}
	return resp, nil
}

func (s *Service) resolveAlbum(ctx context.Context, cfg config.Search, track music.Track) music.Track {
	if !cfg.ResolveAlbums || track.Album != "" || s.resolver == nil {
		return track
	}
	album, mbid, err := s.resolver.ResolveAlbum(ctx, track)
	if err != nil {
		slog.Warn("Album resolution failed", "track", track.String(), "error", err)
		return track
	}
	if album == "" {
		return track
	}
	slog.Debug("Resolved album", "track", track.String(), "album", album, "mbid", mbid)
	return track.WithAlbum(album)
}

// attempt runs one query and, when it comes back empty, its ampersand variant.
func (s *Service) attempt(ctx context.Context, r *run, q music.SearchQuery) []music.Candidate {
	result, err := s.tryQuery(ctx, r, q)
	if len(result) > 0 || err != nil || ctx.Err() != nil {
		return result
	}
	if alt, ok := ampersandVariant(q); ok {
		result, _ = s.tryQuery(ctx, r, alt)
	}
	return result
}

// tryQuery executes q unless an identical query already ran for this track.
// Errors are recorded on the query and logged, never propagated.
func (s *Service) tryQuery(ctx context.Context, r *run, q music.SearchQuery) ([]music.Candidate, error) {
	if r.seen[q.Signature] {
		q.Duplicate = true
		r.queries = append(r.queries, q)
		s.metrics.Query("duplicate")
		slog.Debug("Skipping duplicate query", "approach", q.Approach, "query", q.Text())
		return nil, nil
	}
	r.seen[q.Signature] = true
	r.executed++

	result, err := s.execute(ctx, r, q)
	if err != nil {
		r.failed++
		r.lastErr = err
		q.Error = err.Error()
		r.queries = append(r.queries, q)
		s.metrics.Query("error")
		slog.Warn("Search attempt failed", "approach", q.Approach, "artist", q.Artist, "query", q.Text(), "error", err)
		return nil, err
	}
	q.Result = result
	r.queries = append(r.queries, q)
	if len(result) == 0 {
		s.metrics.Query("empty")
		slog.Debug("Search attempt returned nothing", "approach", q.Approach, "query", q.Text())
	} else {
		s.metrics.Query("matched")
		slog.Debug("Search attempt matched", "approach", q.Approach, "query", q.Text(), "candidates", len(result))
	}
	return result, nil
}

// execute submits q, waits for it, and turns the responses into ranked,
// accepted candidates. The remote session is always cancelled, even when ctx
// is already done.
func (s *Service) execute(ctx context.Context, r *run, q music.SearchQuery) ([]music.Candidate, error) {
	id, err := s.client.Submit(ctx, q.Text(), slskd.SearchOptions{Timeout: r.cfg.SearchTimeout})
	if err != nil {
		return nil, err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
		defer cancel()
		if err := s.client.Cancel(cctx, id); err != nil {
			slog.Warn("Failed to cancel search", "searchID", id, "error", err)
		}
	}()

	if _, err := s.client.WaitForCompletion(ctx, id); err != nil {
		if !errors.Is(err, slskd.ErrPollTimeout) {
			return nil, err
		}
		slog.Warn("Search did not complete in time, using partial responses", "searchID", id)
	}
	responses, err := s.client.Responses(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.evaluate(q, responses), nil
}

// evaluate runs the collection, matching and quality stages over the
// responses of one query.
func (r *run) evaluate(q music.SearchQuery, responses []music.PeerResponse) []music.Candidate {
	files, err := Collect(q, responses, r.cfg.AllowedExtensions)
	if err != nil {
		return nil
	}
	var accepted []music.Candidate
	for _, f := range files {
		meta := extractMetadata(f.Filename)
		match := matching.MatchCandidate(q.Artist, q.Title, q.Album, meta)
		if !r.filters.Accepts(match) {
			continue
		}
		f.Metadata = &meta
		f.Matching = &match
		accepted = append(accepted, f)
	}
	best, err := FilterByQuality(accepted, r.cfg.ExtensionPriority, r.cfg.MinBitRate, r.cfg.MinBitDepth, r.cfg.DownloadAttempts)
	if err != nil {
		return nil
	}
	if limit := r.cfg.MaxResultsPerApproach; limit > 0 && len(best) > limit {
		best = best[:limit]
	}
	return Rank(best)
}

func extractMetadata(filename string) music.ExtractedMetadata {
	res := pathmeta.Extract(filename)
	if res.Success && res.Metadata != nil {
		return *res.Metadata
	}
	return pathmeta.Fallback(filename)
}

// remember writes the matched files to the track cache.
func (s *Service) remember(ctx context.Context, track music.Track, result []music.Candidate) error {
	if s.cache == nil {
		return nil
	}
	ids := make([]string, 0, len(result))
	for _, c := range result {
		ids = append(ids, c.SourceID())
	}
	if err := s.cache.Add(ctx, music.CacheEntry{Key: track.ID, MappedIDs: ids}); err != nil {
		slog.Error("Failed to write track cache", "trackID", track.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}
	return nil
}

// CachedLinks returns the cached match of a track, or nil.
func (s *Service) CachedLinks(ctx context.Context, trackID string) (*music.CacheEntry, error) {
	if s.cache == nil {
		return nil, nil
	}
	return s.cache.Get(ctx, trackID)
}
