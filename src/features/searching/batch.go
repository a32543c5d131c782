package searching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/contre95/soulsearch/src/features/jobs"
	"github.com/contre95/soulsearch/src/music"
	"golang.org/x/sync/errgroup"
)

// BatchJobType is the job type batch searches run under.
const BatchJobType = "batch_search"

// BatchStats summarizes a batch search.
type BatchStats struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Cached    int `json:"cached"`
	Unmatched int `json:"unmatched"`
	Failed    int `json:"failed"`
}

// BatchOutcome is the result of one track in a batch.
type BatchOutcome struct {
	Track    music.Track           `json:"track"`
	Response *music.SearchResponse `json:"response,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// StartBatch starts a job searching every track.
func (s *Service) StartBatch(tracks []music.Track) (string, error) {
	if s.jobService == nil {
		return "", errors.New("job service not configured")
	}
	if len(tracks) == 0 {
		return "", errors.New("no tracks to search")
	}
	slog.Debug("StartBatch service called", "tracks", len(tracks))
	return s.jobService.StartJob(BatchJobType, fmt.Sprintf("Search %d tracks", len(tracks)), map[string]any{
		"tracks": tracks,
	})
}

// SearchBatch searches tracks with at most concurrency searches in flight.
// Attempts within one track stay sequential. The batch stops early only when
// the search service is unreachable or the cache cannot be written.
func (s *Service) SearchBatch(ctx context.Context, tracks []music.Track, concurrency int, progress func(done, total int)) ([]BatchOutcome, BatchStats, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	outcomes := make([]BatchOutcome, len(tracks))
	stats := BatchStats{Total: len(tracks)}
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, track := range tracks {
		if gctx.Err() != nil {
			break
		}
		i, track := i, track
		g.Go(func() error {
			resp, err := s.Search(gctx, track)
			mu.Lock()
			defer mu.Unlock()
			outcomes[i] = BatchOutcome{Track: track, Response: resp}
			switch {
			case err != nil:
				stats.Failed++
				outcomes[i].Error = err.Error()
			case resp.FromCache:
				stats.Cached++
			case resp.Found():
				stats.Matched++
			default:
				stats.Unmatched++
			}
			done++
			if progress != nil {
				progress(done, len(tracks))
			}
			if err != nil && fatalForBatch(err) {
				return fmt.Errorf("track %s: %w", track.ID, err)
			}
			if err != nil {
				slog.Warn("Track search failed", "trackID", track.ID, "error", err)
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return outcomes, stats, err
}

func fatalForBatch(err error) bool {
	var dlErr *DownloadError
	if errors.As(err, &dlErr) {
		return false
	}
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrCacheWrite) || errors.Is(err, context.Canceled)
}

// BatchSearchTask implements jobs.Task for batch searches.
type BatchSearchTask struct {
	service *Service
}

// NewBatchSearchTask creates a new BatchSearchTask.
func NewBatchSearchTask(service *Service) *BatchSearchTask {
	return &BatchSearchTask{service: service}
}

// MetadataKeys returns the required metadata keys for a batch search job.
func (t *BatchSearchTask) MetadataKeys() []string {
	return []string{"tracks"}
}

// Execute runs the batch search.
func (t *BatchSearchTask) Execute(ctx context.Context, job *jobs.Job, progressUpdater func(int, string)) (map[string]any, error) {
	tracks, ok := job.Metadata["tracks"].([]music.Track)
	if !ok {
		return nil, fmt.Errorf("tracks metadata has type %T", job.Metadata["tracks"])
	}
	concurrency := t.service.config.Get().Jobs.Concurrency
	outcomes, stats, err := t.service.SearchBatch(ctx, tracks, concurrency, func(done, total int) {
		progressUpdater(done*100/total, fmt.Sprintf("Searched %d/%d tracks", done, total))
	})
	for _, o := range outcomes {
		switch {
		case o.Error != "":
			job.Logger.Warn("Track failed", "track", o.Track.String(), "error", o.Error)
		case o.Response != nil && o.Response.Found():
			job.Logger.Info("Track matched", "track", o.Track.String(), "cached", o.Response.FromCache)
		case o.Response != nil:
			job.Logger.Info("Track not found", "track", o.Track.String(), "queries", len(o.Response.Queries))
		}
	}
	msg := fmt.Sprintf("Batch search finished. %d tracks (%d matched, %d cached, %d unmatched, %d failed).",
		stats.Total, stats.Matched, stats.Cached, stats.Unmatched, stats.Failed)
	job.Logger.Info(msg)
	return map[string]any{"stats": stats, "outcomes": outcomes, "msg": msg}, err
}

// Cleanup does nothing for batch searches.
func (t *BatchSearchTask) Cleanup(job *jobs.Job) error {
	return nil
}
