package searching

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/contre95/soulsearch/src/music"
)

// AttemptFailure is one file that could not be queued.
type AttemptFailure struct {
	Candidate music.Candidate
	Err       error
}

// DownloadError lists every file that failed to queue.
type DownloadError struct {
	Failures []AttemptFailure
}

func (e *DownloadError) Error() string {
	reasons := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		reasons = append(reasons, fmt.Sprintf("%s: %v", f.Candidate.SourceID(), f.Err))
	}
	return fmt.Sprintf("all %d download attempts failed: %s", len(e.Failures), strings.Join(reasons, "; "))
}

func (e *DownloadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Download queues candidates in order and returns the first one accepted.
// Each enqueue is retried by the client.
func (s *Service) Download(ctx context.Context, candidates []music.Candidate) (*music.Candidate, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	var failures []AttemptFailure
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.client.Download(ctx, c); err != nil {
			slog.Warn("Download attempt failed", "user", c.Username, "file", c.Filename, "error", err)
			failures = append(failures, AttemptFailure{Candidate: c, Err: err})
			continue
		}
		s.metrics.Download("queued")
		slog.Info("Download queued", "user", c.Username, "file", c.Filename)
		downloaded := c
		return &downloaded, nil
	}
	s.metrics.Download("failed")
	return nil, &DownloadError{Failures: failures}
}
