package slskd

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/contre95/soulsearch/src/infra/retry"
	"github.com/contre95/soulsearch/src/music"
	"github.com/google/uuid"
)

// SearchOptions are the per-search knobs sent with a submission.
type SearchOptions struct {
	Timeout       time.Duration
	ResponseLimit int
	FileLimit     int
}

type searchRequest struct {
	ID             string `json:"id"`
	SearchText     string `json:"searchText"`
	SearchTimeout  int    `json:"searchTimeout,omitempty"`
	ResponseLimit  int    `json:"responseLimit,omitempty"`
	FileLimit      int    `json:"fileLimit,omitempty"`
	FilterResponse bool   `json:"filterResponses"`
}

type searchState struct {
	ID              string `json:"id"`
	State           string `json:"state"`
	IsComplete      bool   `json:"isComplete"`
	FileCount       int    `json:"fileCount"`
	LockedFileCount int    `json:"lockedFileCount"`
	ResponseCount   int    `json:"responseCount"`
}

type fileDTO struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	Extension  string `json:"extension"`
	BitRate    int    `json:"bitRate"`
	BitDepth   int    `json:"bitDepth"`
	SampleRate int    `json:"sampleRate"`
	Length     int    `json:"length"`
	IsLocked   bool   `json:"isLocked"`
}

type responseDTO struct {
	Username          string    `json:"username"`
	HasFreeUploadSlot bool      `json:"hasFreeUploadSlot"`
	QueueLength       int       `json:"queueLength"`
	UploadSpeed       int       `json:"uploadSpeed"`
	FileCount         int       `json:"fileCount"`
	LockedFileCount   int       `json:"lockedFileCount"`
	Files             []fileDTO `json:"files"`
	LockedFiles       []fileDTO `json:"lockedFiles"`
}

type downloadRequest struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Submit starts a search and returns its session id, chosen client side.
func (c *Client) Submit(ctx context.Context, text string, opts SearchOptions) (string, error) {
	id := uuid.New().String()
	req := searchRequest{
		ID:             id,
		SearchText:     text,
		SearchTimeout:  int(opts.Timeout / time.Millisecond),
		ResponseLimit:  opts.ResponseLimit,
		FileLimit:      opts.FileLimit,
		FilterResponse: true,
	}
	if err := c.do(ctx, "submit search", http.MethodPost, "/searches", req, nil); err != nil {
		return "", err
	}
	return id, nil
}

// Status fetches the current state of a search session.
func (c *Client) Status(ctx context.Context, id string) (music.SearchSession, error) {
	var st searchState
	if err := c.do(ctx, "search status", http.MethodGet, "/searches/"+escape(id), nil, &st); err != nil {
		return music.SearchSession{}, err
	}
	return music.SearchSession{
		ID:              id,
		State:           parseState(st.State, st.IsComplete),
		FileCount:       st.FileCount,
		LockedFileCount: st.LockedFileCount,
		ResponseCount:   st.ResponseCount,
	}, nil
}

// parseState maps slskd's flag style state ("Completed, TimedOut",
// "InProgress", ...) onto the session lifecycle.
func parseState(raw string, complete bool) music.SessionState {
	switch {
	case strings.Contains(raw, "Errored"):
		return music.SessionErrored
	case strings.Contains(raw, "Cancelled"):
		return music.SessionCancelled
	case complete || strings.Contains(raw, "Completed"):
		return music.SessionCompleted
	case strings.Contains(raw, "InProgress"):
		return music.SessionInProgress
	default:
		return music.SessionRequested
	}
}

// WaitForCompletion polls a search with a growing interval until it reaches a
// terminal state or the poll timeout passes.
func (c *Client) WaitForCompletion(ctx context.Context, id string) (music.SearchSession, error) {
	backoff := retry.Policy{
		InitialDelay: c.poll.InitialInterval,
		MaxDelay:     c.poll.MaxInterval,
		Multiplier:   c.poll.Multiplier,
	}
	deadline := time.Now().Add(c.poll.Timeout)
	for n := 1; ; n++ {
		session, err := c.Status(ctx, id)
		if err != nil {
			return session, err
		}
		switch session.State {
		case music.SessionErrored:
			return session, fmt.Errorf("search %s: %w", id, ErrSearchErrored)
		case music.SessionCancelled:
			return session, fmt.Errorf("search %s: %w", id, ErrSearchCancelled)
		case music.SessionCompleted:
			return session, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return session, fmt.Errorf("search %s after %s: %w", id, c.poll.Timeout, ErrPollTimeout)
		}
		wait := min(backoff.Delay(n), remaining)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return session, ctx.Err()
		case <-timer.C:
		}
	}
}

// Responses returns the peer responses of a search. Locked files are folded
// into Files with IsLocked set.
func (c *Client) Responses(ctx context.Context, id string) ([]music.PeerResponse, error) {
	var dtos []responseDTO
	if err := c.do(ctx, "search responses", http.MethodGet, "/searches/"+escape(id)+"/responses", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]music.PeerResponse, 0, len(dtos))
	for _, d := range dtos {
		peer := music.PeerResponse{
			Username:          d.Username,
			HasFreeUploadSlot: d.HasFreeUploadSlot,
			QueueLength:       d.QueueLength,
			UploadSpeed:       d.UploadSpeed,
			FileCount:         d.FileCount,
			LockedFileCount:   d.LockedFileCount,
		}
		for _, f := range d.Files {
			peer.Files = append(peer.Files, toCandidate(d, f, f.IsLocked))
		}
		for _, f := range d.LockedFiles {
			peer.Files = append(peer.Files, toCandidate(d, f, true))
		}
		out = append(out, peer)
	}
	return out, nil
}

func toCandidate(peer responseDTO, f fileDTO, locked bool) music.Candidate {
	ext := strings.TrimPrefix(strings.ToLower(f.Extension), ".")
	if ext == "" {
		ext = strings.TrimPrefix(strings.ToLower(path.Ext(strings.ReplaceAll(f.Filename, "\\", "/"))), ".")
	}
	return music.Candidate{
		Username:          peer.Username,
		Filename:          f.Filename,
		Size:              f.Size,
		Extension:         ext,
		BitRate:           f.BitRate,
		BitDepth:          f.BitDepth,
		SampleRate:        f.SampleRate,
		Length:            f.Length,
		IsLocked:          locked,
		HasFreeUploadSlot: peer.HasFreeUploadSlot,
		QueueLength:       peer.QueueLength,
		UploadSpeed:       peer.UploadSpeed,
	}
}

// Cancel stops a search and removes it from slskd. Failures are logged and
// returned, callers treat them as best effort.
func (c *Client) Cancel(ctx context.Context, id string) error {
	err := c.do(ctx, "cancel search", http.MethodDelete, "/searches/"+escape(id), nil, nil)
	if err != nil {
		logCancelFailure(id, err)
	}
	return err
}

// Download queues a file from a peer.
func (c *Client) Download(ctx context.Context, file music.Candidate) error {
	body := []downloadRequest{{Filename: file.Filename, Size: file.Size}}
	return c.do(ctx, "queue download", http.MethodPost, "/transfers/downloads/"+escape(file.Username), body, nil)
}
