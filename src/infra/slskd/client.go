// Package slskd talks to the slskd HTTP API: search submission, polling,
// result retrieval, cancellation and download queueing.
package slskd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/contre95/soulsearch/src/infra/retry"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const apiPrefix = "/api/v0"

var (
	ErrSearchErrored   = errors.New("search ended in an errored state")
	ErrSearchCancelled = errors.New("search was cancelled remotely")
	ErrPollTimeout     = errors.New("timed out waiting for search to complete")
)

// StatusError is returned when slskd answers with a non-2xx status.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: slskd returned status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: slskd returned status %d: %s", e.Op, e.Code, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusRequestTimeout || e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// IsRetryable classifies transient failures: HTTP 408, 429 and 5xx,
// network timeouts, connection resets and truncated responses.
func IsRetryable(err error) bool {
	return retry.Transient(err)
}

// PollPolicy bounds the wait for a search to finish.
type PollPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Timeout         time.Duration
}

// Options configures a Client.
type Options struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	Retry   retry.Policy
	Poll    PollPolicy
}

// Client is a slskd API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   retry.Policy
	poll    PollPolicy
}

// NewClient creates a new slskd client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	poll := opts.Poll
	if poll.InitialInterval <= 0 {
		poll.InitialInterval = time.Second
	}
	if poll.MaxInterval <= 0 {
		poll.MaxInterval = 5 * time.Second
	}
	if poll.Timeout <= 0 {
		poll.Timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(opts.URL, "/") + apiPrefix,
		apiKey:  opts.APIKey,
		http:    &http.Client{Timeout: timeout},
		retry:   opts.Retry,
		poll:    poll,
	}
}

// do runs one API call under the retry policy. body is JSON encoded when not
// nil and out is decoded from a 2xx response when not nil.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
	}
	_, err := retry.Do(ctx, op, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.once(ctx, op, method, path, payload, out)
	}, IsRetryable)
	return err
}

func (c *Client) once(ctx context.Context, op, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// Ping checks that slskd is reachable and the API key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "application", http.MethodGet, "/application", nil, nil)
}

func escape(s string) string {
	return url.PathEscape(s)
}

func logCancelFailure(id string, err error) {
	slog.Warn("Failed to cancel search", "searchID", id, "error", err)
}
