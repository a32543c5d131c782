package hosting

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contre95/soulsearch/src/features/config"
	"github.com/contre95/soulsearch/src/features/jobs"
	"github.com/contre95/soulsearch/src/features/metrics"
	"github.com/contre95/soulsearch/src/features/searching"
	"github.com/contre95/soulsearch/src/infra/slskd"
	"github.com/contre95/soulsearch/src/music"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type offlineClient struct{}

var errOffline = errors.New("offline")

func (offlineClient) Submit(context.Context, string, slskd.SearchOptions) (string, error) {
	return "", errOffline
}
func (offlineClient) WaitForCompletion(context.Context, string) (music.SearchSession, error) {
	return music.SearchSession{}, errOffline
}
func (offlineClient) Responses(context.Context, string) ([]music.PeerResponse, error) {
	return nil, errOffline
}
func (offlineClient) Cancel(context.Context, string) error            { return nil }
func (offlineClient) Download(context.Context, music.Candidate) error { return errOffline }

func newTestServer(t *testing.T, withMetrics bool) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Slskd.APIKey = "secret-key"
	manager := config.NewManager(cfg)
	jobService := jobs.NewService(&cfg.Jobs)

	var recorder *metrics.Recorder
	var metricsHandler *metrics.Handler
	if withMetrics {
		reg := prometheus.NewRegistry()
		recorder = metrics.NewRecorder(reg)
		metricsHandler = metrics.NewHandler(metrics.NewService(reg), reg)
	}
	svc := searching.NewService(manager, offlineClient{}, nil, nil, recorder, jobService)
	return NewServer(manager, searching.NewHandler(svc, nil), jobService, metricsHandler)
}

func get(t *testing.T, s *Server, path string) (int, string) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t, true)

	code, body := get(t, s, "/health")
	assert.Equal(t, 200, code)
	assert.Equal(t, "OK", body)

	code, body = get(t, s, "/config?fmt=json")
	assert.Equal(t, 200, code)
	assert.NotContains(t, body, "secret-key")

	code, _ = get(t, s, "/jobs")
	assert.Equal(t, 200, code)

	req := httptest.NewRequest("POST", "/api/search", strings.NewReader(`{"id":"1","title":"Song","artists":["Band"]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)

	code, body = get(t, s, "/metrics")
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `soulsearch_queries_total{status="error"} 1`)

	code, _ = get(t, s, "/api/cache/anything")
	assert.Equal(t, 404, code)
}

func TestServerWithoutMetrics(t *testing.T) {
	code, _ := get(t, newTestServer(t, false), "/metrics")
	assert.Equal(t, 404, code)
}
