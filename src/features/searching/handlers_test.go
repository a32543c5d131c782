package searching

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contre95/soulsearch/src/music"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTags struct{}

func (stubTags) ReadTags(ctx context.Context, path string) (*music.ExtractedMetadata, error) {
	return &music.ExtractedMetadata{Artist: "Tagged Artist", Title: "Tagged Title"}, nil
}

func newTestApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, NewHandler(svc, stubTags{}))
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestHandler_Search(t *testing.T) {
	svc := NewService(testConfig(music.SearchApproach{ID: "b", Trim: true}), beatlesClient(), nil, nil, nil, nil)
	app := newTestApp(svc)

	code, body := post(t, app, "/api/search", `{"id":"t1","title":"Help! (Remastered)","artists":["Beatles"]}`)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `Beatles - Help!.flac`)

	code, _ = post(t, app, "/api/analyze", `{"id":"t1","title":"Help!","artists":["Beatles"]}`)
	assert.Equal(t, 200, code)

	code, _ = post(t, app, "/api/search", `{"id":"t1","artists":["Beatles"]}`)
	assert.Equal(t, 400, code)
}

func TestHandler_SearchServiceDown(t *testing.T) {
	client := newFakeClient()
	client.submitErr["Beatles Help!"] = assert.AnError
	svc := NewService(testConfig(music.SearchApproach{ID: "b", Trim: true}), client, nil, nil, nil, nil)

	code, _ := post(t, newTestApp(svc), "/api/search", `{"id":"t1","title":"Help!","artists":["Beatles"]}`)
	assert.Equal(t, 502, code)
}

func TestHandler_ValidateFilter(t *testing.T) {
	app := newTestApp(NewService(testConfig(music.SearchApproach{ID: "a"}), newFakeClient(), nil, nil, nil, nil))

	code, body := post(t, app, "/api/filters/validate", `{"expression":"artist:match AND title:contains"}`)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `"valid":true`)

	code, body = post(t, app, "/api/filters/validate", `{"expression":"artist:match BUT title:contains"}`)
	assert.Equal(t, 422, code)
	assert.Contains(t, body, "Invalid operators: BUT. Only AND, OR are supported")
}

func TestHandler_Extract(t *testing.T) {
	app := newTestApp(NewService(testConfig(music.SearchApproach{ID: "a"}), newFakeClient(), nil, nil, nil, nil))

	code, body := post(t, app, "/api/extract", `{"path":"/Pink Floyd/The Wall/01 - In The Flesh.flac"}`)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `"pattern":"hierarchical-folder"`)

	code, body = post(t, app, "/api/extract", `{"path":"/music/song.flac","tags":true}`)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, "Tagged Artist")

	code, _ = post(t, app, "/api/extract", `{}`)
	assert.Equal(t, 400, code)
}

func TestHandler_CacheAndBatch(t *testing.T) {
	cache := newMemCache()
	cache.entries["t1"] = music.CacheEntry{Key: "t1", MappedIDs: []string{"u\\f.flac"}}
	app := newTestApp(NewService(testConfig(music.SearchApproach{ID: "a"}), newFakeClient(), cache, nil, nil, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/cache/t1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/cache/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	code, body := post(t, app, "/api/batch", `{"tracks":[{"id":"t1","title":"Help!","artists":["Beatles"]}]}`)
	assert.Equal(t, 500, code)
	assert.Contains(t, body, "job service not configured")
}
