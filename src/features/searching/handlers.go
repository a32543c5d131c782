package searching

import (
	"errors"
	"log/slog"

	"github.com/contre95/soulsearch/src/features/matching"
	"github.com/contre95/soulsearch/src/features/pathmeta"
	"github.com/contre95/soulsearch/src/music"
	"github.com/gofiber/fiber/v2"
)

// Handler handles HTTP requests for the searching feature.
type Handler struct {
	service   *Service
	tagReader pathmeta.TagReader
}

// NewHandler creates a new searching handler. tagReader may be nil, in which
// case extraction only looks at the path.
func NewHandler(service *Service, tagReader pathmeta.TagReader) *Handler {
	return &Handler{service: service, tagReader: tagReader}
}

type expressionRequest struct {
	Expression string `json:"expression"`
}

type extractRequest struct {
	Path string `json:"path"`
	Tags bool   `json:"tags"`
}

type batchRequest struct {
	Tracks []music.Track `json:"tracks"`
}

// Search runs a normal search for the posted track.
func (h *Handler) Search(c *fiber.Ctx) error {
	return h.runSearch(c, false)
}

// Analyze runs an exhaustive search for the posted track.
func (h *Handler) Analyze(c *fiber.Ctx) error {
	return h.runSearch(c, true)
}

func (h *Handler) runSearch(c *fiber.Ctx, exhaustive bool) error {
	var track music.Track
	if err := c.BodyParser(&track); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := track.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	slog.Debug("Search handler called", "track", track.String(), "analyze", exhaustive)

	search := h.service.Search
	if exhaustive {
		search = h.service.Analyze
	}
	resp, err := search(c.UserContext(), track)
	if err != nil {
		slog.Error("Search failed", "track", track.String(), "error", err)
		status := fiber.StatusInternalServerError
		var dlErr *DownloadError
		switch {
		case errors.Is(err, ErrServiceUnavailable):
			status = fiber.StatusBadGateway
		case errors.As(err, &dlErr):
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error(), "response": resp})
	}
	return c.JSON(resp)
}

// ValidateFilter reports every problem of a filter expression.
func (h *Handler) ValidateFilter(c *fiber.Ctx) error {
	var req expressionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	result := matching.ValidateExpression(req.Expression)
	if !result.Valid {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}
	return c.JSON(result)
}

// Extract derives artist, title and album from a path.
func (h *Handler) Extract(c *fiber.Ctx) error {
	var req extractRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path is required"})
	}
	if req.Tags && h.tagReader != nil {
		return c.JSON(pathmeta.ExtractLocal(c.UserContext(), h.tagReader, req.Path))
	}
	return c.JSON(pathmeta.Extract(req.Path))
}

// StartBatch starts a batch search job.
func (h *Handler) StartBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	for _, t := range req.Tracks {
		if err := t.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}
	jobID, err := h.service.StartBatch(req.Tracks)
	if err != nil {
		slog.Error("Failed to start batch search", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": jobID})
}

// GetCached returns the cached match of a track.
func (h *Handler) GetCached(c *fiber.Ctx) error {
	entry, err := h.service.CachedLinks(c.UserContext(), c.Params("trackId"))
	if err != nil {
		slog.Error("Failed to read track cache", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if entry == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "track not cached"})
	}
	return c.JSON(entry)
}
