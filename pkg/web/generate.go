package web

import (
	"bufio"
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/flarelab/storylab/pkg/events"
	"github.com/flarelab/storylab/pkg/services"
	"github.com/flarelab/storylab/pkg/streaming"
)

// Generate streams one generation run as server-sent events. Pre-flight
// failures still answer with a regular status code; once the stream is open
// every failure travels as an error event instead.
func (h *APIHandlers) Generate(c fiber.Ctx) error {
	projectID := c.Params("id")
	kind := c.Params("kind")

	if projectID == "" || kind == "" {
		return badRequest(c, "Project ID and generation kind are required")
	}

	var req services.GenerateRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	prepared, err := h.generationService.Prepare(c.Context(), projectID, kind, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache, no-transform")
	c.Set(fiber.HeaderConnection, "keep-alive")
	// Reverse proxies must not buffer the event stream.
	c.Set("X-Accel-Buffering", "no")

	// The stream writer runs after this handler returns, so the request
	// context must outlive it.
	ctx := context.WithoutCancel(c.Context())

	return c.SendStreamWriter(func(w *bufio.Writer) {
		sink := streaming.NewSSEWriter(w)

		if err := h.generationService.Run(ctx, prepared, sink); err != nil {
			_ = sink.Send(events.Error{Message: err.Error(), Fatal: true})
		}
	})
}
