package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/melee45/queueing-system/internal/notifier"
)

// EventsHandler streams ticket change events to displays over SSE.
type EventsHandler struct {
	hub       *notifier.Hub
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewEventsHandler returns a new handler instance.
func NewEventsHandler(hub *notifier.Hub, heartbeat time.Duration, logger *zap.Logger) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &EventsHandler{hub: hub, heartbeat: heartbeat, logger: logger}
}

// Stream subscribes the client to a topic ("*" or a category prefix) and
// writes each event as it arrives. Heartbeat comments keep the connection
// alive and surface disconnects; the stream ends when the client goes away
// or the hub reclaims a stalled subscription. Clients that observe a gap in
// the seq field should re-fetch /tickets/latest.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	topic := c.Query("topic", notifier.TopicAll)
	sub := h.hub.Subscribe(topic)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case event := <-sub.Events():
				payload, err := json.Marshal(event)
				if err != nil {
					h.logger.Warn("failed to encode event", zap.Error(err))
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-sub.Done():
				return
			}
		}
	}))
	return nil
}
