package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/gigflow/internal/auth"
	"github.com/sakif/gigflow/internal/notify"
)

// EventsHandler exposes the notification stream over Server-Sent Events.
//
// SSE instead of WebSockets: the flow is strictly server→client (the client
// never pushes anything up this channel), which is exactly what SSE is for,
// and it works over plain HTTP with automatic browser reconnection via
// EventSource — no extra protocol or dependency.
//
// Connection lifecycle IS the subscription lifecycle: opening the stream
// subscribes the user to the hub, and the subscription is removed the
// moment the connection goes away. There is no offline delivery.
type EventsHandler struct {
	hub    *notify.Hub
	logger *slog.Logger
}

func NewEventsHandler(hub *notify.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

// HandleStream holds the connection open and forwards hub events as SSE
// frames ("data: {json}\n\n").
//
// HTTP: GET /api/events (requires auth)
func (h *EventsHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not authenticated"})
		return
	}

	// Streaming needs a Flusher — without it events would sit in the
	// response buffer until the connection closes, defeating the point.
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Subscribe before the first flush: a client that has seen any bytes of
	// this response is already registered and cannot miss an event published
	// right after its connect.
	ch := h.hub.Subscribe(id.ID)
	defer h.hub.Unsubscribe(id.ID, ch)

	// An initial comment line forces headers out so EventSource fires its
	// open event immediately.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	h.logger.Debug("event stream opened", slog.String("userId", id.ID))

	for {
		select {
		case <-r.Context().Done():
			// Client went away; the deferred Unsubscribe tears down the
			// registration.
			h.logger.Debug("event stream closed", slog.String("userId", id.ID))
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event",
					slog.String("type", event.Type),
					slog.String("error", err.Error()),
				)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
				// Write failure means the connection is gone.
				return
			}
			flusher.Flush()
		}
	}
}
