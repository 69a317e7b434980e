package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/microsoft/portal-ux-agent/pkg/models"
)

const ssePingInterval = 15 * time.Second

// Stream serves the per-session SSE event feed. Only events published while
// the stream is open are delivered; there is no replay, so clients should
// connect before (or immediately after) triggering a tool call.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "Missing sessionId")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Opening comment so clients see the stream is live before any event.
	fmt.Fprintf(w, ": connected to session %s\n\n", sessionID)
	flusher.Flush()

	// Bus delivery is synchronous on the publisher's goroutine; hand events
	// over a buffered channel and drop if this client is too slow.
	eventCh := make(chan models.StreamEvent, 32)
	unsubscribe := h.Bus.Subscribe(sessionID, func(evt models.StreamEvent) {
		select {
		case eventCh <- evt:
		default:
		}
	})
	defer unsubscribe()

	log.Debug().Str("sessionId", sessionID).Msg("sse stream opened")
	defer log.Debug().Str("sessionId", sessionID).Msg("sse stream closed")

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case evt := <-eventCh:
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, "event: ping\n")
			fmt.Fprintf(w, "data: {\"ts\":%d}\n\n", time.Now().UnixMilli())
			flusher.Flush()
		}
	}
}
