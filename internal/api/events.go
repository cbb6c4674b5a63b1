package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/btouchard/beacon/internal/bus"
	"github.com/btouchard/beacon/internal/metrics"
)

type frame struct {
	event string
	data  []byte
}

// handleEvents streams notification lifecycle events over SSE. One bus
// listener exists per connection and is released before the handler returns;
// anything else would leak listeners on every disconnect.
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	// The server's WriteTimeout would kill a long-lived stream.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	frames := make(chan frame, 64)
	done := make(chan struct{})

	unsubscribe := a.hub.Bus().Subscribe(func(kind bus.Kind, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.Warn("encoding event payload", "kind", kind, "error", err)
			return
		}
		select {
		case frames <- frame{event: string(kind), data: data}:
		case <-done:
		}
	})
	defer close(done)
	defer unsubscribe()

	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	ticker := time.NewTicker(a.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	writeFrame(w, frame{event: "ping"})
	flusher.Flush()

	for {
		select {
		case f := <-frames:
			writeFrame(w, f)
			flusher.Flush()

		case <-ticker.C:
			// Pending event frames go out before the heartbeat so the
			// keepalive never delays or reorders deliveries.
			drained := true
			for drained {
				select {
				case f := <-frames:
					writeFrame(w, f)
				default:
					drained = false
				}
			}
			writeFrame(w, frame{event: "ping"})
			flusher.Flush()

		case <-ctx.Done():
			// Client disconnected; normal termination.
			return
		}
	}
}

// writeFrame emits one SSE frame. The id is derived from send time, which is
// unique enough for a client to use with Last-Event-ID style bookkeeping.
func writeFrame(w http.ResponseWriter, f frame) {
	fmt.Fprintf(w, "event: %s\n", f.event)
	fmt.Fprintf(w, "id: %d\n", time.Now().UnixMilli())
	fmt.Fprintf(w, "data: %s\n\n", f.data)
}
