// Package api is the HTTP boundary of the hub: producer-facing notification
// routes, the SSE event stream, and the small operational endpoints the UI
// relies on.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/btouchard/beacon/internal/hub"
	"github.com/btouchard/beacon/internal/store"
)

// SpawnFn launches a detached process. Injectable for tests.
type SpawnFn func(name string, args ...string) error

// Options configures the HTTP surface.
type Options struct {
	// CodeCmd is the editor command for the focus-window endpoint.
	CodeCmd string
	// SpawnEditor overrides how the editor process is launched.
	SpawnEditor SpawnFn
	// Heartbeat is the SSE keepalive interval, default 30s.
	Heartbeat time.Duration
}

// API serves the hub over HTTP.
type API struct {
	hub       *hub.Hub
	codeCmd   string
	spawn     SpawnFn
	heartbeat time.Duration
}

// New creates the HTTP surface for a hub.
func New(h *hub.Hub, opts Options) *API {
	spawn := opts.SpawnEditor
	if spawn == nil {
		spawn = defaultSpawn
	}
	heartbeat := opts.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &API{
		hub:       h,
		codeCmd:   opts.CodeCmd,
		spawn:     spawn,
		heartbeat: heartbeat,
	}
}

// Router builds the chi router for all API routes.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/api/notify", a.handleNotify)
	r.Get("/api/notifications", a.handleList)
	r.Patch("/api/notifications/{id}/read", a.handleMarkRead)
	r.Delete("/api/notifications/{id}", a.handleDelete)
	r.Get("/api/events", a.handleEvents)
	r.Post("/api/focus-window", a.handleFocusWindow)
	r.Get("/api/health", a.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (a *API) handleNotify(w http.ResponseWriter, r *http.Request) {
	var payload store.CreatePayload
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{
					"fieldErrors": map[string]string{typeErr.Field: "expected " + typeErr.Type.String()},
				},
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}

	fieldErrors := map[string]string{}
	if payload.Title == "" {
		fieldErrors["title"] = "title is required"
	}
	if payload.Message == "" {
		fieldErrors["message"] = "message is required"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"fieldErrors": fieldErrors},
		})
		return
	}

	n := a.hub.Create(payload)
	writeJSON(w, http.StatusCreated, n)
}

func (a *API) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": a.hub.List(),
	})
}

func (a *API) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, ok := a.hub.MarkRead(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !a.hub.Delete(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"hostname":  host,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response", "error", err)
	}
}
