// Package hub wires the store, event bus, enrichment pipeline and notifier
// dispatcher into the notification lifecycle. All mutation of notification
// state goes through here so the ordering guarantees hold: created is always
// broadcast before a possible updated, and the desktop notifier fires at
// most once per notification.
package hub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/btouchard/beacon/internal/bus"
	"github.com/btouchard/beacon/internal/metrics"
	"github.com/btouchard/beacon/internal/notify"
	"github.com/btouchard/beacon/internal/store"
	"github.com/btouchard/beacon/internal/summarize"
)

// Notifier is the desktop notification sink. Defined consumer-side per Go
// convention; satisfied by *notify.Dispatcher.
type Notifier interface {
	Notify(req notify.Request)
}

// Options configures enrichment and notifier behavior.
type Options struct {
	// SummarizeEnabled gates the enrichment pipeline as a whole.
	SummarizeEnabled bool
	// MinLength is the message length above which enrichment runs.
	// Zero means summarize.DefaultMinLength.
	MinLength int
	// CodeCmd is the editor command used for the notification click
	// action when metadata carries a project path.
	CodeCmd string
	// OpenURL is offered on notification click, typically the hub UI.
	OpenURL string
}

// Hub orchestrates the notification lifecycle.
type Hub struct {
	store      *store.Store
	bus        *bus.Bus
	summarizer summarize.Summarizer
	notifier   Notifier
	opts       Options
}

// New creates a Hub. summarizer and notifier may be nil, which disables
// enrichment and desktop notifications respectively.
func New(s *store.Store, b *bus.Bus, summarizer summarize.Summarizer, notifier Notifier, opts Options) *Hub {
	return &Hub{
		store:      s,
		bus:        b,
		summarizer: summarizer,
		notifier:   notifier,
		opts:       opts,
	}
}

// Create stores a new notification, broadcasts created, and either announces
// it to the desktop notifier immediately or hands it to the enrichment
// pipeline — never both. The returned record is the creation response;
// enrichment happens behind it.
func (h *Hub) Create(p store.CreatePayload) store.Notification {
	n := h.store.Add(p)
	slog.Info("notification created", "id", n.ID, "title", n.Title, "category", n.Category)

	h.bus.Broadcast(bus.KindCreated, n)

	if h.willSummarize(n.Message) {
		go h.enrich(n)
		return n
	}

	h.dispatch(notify.Request{
		Title:   n.Title,
		Message: n.Message,
		Group:   n.Category,
		Open:    h.opts.OpenURL,
		Execute: h.executeAction(n),
	})
	return n
}

// List returns all notifications, most recent first.
func (h *Hub) List() []store.Notification {
	return h.store.GetAll()
}

// MarkRead marks a notification read and broadcasts the read event.
// Reports false for an unknown id.
func (h *Hub) MarkRead(id string) (store.Notification, bool) {
	n, ok := h.store.MarkAsRead(id)
	if !ok {
		return store.Notification{}, false
	}
	h.bus.Broadcast(bus.KindRead, n)
	return n, true
}

// Delete removes a notification and broadcasts the deleted event. Reports
// false for an unknown id.
func (h *Hub) Delete(id string) bool {
	if !h.store.Remove(id) {
		return false
	}
	h.bus.Broadcast(bus.KindDeleted, map[string]string{"id": id})
	return true
}

// Bus exposes the event bus for streaming subscribers.
func (h *Hub) Bus() *bus.Bus {
	return h.bus
}

// willSummarize reports whether the enrichment pipeline will run for a
// message. Short messages are never summarized, regardless of the flag.
func (h *Hub) willSummarize(message string) bool {
	return h.opts.SummarizeEnabled &&
		h.summarizer != nil &&
		summarize.ShouldSummarize(message, h.opts.MinLength)
}

// enrich runs detached from the creation request. It is not cancellable once
// started; the summarizer's own timeout bounds a hung external call.
func (h *Hub) enrich(n store.Notification) {
	summary, err := h.summarizer.Summarize(context.Background(), n.Message)
	if err != nil {
		metrics.SummaryFailures.Inc()
		slog.Warn("summarization failed", "id", n.ID, "error", err)
		return
	}
	metrics.SummariesProduced.Inc()

	updated, ok := h.store.SetSummary(n.ID, summary)
	if !ok {
		// Deleted while the summary was being generated.
		slog.Debug("discarding summary for removed notification", "id", n.ID)
		return
	}

	h.bus.Broadcast(bus.KindUpdated, updated)

	h.dispatch(notify.Request{
		Title:   updated.Title,
		Message: summary,
		Group:   updated.Category,
		Open:    h.opts.OpenURL,
	})
}

func (h *Hub) dispatch(req notify.Request) {
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(req)
}

// executeAction builds the click action command when the producer supplied a
// project path in metadata.
func (h *Hub) executeAction(n store.Notification) string {
	if h.opts.CodeCmd == "" {
		return ""
	}
	project, ok := n.Metadata["project"].(string)
	if !ok || project == "" {
		return ""
	}
	return fmt.Sprintf("%s %s", h.opts.CodeCmd, project)
}
