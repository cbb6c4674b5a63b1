// Package notify bridges notifications to the host's native notification
// facility. Everything here is best-effort: a workstation without a usable
// notifier still runs a fully functional hub, it just stays silent.
package notify

import (
	"log/slog"
	"sync"
)

// Request describes one desktop notification.
type Request struct {
	Title   string
	Message string
	// Group collapses notifications of the same category on hosts that
	// support it.
	Group string
	// Open is a URL offered on click.
	Open string
	// Execute is an optional companion shell command (e.g. open the
	// project in an editor), run best-effort.
	Execute string
}

// Backend is one host notification mechanism.
type Backend interface {
	// Name identifies the mechanism in logs.
	Name() string
	// Probe reports whether the mechanism is usable on this host.
	Probe() bool
	// Send issues the native notification call.
	Send(req Request) error
}

// Dispatcher routes notifications to a Backend, probing availability once
// and caching the result for the process lifetime.
type Dispatcher struct {
	backend Backend

	probeOnce sync.Once
	available bool
}

// NewDispatcher creates a Dispatcher for the given backend.
func NewDispatcher(b Backend) *Dispatcher {
	return &Dispatcher{backend: b}
}

// Available reports whether the host mechanism is usable. The first call
// probes; subsequent calls reuse the cached result.
func (d *Dispatcher) Available() bool {
	d.probeOnce.Do(func() {
		d.available = d.backend.Probe()
		if !d.available {
			slog.Warn("desktop notifications disabled", "backend", d.backend.Name())
		}
	})
	return d.available
}

// Notify sends a desktop notification. Unavailable hosts and failed sends
// are silent no-ops beyond a log line; nothing here ever reaches a producer.
func (d *Dispatcher) Notify(req Request) {
	if !d.Available() {
		return
	}
	if err := d.backend.Send(req); err != nil {
		slog.Warn("desktop notification failed", "backend", d.backend.Name(), "title", req.Title, "error", err)
	}
}
