package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/btouchard/beacon/internal/metrics"
)

// Notification is the durable unit relayed from producers to subscribers.
// JSON field names are the wire format consumed by the UI and must not change.
type Notification struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Category  string         `json:"category"`
	Metadata  map[string]any `json:"metadata"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
	Summary   string         `json:"summary,omitempty"`
}

// CreatePayload is the producer-supplied input for a new notification.
// Title and Message are required; Category defaults to "info" and Metadata
// to an empty map.
type CreatePayload struct {
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Category string         `json:"category,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Store owns the in-memory notification list and its backing JSON file.
// In-memory state is the source of truth; the file is a best-effort shadow
// rewritten wholesale after every mutation. All methods are safe for
// concurrent use.
type Store struct {
	mu    sync.Mutex
	items []Notification

	path    string
	now     func() time.Time
	writeFn func(data []byte) error

	// Flush state machine: at most one write in flight; a flush requested
	// while one is running is collapsed into a single follow-up write of
	// the then-current state.
	flushMu sync.Mutex
	writing bool
	pending bool
}

// New creates a Store backed by the JSON file at path. A missing file or an
// unparseable one yields an empty store; prior history is never a reason to
// fail startup.
func New(path string) *Store {
	s := &Store{path: path}
	s.now = time.Now
	s.writeFn = s.writeSnapshot
	s.load()
	return s
}

// Add appends a new notification built from payload, assigns a fresh id and
// creation timestamp, persists, and returns the record. Defaults are applied
// here: category "info", empty metadata.
func (s *Store) Add(p CreatePayload) Notification {
	category := p.Category
	if category == "" {
		category = "info"
	}
	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	n := Notification{
		ID:        uuid.NewString(),
		Title:     p.Title,
		Message:   p.Message,
		Category:  category,
		Metadata:  metadata,
		Read:      false,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.items = append(s.items, n)
	s.mu.Unlock()

	metrics.NotificationsCreated.Inc()
	s.flush()
	return n
}

// GetAll returns a snapshot sorted most recent first: createdAt descending,
// and for equal timestamps the later-inserted record sorts first.
func (s *Store) GetAll() []Notification {
	s.mu.Lock()
	snapshot := make([]Notification, len(s.items))
	copy(snapshot, s.items)
	s.mu.Unlock()

	// Reversing insertion order first makes a stable sort on createdAt
	// alone produce the later-inserted-first tie-break.
	for i, j := 0, len(snapshot)-1; i < j; i, j = i+1, j-1 {
		snapshot[i], snapshot[j] = snapshot[j], snapshot[i]
	}
	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.After(snapshot[j].CreatedAt)
	})
	return snapshot
}

// MarkAsRead sets read on the notification with the given id. Marking an
// already-read notification is a no-op that still reports success.
func (s *Store) MarkAsRead(id string) (Notification, bool) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return Notification{}, false
	}
	s.items[idx].Read = true
	n := s.items[idx]
	s.mu.Unlock()

	s.flush()
	return n, true
}

// SetSummary records the enrichment result for the given id.
func (s *Store) SetSummary(id, summary string) (Notification, bool) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return Notification{}, false
	}
	s.items[idx].Summary = summary
	n := s.items[idx]
	s.mu.Unlock()

	s.flush()
	return n, true
}

// Remove deletes the notification with the given id, reporting whether it
// existed. An unknown id leaves the set untouched.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()

	s.flush()
	return true
}

// Len reports the number of stored notifications.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("notification file unreadable, starting empty", "path", s.path, "error", err)
		}
		return
	}
	var items []Notification
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("notification file corrupt, starting empty", "path", s.path, "error", err)
		return
	}
	s.items = items
}

// flush persists the current state. Flush requests arriving while a write is
// in flight are recorded as pending and collapsed: after the in-flight write
// finishes, exactly one more write runs against the state current at that
// moment. A burst of concurrent mutations therefore costs at most two
// physical writes.
func (s *Store) flush() {
	s.flushMu.Lock()
	if s.writing {
		s.pending = true
		s.flushMu.Unlock()
		return
	}
	s.writing = true
	s.flushMu.Unlock()

	for {
		data := s.marshal()
		if err := s.writeFn(data); err != nil {
			metrics.FlushFailures.Inc()
			slog.Warn("failed to persist notifications", "path", s.path, "error", err)
		}

		s.flushMu.Lock()
		if !s.pending {
			s.writing = false
			s.flushMu.Unlock()
			return
		}
		s.pending = false
		s.flushMu.Unlock()
	}
}

func (s *Store) marshal() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items
	if items == nil {
		items = []Notification{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		// Metadata values arrive through JSON decoding, so this should
		// not happen; treat it like any other persistence failure.
		slog.Warn("failed to encode notifications", "error", err)
		return []byte("[]")
	}
	return data
}

// writeSnapshot writes data to the backing file via a temp file and rename so
// readers never observe a partial document.
func (s *Store) writeSnapshot(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".notifications-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing notification file: %w", err)
	}
	return nil
}
