package hub

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/beacon/internal/bus"
	"github.com/btouchard/beacon/internal/notify"
	"github.com/btouchard/beacon/internal/store"
	"github.com/btouchard/beacon/internal/summarize"
)

const longMessage = "this message is comfortably longer than the eighty character minimum so the enrichment pipeline will pick it up and run a summarization pass over it"

type fakeSummarizer struct {
	calls   atomic.Int64
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, message string) (string, error) {
	f.calls.Add(1)
	return f.summary, f.err
}

type notifyRecorder struct {
	mu       sync.Mutex
	requests []notify.Request
}

func (r *notifyRecorder) Notify(req notify.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

func (r *notifyRecorder) all() []notify.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Request(nil), r.requests...)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []bus.Kind
}

func (r *eventRecorder) listen(kind bus.Kind, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind)
}

func (r *eventRecorder) kinds() []bus.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bus.Kind(nil), r.events...)
}

func newTestHub(t *testing.T, summarizer *fakeSummarizer, opts Options) (*Hub, *notifyRecorder, *eventRecorder) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "notifications.json"))
	b := bus.New()

	events := &eventRecorder{}
	b.Subscribe(events.listen)

	notifier := &notifyRecorder{}

	var sum summarize.Summarizer
	if summarizer != nil {
		sum = summarizer
	}
	h := New(st, b, sum, notifier, opts)
	return h, notifier, events
}

func TestHub_Create_BroadcastsCreated(t *testing.T) {
	t.Parallel()
	h, _, events := newTestHub(t, nil, Options{})

	n := h.Create(store.CreatePayload{Title: "Test", Message: "Hello"})

	assert.Equal(t, "info", n.Category)
	assert.Equal(t, []bus.Kind{bus.KindCreated}, events.kinds())

	all := h.List()
	require.Len(t, all, 1)
	assert.Equal(t, n, all[0])
}

func TestHub_ShortMessage_NotifiesImmediatelyWithRawMessage(t *testing.T) {
	t.Parallel()
	summarizer := &fakeSummarizer{summary: "unused"}
	h, notifier, _ := newTestHub(t, summarizer, Options{SummarizeEnabled: true})

	h.Create(store.CreatePayload{Title: "Build done", Message: "ok"})

	requests := notifier.all()
	require.Len(t, requests, 1)
	assert.Equal(t, "Build done", requests[0].Title)
	assert.Equal(t, "ok", requests[0].Message)
	assert.Equal(t, int64(0), summarizer.calls.Load(), "short messages must never be summarized")
}

func TestHub_ShortMessage_NeverTriggersEnrichment_RegardlessOfFlag(t *testing.T) {
	t.Parallel()
	for _, enabled := range []bool{true, false} {
		summarizer := &fakeSummarizer{summary: "unused"}
		h, _, _ := newTestHub(t, summarizer, Options{SummarizeEnabled: enabled})

		h.Create(store.CreatePayload{Title: "t", Message: "short"})

		assert.Equal(t, int64(0), summarizer.calls.Load(), "enabled=%v", enabled)
	}
}

func TestHub_LongMessage_EnrichesAndNotifiesWithSummary(t *testing.T) {
	t.Parallel()
	summarizer := &fakeSummarizer{summary: "one line"}
	h, notifier, events := newTestHub(t, summarizer, Options{SummarizeEnabled: true})

	n := h.Create(store.CreatePayload{Title: "Long", Message: longMessage})

	require.Eventually(t, func() bool {
		return len(notifier.all()) == 1
	}, time.Second, 5*time.Millisecond)

	requests := notifier.all()
	assert.Equal(t, "Long", requests[0].Title)
	assert.Equal(t, "one line", requests[0].Message, "the notifier gets the summary, not the raw message")

	kinds := events.kinds()
	require.Equal(t, []bus.Kind{bus.KindCreated, bus.KindUpdated}, kinds, "created must precede updated")

	all := h.List()
	require.Len(t, all, 1)
	assert.Equal(t, n.ID, all[0].ID)
	assert.Equal(t, "one line", all[0].Summary)
}

func TestHub_NotifierInvokedAtMostOnce(t *testing.T) {
	t.Parallel()
	summarizer := &fakeSummarizer{summary: "one line"}
	h, notifier, _ := newTestHub(t, summarizer, Options{SummarizeEnabled: true})

	h.Create(store.CreatePayload{Title: "Long", Message: longMessage})

	require.Eventually(t, func() bool {
		return len(notifier.all()) == 1
	}, time.Second, 5*time.Millisecond)

	// Give a hypothetical duplicate dispatch a chance to land.
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, notifier.all(), 1)
}

func TestHub_EnrichmentDisabled_NoUpdatedEvent(t *testing.T) {
	t.Parallel()
	summarizer := &fakeSummarizer{summary: "unused"}
	longer := longMessage + longMessage // well over any threshold
	h, notifier, events := newTestHub(t, summarizer, Options{SummarizeEnabled: false})

	h.Create(store.CreatePayload{Title: "t", Message: longer})

	// The immediate path runs synchronously, so by now any enrichment
	// would have been scheduled if it was going to be.
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int64(0), summarizer.calls.Load())
	assert.Equal(t, []bus.Kind{bus.KindCreated}, events.kinds())

	requests := notifier.all()
	require.Len(t, requests, 1)
	assert.Equal(t, longer, requests[0].Message, "disabled enrichment announces the raw message")
}

func TestHub_SummarizationFailure_NoNotificationNoUpdate(t *testing.T) {
	t.Parallel()
	summarizer := &fakeSummarizer{err: fmt.Errorf("capability unavailable")}
	h, notifier, events := newTestHub(t, summarizer, Options{SummarizeEnabled: true})

	h.Create(store.CreatePayload{Title: "t", Message: longMessage})

	require.Eventually(t, func() bool {
		return summarizer.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, notifier.all(), "a failed enrichment must not announce anything")
	assert.Equal(t, []bus.Kind{bus.KindCreated}, events.kinds())
}

func TestHub_ExecuteAction_FromProjectMetadata(t *testing.T) {
	t.Parallel()
	h, notifier, _ := newTestHub(t, nil, Options{CodeCmd: "code-insiders"})

	h.Create(store.CreatePayload{
		Title:    "t",
		Message:  "m",
		Metadata: map[string]any{"project": "/home/dev/api"},
	})

	requests := notifier.all()
	require.Len(t, requests, 1)
	assert.Equal(t, "code-insiders /home/dev/api", requests[0].Execute)
}

func TestHub_MarkRead(t *testing.T) {
	t.Parallel()
	h, _, events := newTestHub(t, nil, Options{})

	n := h.Create(store.CreatePayload{Title: "t", Message: "m"})

	updated, ok := h.MarkRead(n.ID)
	require.True(t, ok)
	assert.True(t, updated.Read)
	assert.Equal(t, []bus.Kind{bus.KindCreated, bus.KindRead}, events.kinds())

	_, ok = h.MarkRead("missing-id")
	assert.False(t, ok)
}

func TestHub_Delete(t *testing.T) {
	t.Parallel()
	h, _, events := newTestHub(t, nil, Options{})

	n := h.Create(store.CreatePayload{Title: "t", Message: "m"})

	assert.True(t, h.Delete(n.ID))
	assert.False(t, h.Delete(n.ID))
	assert.Empty(t, h.List())
	assert.Equal(t, []bus.Kind{bus.KindCreated, bus.KindDeleted}, events.kinds())
}

func TestHub_SummaryForDeletedNotification_IsDiscarded(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	block := make(chan struct{})
	slow := &blockingSummarizer{
		inner:   &fakeSummarizer{summary: "late"},
		started: started,
		block:   block,
	}

	st := store.New(filepath.Join(t.TempDir(), "notifications.json"))
	b := bus.New()
	events := &eventRecorder{}
	b.Subscribe(events.listen)
	notifier := &notifyRecorder{}
	h := New(st, b, slow, notifier, Options{SummarizeEnabled: true})

	n := h.Create(store.CreatePayload{Title: "t", Message: longMessage})
	<-started
	require.True(t, h.Delete(n.ID))
	close(block)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, notifier.all())
	assert.Equal(t, []bus.Kind{bus.KindCreated, bus.KindDeleted}, events.kinds())
}

type blockingSummarizer struct {
	inner   *fakeSummarizer
	started chan struct{}
	block   chan struct{}
}

func (b *blockingSummarizer) Summarize(ctx context.Context, message string) (string, error) {
	close(b.started)
	<-b.block
	return b.inner.Summarize(ctx, message)
}
