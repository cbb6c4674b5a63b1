package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/beacon/internal/bus"
	"github.com/btouchard/beacon/internal/hub"
	"github.com/btouchard/beacon/internal/store"
)

// sseClient reads frames from an open event stream.
type sseClient struct {
	cancel context.CancelFunc
	body   *bufio.Reader
	resp   *http.Response
}

func openStream(t *testing.T, srv *httptest.Server) *sseClient {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	c := &sseClient{cancel: cancel, body: bufio.NewReader(resp.Body), resp: resp}
	t.Cleanup(func() {
		cancel()
		_ = resp.Body.Close()
	})
	return c
}

// nextEvent reads frames until one with the given event name arrives,
// returning its data line.
func (c *sseClient) nextEvent(t *testing.T, name string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)

	var event, data string
	for time.Now().Before(deadline) {
		line, err := c.body.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if event == name {
				return data
			}
			event, data = "", ""
		}
	}
	t.Fatalf("no %q event within deadline", name)
	return ""
}

func newStreamFixture(t *testing.T, heartbeat time.Duration) (*httptest.Server, *hub.Hub, *bus.Bus) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "notifications.json"))
	b := bus.New()
	h := hub.New(st, b, nil, nil, hub.Options{})

	a := New(h, Options{Heartbeat: heartbeat})
	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return srv, h, b
}

func TestEvents_DeliversLifecycleFrames(t *testing.T) {
	t.Parallel()
	srv, h, _ := newStreamFixture(t, time.Minute)

	c := openStream(t, srv)
	c.nextEvent(t, "ping") // greeting frame

	n := h.Create(store.CreatePayload{Title: "Stream me", Message: "hello"})
	created := c.nextEvent(t, "created")
	assert.Contains(t, created, n.ID)
	assert.Contains(t, created, "Stream me")

	h.MarkRead(n.ID)
	read := c.nextEvent(t, "read")
	assert.Contains(t, read, `"read":true`)

	h.Delete(n.ID)
	deleted := c.nextEvent(t, "deleted")
	assert.Contains(t, deleted, n.ID)
}

func TestEvents_HeartbeatKeepsArriving(t *testing.T) {
	t.Parallel()
	srv, _, _ := newStreamFixture(t, 30*time.Millisecond)

	c := openStream(t, srv)
	c.nextEvent(t, "ping")
	c.nextEvent(t, "ping")
	c.nextEvent(t, "ping")
}

func TestEvents_FrameIDsPresent(t *testing.T) {
	t.Parallel()
	srv, h, _ := newStreamFixture(t, time.Minute)

	c := openStream(t, srv)
	c.nextEvent(t, "ping")
	h.Create(store.CreatePayload{Title: "t", Message: "m"})

	// Read raw lines of the created frame and check it carries an id.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, err := c.body.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "id: ") {
			assert.Greater(t, len(strings.TrimSpace(line)), len("id: "))
			return
		}
	}
	t.Fatal("no id line observed")
}

// TestEvents_DisconnectReleasesListener is the listener-leak regression: the
// per-connection subscription must be gone once the client disconnects.
func TestEvents_DisconnectReleasesListener(t *testing.T) {
	t.Parallel()
	srv, _, b := newStreamFixture(t, time.Minute)

	c := openStream(t, srv)
	c.nextEvent(t, "ping")

	require.Eventually(t, func() bool { return b.Len() == 1 },
		time.Second, 5*time.Millisecond)

	c.cancel()

	assert.Eventually(t, func() bool { return b.Len() == 0 },
		2*time.Second, 5*time.Millisecond,
		"disconnect must unsubscribe the connection's listener")
}

func TestEvents_MultipleClientsEachGetFrames(t *testing.T) {
	t.Parallel()
	srv, h, b := newStreamFixture(t, time.Minute)

	c1 := openStream(t, srv)
	c2 := openStream(t, srv)
	c1.nextEvent(t, "ping")
	c2.nextEvent(t, "ping")

	require.Eventually(t, func() bool { return b.Len() == 2 },
		time.Second, 5*time.Millisecond)

	h.Create(store.CreatePayload{Title: "fanout", Message: "m"})

	assert.Contains(t, c1.nextEvent(t, "created"), "fanout")
	assert.Contains(t, c2.nextEvent(t, "created"), "fanout")
}
