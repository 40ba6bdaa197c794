package hub

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storyweave/internal/service"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *service.EventBus, *httptest.Server, context.CancelFunc) {
	t.Helper()
	h := New(log.New(io.Discard))
	bus := service.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx, bus)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return h, bus, srv, cancel
}

func connect(t *testing.T, url string) *bufio.Reader {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)
	return r
}

// readEvent returns the next "event:" and "data:" lines of the stream
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for data == "" {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	return name, data
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubForwardsBusEvents(t *testing.T) {
	h, bus, srv, _ := startHub(t)
	r := connect(t, srv.URL)
	waitForClients(t, h, 1)

	bus.Publish(service.Event{Type: service.EventStructureSynced, GraphID: "g1"})

	name, data := readEvent(t, r)
	assert.Equal(t, "structure_synced", name)
	assert.JSONEq(t, `{"type":"structure_synced","graph_id":"g1"}`, data)
}

func TestHubFiltersByGraph(t *testing.T) {
	h, bus, srv, _ := startHub(t)
	r := connect(t, srv.URL+"?graph=g2")
	waitForClients(t, h, 1)

	bus.Publish(service.Event{Type: service.EventMetadataUpdated, GraphID: "g1"})
	bus.Publish(service.Event{Type: service.EventGraphDeleted, GraphID: "g2"})

	name, _ := readEvent(t, r)
	assert.Equal(t, "graph_deleted", name)
}

func TestHubBroadcast(t *testing.T) {
	h, _, srv, _ := startHub(t)
	r := connect(t, srv.URL)
	waitForClients(t, h, 1)

	h.Broadcast(service.Event{Type: service.EventGraphCreated, GraphID: "g9"})

	name, _ := readEvent(t, r)
	assert.Equal(t, "graph_created", name)
}

func TestHubDeliversServerEventsBeforeStopping(t *testing.T) {
	h, _, srv, cancel := startHub(t)
	r := connect(t, srv.URL+"?graph=g2")
	waitForClients(t, h, 1)

	h.Broadcast(service.Event{Type: service.EventServerStopping})
	cancel()

	name, _ := readEvent(t, r)
	assert.Equal(t, "server_stopping", name)
	_, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, 0, h.ClientCount())
}

func TestHubStopsOnCancel(t *testing.T) {
	h, _, srv, cancel := startHub(t)
	r := connect(t, srv.URL)
	waitForClients(t, h, 1)

	cancel()

	_, err := r.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, h.ClientCount())
}
