package ws

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openclaw/missionctl/event"
)

func newTestHub() *Hub {
	return NewHub(slog.Default())
}

func TestHub_BroadcastNoClients(t *testing.T) {
	hub := newTestHub()
	// Must not panic or block.
	hub.Broadcast(event.Event{Type: event.TypeCreated, Task: "T1"})
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
}

func TestHub_ServeHTTP_Stream(t *testing.T) {
	hub := newTestHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	reader := bufio.NewReader(resp.Body)
	greeting, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if !strings.Contains(greeting, `"type":"connected"`) {
		t.Errorf("greeting = %q, want connected event", greeting)
	}

	// The connection must be registered before broadcasting.
	waitForClients(t, hub, 1)

	hub.Broadcast(event.Event{Type: event.TypeStatusChanged, Task: map[string]string{"id": "T1"}})

	line := readDataLine(t, reader)
	if !strings.Contains(line, `"type":"status_changed"`) || !strings.Contains(line, `"T1"`) {
		t.Errorf("broadcast line = %q", line)
	}

	cancel()
	waitForClients(t, hub, 0)
}

func TestHub_AttachRelaysBusEvents(t *testing.T) {
	hub := newTestHub()
	bus := event.NewInMemoryBus()
	detach := hub.Attach(bus)
	defer detach()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	if _, err := reader.ReadString('\n'); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	waitForClients(t, hub, 1)

	bus.Publish(event.Event{Type: event.TypeDeleted, Task: map[string]string{"id": "T9"}})

	line := readDataLine(t, reader)
	if !strings.Contains(line, `"type":"deleted"`) {
		t.Errorf("relayed line = %q", line)
	}
}

// readDataLine skips blank lines and returns the next "data:" payload.
func readDataLine(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimPrefix(line, "data: ")
		}
	}
	t.Fatal("no data line before deadline")
	return ""
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ClientCount = %d, want %d", hub.ClientCount(), want)
}
