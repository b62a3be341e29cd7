package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/orchestrator"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	s := New(cfg)
	s.loadConfig = func() (*config.Config, error) { return config.Default(), nil }

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) orchestrator.Event {
	t.Helper()
	var ev orchestrator.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestIndexServesPage(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestWSSendsConnectedOnAccept(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)

	ev := readEvent(t, conn)
	if ev.Type != orchestrator.EventConnected {
		t.Errorf("first event = %s, want connected", ev.Type)
	}
}

func TestWSAcknowledgesPrompt(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)
	readEvent(t, conn) // connected

	err := conn.WriteJSON(map[string]string{"prompt": "hello", "mode": "tri"})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Type != orchestrator.EventMessageReceived {
		t.Fatalf("event = %s, want message_received", ev.Type)
	}
	if ev.Content != "hello" || ev.Mode != "tri" {
		t.Errorf("ack = %+v", ev)
	}

	// No providers are enabled in the test config, so the run must fail
	// loudly rather than hang.
	sawError := false
	for i := 0; i < 10; i++ {
		ev = readEvent(t, conn)
		if ev.Type == orchestrator.EventStatusMessage && ev.Error != "" {
			sawError = true
			break
		}
	}
	if !sawError {
		t.Error("expected a status_message error with no providers enabled")
	}
}

func TestWSUnknownMode(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)
	readEvent(t, conn) // connected

	conn.WriteJSON(map[string]string{"prompt": "x", "mode": "bogus"})
	readEvent(t, conn) // message_received

	ev := readEvent(t, conn)
	if ev.Type != orchestrator.EventStatusMessage || !strings.Contains(ev.Error, "unknown mode") {
		t.Errorf("event = %+v", ev)
	}
}

func TestWSEmptyPrompt(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)
	readEvent(t, conn) // connected

	conn.WriteJSON(map[string]string{"mode": "tri"})
	ev := readEvent(t, conn)
	if ev.Type != orchestrator.EventStatusMessage || ev.Error != "empty prompt" {
		t.Errorf("event = %+v", ev)
	}
}

func TestWSDeploymentWithoutBuild(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)
	readEvent(t, conn) // connected

	conn.WriteJSON(map[string]string{"type": "deployment_selected", "target": "skip"})
	ev := readEvent(t, conn)
	if ev.Type != orchestrator.EventStatusMessage || !strings.Contains(ev.Error, "no build awaiting") {
		t.Errorf("event = %+v", ev)
	}
}
