package server_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openclaw/missionctl/config"
	"github.com/openclaw/missionctl/server"
	"github.com/openclaw/missionctl/server/api"
	"github.com/openclaw/missionctl/server/ws"
)

func newTestHandler(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	h := &api.Handlers{
		Logger:  slog.Default(),
		Version: "test",
	}
	hub := ws.NewHub(slog.Default())
	srv := server.New(cfg, h, hub, "test", slog.Default())
	return srv.Handler()
}

func TestHandler_RepeatedCalls(t *testing.T) {
	h := &api.Handlers{Logger: slog.Default(), Version: "test"}
	hub := ws.NewHub(slog.Default())
	srv := server.New(*config.DefaultConfig(), h, hub, "test", slog.Default())

	// Routes register once; a second call must not re-register and panic.
	first := srv.Handler()
	second := srv.Handler()

	rr := httptest.NewRecorder()
	second.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if first == nil {
		t.Fatal("nil handler")
	}
}

func TestHealth(t *testing.T) {
	handler := newTestHandler(t, *config.DefaultConfig())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["status"] != "ok" || m["version"] != "test" {
		t.Errorf("health = %v", m)
	}
	if _, ok := m["sse"]; !ok {
		t.Error("sse client count missing")
	}
}

func TestCORSHeaders(t *testing.T) {
	handler := newTestHandler(t, *config.DefaultConfig())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil))

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}

	// Preflight short-circuits before routing.
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, httptest.NewRequest(http.MethodOptions, "/api/v1/tasks", nil))
	if rr2.Code != http.StatusNoContent {
		t.Errorf("preflight: expected 204, got %d", rr2.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.RateLimit.Requests = 2
	cfg.RateLimit.Window = time.Hour
	handler := newTestHandler(t, cfg)

	status := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if got := status("10.0.0.1:1234"); got == http.StatusTooManyRequests {
		t.Fatal("first request limited")
	}
	if got := status("10.0.0.1:1234"); got == http.StatusTooManyRequests {
		t.Fatal("second request limited")
	}
	if got := status("10.0.0.1:1234"); got != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", got)
	}
	// A different client has its own budget.
	if got := status("10.0.0.2:1234"); got == http.StatusTooManyRequests {
		t.Error("fresh client limited")
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.RateLimit.Requests = 0
	handler := newTestHandler(t, cfg)

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d limited with limiter disabled", i)
		}
	}
}
