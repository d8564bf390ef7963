// Package server implements the mission-control HTTP server: the versioned
// REST API, CORS and rate-limit middleware, and the SSE event stream.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/openclaw/missionctl/config"
	"github.com/openclaw/missionctl/server/api"
	"github.com/openclaw/missionctl/server/ws"
)

// Server is the mission-control HTTP server.
type Server struct {
	cfg     config.Config
	mux     *http.ServeMux
	httpSrv *http.Server
	logger  *slog.Logger

	handlers  *api.Handlers
	hub       *ws.Hub
	routeOnce sync.Once

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter

	startTime time.Time
	version   string
}

// New creates a Server with the given config, handlers, and SSE hub.
func New(cfg config.Config, h *api.Handlers, hub *ws.Hub, ver string, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		logger:    logger,
		handlers:  h,
		hub:       hub,
		limiters:  make(map[string]*rate.Limiter),
		startTime: time.Now(),
		version:   ver,
	}
	return s
}

// Start registers routes and begins listening.
func (s *Server) Start() error {
	s.registerRoutes()

	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = ":3001"
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.logger.Info("server listening", slog.String("addr", addr))
	return s.httpSrv.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's root handler with routes registered, for use
// in tests without a listening socket.
func (s *Server) Handler() http.Handler {
	s.registerRoutes()
	return s.mux
}

// registerRoutes sets up all HTTP routes. Safe to call more than once; the
// mux is only populated on the first call.
func (s *Server) registerRoutes() {
	s.routeOnce.Do(s.registerRoutesOnce)
}

func (s *Server) registerRoutesOnce() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// SSE — outside the rate limiter so a long-lived stream doesn't burn
	// the client's request budget.
	s.mux.Handle("GET /api/v1/events", s.hub)

	apiMux := http.NewServeMux()
	s.handlers.RegisterRoutes(apiMux)
	s.mux.Handle("/api/v1/", s.corsMiddleware(s.rateLimitMiddleware(apiMux)))
}

// handleHealth reports liveness without touching the store.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    int(time.Since(s.startTime).Seconds()),
		"sse":       s.hub.ClientCount(),
	})
}

// corsMiddleware allows cross-origin dashboard access.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware applies a per-client token bucket shaped by the
// configured request budget and window.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	requests := s.cfg.RateLimit.Requests
	window := s.cfg.RateLimit.Window
	if requests <= 0 || window <= 0 {
		return next
	}
	limit := rate.Limit(float64(requests) / window.Seconds())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		s.limiterMu.Lock()
		lim, ok := s.limiters[host]
		if !ok {
			lim = rate.NewLimiter(limit, requests)
			s.limiters[host] = lim
		}
		s.limiterMu.Unlock()

		if !lim.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests from this IP, please try again later.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
