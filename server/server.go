// Package server exposes a Manager over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geocoding/manager"
)

type Server struct {
	httpServer *http.Server
	manager    *manager.Manager
	logger     *log.Logger
}

// New creates a server with /forward, /reverse, /healthz and /metrics routes.
// gatherer may be nil to leave /metrics out.
func New(addr string, m *manager.Manager, gatherer prometheus.Gatherer, logger *log.Logger) *Server {
	s := &Server{
		manager: m,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/forward", s.handleForward)
	r.Get("/reverse", s.handleReverse)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr, "provider", s.manager.Provider())
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "provider": s.manager.Provider()})
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	query := manager.ForwardQuery(values.Get("q"))
	if err := readOptions(values, &query); err != nil {
		s.writeError(w, err)
		return
	}

	results, err := s.manager.Forward(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	lat, err := strconv.ParseFloat(values.Get("lat"), 64)
	if err != nil {
		s.writeError(w, manager.InvalidQuery(s.manager.Provider(), "lat: %v", err))
		return
	}
	lon, err := strconv.ParseFloat(values.Get("lon"), 64)
	if err != nil {
		s.writeError(w, manager.InvalidQuery(s.manager.Provider(), "lon: %v", err))
		return
	}

	query := manager.ReverseQuery(lat, lon)
	if err := readOptions(values, &query); err != nil {
		s.writeError(w, err)
		return
	}

	results, err := s.manager.ReverseWith(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func readOptions(values map[string][]string, query *manager.Query) error {
	get := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	if v := get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return manager.InvalidQuery("", "limit: %v", err)
		}
		query.Limit = limit
	}
	if v := get("countrycodes"); v != "" {
		query.CountryCodes = strings.Split(v, ",")
	}
	query.Language = get("language")
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch manager.KindOf(err) {
	case manager.KindInvalidQuery:
		status = http.StatusBadRequest
	case manager.KindCancelled:
		status = http.StatusRequestTimeout
	case manager.KindProvider:
		if manager.IsQuotaExceeded(err) {
			status = http.StatusTooManyRequests
		}
	}

	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}

	var pe *manager.ProviderError
	kind := "unknown"
	if errors.As(err, &pe) {
		kind = pe.Kind.String()
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "kind": kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
