// Package api exposes the dashboard state over HTTP for the presentation
// layer: each window's current collection plus its derived statistics and
// pattern breakdowns, computed fresh on every read. All endpoints are
// read-only except the manual refresh trigger kept for debug consumers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"fraudwatch/pkg/logging"
	"fraudwatch/pkg/stats"
	"fraudwatch/pkg/window"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Refresher triggers an immediate wholesale refresh of one window.
type Refresher interface {
	Refresh(ctx context.Context, h window.Horizon) error
}

// Server serves the dashboard API.
type Server struct {
	store     *window.Store
	refresher Refresher
	config    ServerConfig
	logger    *logging.Logger
	server    *http.Server
}

// ServerConfig holds API server configuration.
type ServerConfig struct {
	// Address to listen on, e.g. ":8080".
	Address string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
}

// DefaultServerConfig returns a default configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:      ":8080",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// NewServer creates the API server over the given store. refresher may be
// nil, in which case the manual refresh endpoint responds 503.
func NewServer(store *window.Store, refresher Refresher, config ServerConfig) *Server {
	s := &Server{
		store:     store,
		refresher: refresher,
		config:    config,
		logger:    logging.L().Named("api"),
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/windows", s.handleWindows).Methods(http.MethodGet)
	router.HandleFunc("/windows/{horizon}", s.handleWindow).Methods(http.MethodGet)
	router.HandleFunc("/windows/{horizon}/stats", s.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/windows/{horizon}/patterns", s.handlePatterns).Methods(http.MethodGet)
	router.HandleFunc("/windows/{horizon}/age-segments", s.handleAgeSegments).Methods(http.MethodGet)
	router.HandleFunc("/windows/{horizon}/refresh", s.handleRefresh).Methods(http.MethodPost)
	if config.MetricsHandler != nil {
		router.Handle("/metrics", config.MetricsHandler).Methods(http.MethodGet)
	}

	s.server = &http.Server{
		Addr:         config.Address,
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("api server failed", zap.Error(err))
		}
	}()
	s.logger.Info("api server listening", zap.String("address", s.config.Address))
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	sizes := s.store.Sizes()
	out := make(map[string]int, len(sizes))
	for h, n := range sizes {
		out[h.String()] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"windows": out})
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	h, ok := s.horizon(w, r)
	if !ok {
		return
	}

	records := s.store.Snapshot(h)

	// Optional tail limit for the recent-transactions view.
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid limit"})
			return
		}
		if limit < len(records) {
			records = records[len(records)-limit:]
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window":       h.String(),
		"count":        len(records),
		"transactions": records,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	h, ok := s.horizon(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stats.Compute(s.store.Snapshot(h)))
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	h, ok := s.horizon(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stats.ComputePatterns(s.store.Snapshot(h), time.Now()))
}

func (s *Server) handleAgeSegments(w http.ResponseWriter, r *http.Request) {
	h, ok := s.horizon(w, r)
	if !ok {
		return
	}

	banding := stats.SixBand
	switch r.URL.Query().Get("banding") {
	case "", "six":
	case "four":
		banding = stats.FourBand
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "banding must be four or six"})
		return
	}

	segments := stats.AgeSegments(s.store.Snapshot(h), time.Now(), banding)
	writeJSON(w, http.StatusOK, map[string]any{
		"window":      h.String(),
		"segments":    segments,
		"mostExposed": stats.MostExposed(segments),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	h, ok := s.horizon(w, r)
	if !ok {
		return
	}
	if h == window.All {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "the unbounded window has no wholesale refresh"})
		return
	}
	if s.refresher == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "refresh not available"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.refresher.Refresh(ctx, h); err != nil {
		// The window keeps its previous contents; report the failure only.
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window": h.String(),
		"count":  s.store.Len(h),
	})
}

func (s *Server) horizon(w http.ResponseWriter, r *http.Request) (window.Horizon, bool) {
	h := window.Horizon(mux.Vars(r)["horizon"])
	if !h.Valid() {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown window"})
		return "", false
	}
	return h, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
