package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ratelim/internal/config"
	"ratelim/internal/events"
	"ratelim/internal/pacer"
)

type Server struct {
	cfg     *config.Manager
	pacer   *pacer.Handle
	events  *events.Store
	logger  *slog.Logger
	version string
	metrics http.Handler
}

type statusResponse struct {
	Status     string       `json:"status"`
	Time       string       `json:"time"`
	Version    string       `json:"version"`
	ConfigPath string       `json:"config_path"`
	Pacer      pacer.Status `json:"pacer"`
}

func NewServer(cfg *config.Manager, handle *pacer.Handle, eventStore *events.Store, reg *prometheus.Registry, logger *slog.Logger, version string) *Server {
	var metricsHandler http.Handler
	if reg != nil {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	return &Server{
		cfg:     cfg,
		pacer:   handle,
		events:  eventStore,
		logger:  logger,
		version: version,
		metrics: metricsHandler,
	}
}

func Start(ctx context.Context, cfg *config.Manager, handle *pacer.Handle, eventStore *events.Store, reg *prometheus.Registry, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := NewServer(cfg, handle, eventStore, reg, logger, version)

	httpServer := &http.Server{Addr: current.Addr, Handler: server.routes()}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/trigger", s.handleTrigger)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "http"
	}
	res := s.pacer.Get().Trigger(r.Context(), source)
	if res.Firing == nil {
		// Still cooling down; tell the client when to come back.
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(res.Remaining)))
		writeJSON(w, http.StatusTooManyRequests, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp := statusResponse{
		Status:     "ok",
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Version:    s.version,
		ConfigPath: s.cfg.Path(),
		Pacer:      s.pacer.Get().Status(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = v
	}
	writeJSON(w, http.StatusOK, s.events.List(limit))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func retryAfterSeconds(remaining time.Duration) int {
	secs := int(math.Ceil(remaining.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
