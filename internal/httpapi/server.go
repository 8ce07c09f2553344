package httpapi

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/auditlog"
	"github.com/hamed0406/checkwatch/internal/httpapi/middleware"
	"github.com/hamed0406/checkwatch/internal/scheduler"
)

// LogReader is the read-only slice of the audit log the ops surface needs.
type LogReader interface {
	List(includeCompressed bool) ([]string, error)
	Decompress(archive string) ([]byte, error)
}

type StatusReporter interface {
	Status() scheduler.Status
}

type Server struct {
	Logger   *zap.Logger
	Logs     LogReader
	Worker   StatusReporter
	Gatherer prometheus.Gatherer

	// RequestsPerMinute caps requests per client IP; 0 disables the limit.
	RequestsPerMinute int
	started           time.Time
}

func NewServer(l *zap.Logger, logs LogReader, status StatusReporter, g prometheus.Gatherer) *Server {
	return &Server{
		Logger:            l,
		Logs:              logs,
		Worker:            status,
		Gatherer:          g,
		RequestsPerMinute: 120,
		started:           time.Now(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))
	r.Use(middleware.RateLimit(s.RequestsPerMinute, s.RequestsPerMinute/2))

	r.Get("/healthz", s.handleHealth)
	if s.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/api/logs", s.handleListLogs)
	r.Get("/api/logs/{name}/archive", s.handleArchive)
	return r
}

type healthResponse struct {
	Status         string `json:"status"`
	UptimeSeconds  int64  `json:"uptimeSeconds"`
	LastCheckCycle *int64 `json:"lastCheckCycle,omitempty"` // unix ms
	LastRotation   *int64 `json:"lastRotation,omitempty"`   // unix ms
}

func unixMilli(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if s.Worker != nil {
		st := s.Worker.Status()
		resp.LastCheckCycle = unixMilli(st.LastCheckCycle)
		resp.LastRotation = unixMilli(st.LastRotation)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	compressed := r.URL.Query().Get("compressed") == "true"
	names, err := s.Logs.List(compressed)
	if err != nil {
		s.Logger.Error("ops_list_logs_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := s.Logs.Decompress(name)
	switch {
	case errors.Is(err, auditlog.ErrBadName):
		writeError(w, http.StatusBadRequest, "bad archive name")
		return
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, "archive not found")
		return
	case err != nil:
		s.Logger.Error("ops_decompress_failed", zap.String("archive", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "decompress error")
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
