package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/version"
)

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	Device    string `json:"device"`
	Ticks     uint64 `json:"ticks"`
	Failures  uint64 `json:"failures"`
	Interval  string `json:"interval"`
	Observers int    `json:"observers"`
	Version   string `json:"version"`
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/ws/state", s.handleWebSocket).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.State())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ticks, failures := s.monitor.Stats()
	opts := s.monitor.Options()
	writeJSON(w, http.StatusOK, StatsResponse{
		Device:    opts.Device,
		Ticks:     ticks,
		Failures:  failures,
		Interval:  opts.Interval.String(),
		Observers: s.GetActiveConnections(),
		Version:   version.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write JSON response", zap.Error(err))
	}
}

// logRequests logs every request at debug level.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debug("Observer request",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
