package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/monitor"
)

// Config holds the server configuration
type Config struct {
	Host string
	Port int

	// CertPath and KeyPath enable HTTPS when both are set
	CertPath string
	KeyPath  string

	// RecordDir is where heartbeat snapshots are appended as JSON lines (empty = disabled)
	RecordDir string
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server exposes a Monitor's connectivity state to local observers:
// a JSON endpoint, a WebSocket stream of snapshots and Prometheus metrics.
type Server struct {
	config   *Config
	monitor  *monitor.Monitor
	registry *prometheus.Registry
	router   *mux.Router
	upgrader websocket.Upgrader

	httpServer *http.Server
	wg         sync.WaitGroup
	mu         sync.Mutex
	clients    map[string]*websocket.Conn
}

// New creates a new Server for m. It registers a monitor.Collector on its own
// Prometheus registry.
func New(config *Config, m *monitor.Monitor) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(monitor.NewCollector(m))

	s := &Server{
		config:   config,
		monitor:  m,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*websocket.Conn),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	listener, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Listen binds the configured address without serving on it.
func (s *Server) Listen() (net.Listener, error) {
	addr := s.config.Addr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return listener, nil
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if s.config.RecordDir != "" {
		recorder, err := NewRecorder(s.config.RecordDir)
		if err != nil {
			return err
		}
		states, unsubscribe := s.monitor.Subscribe()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer recorder.Close()
			recorder.Run(ctx, states)
		}()
		defer unsubscribe()
	}

	tlsEnabled := s.config.CertPath != "" && s.config.KeyPath != ""
	logging.Info("Starting Chalkydri monitor server",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("tls", tlsEnabled),
		zap.String("device", s.monitor.Options().Device),
	)

	errChan := make(chan error, 1)
	go func() {
		var err error
		if tlsEnabled {
			err = s.httpServer.ServeTLS(listener, s.config.CertPath, s.config.KeyPath)
		} else {
			err = s.httpServer.Serve(listener)
		}
		errChan <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops the HTTP server and closes every WebSocket client.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	// Hijacked connections are not tracked by http.Server
	s.mu.Lock()
	for addr, conn := range s.clients {
		logging.Debug("Closing WebSocket client", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	return err
}

// GetActiveConnections returns the number of connected WebSocket clients
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) track(addr string, conn *websocket.Conn) {
	s.mu.Lock()
	s.clients[addr] = conn
	s.mu.Unlock()
}

func (s *Server) untrack(addr string) {
	s.mu.Lock()
	delete(s.clients, addr)
	s.mu.Unlock()
}
