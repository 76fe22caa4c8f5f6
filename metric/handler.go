package metric

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	fbperrors "github.com/c360/fbpcore/errors"
)

// Server is the HTTP surface exposing a Registry's Prometheus metrics,
// alongside the control surface.
type Server struct {
	port     int
	path     string
	registry *Registry
	server   *http.Server
	mu       sync.Mutex
}

// NewServer creates a metrics server for registry. path defaults to
// "/metrics" and port to 9090 when left zero.
func NewServer(port int, path string, registry *Registry) *Server {
	if path == "" {
		path = "/metrics"
	}
	if port == 0 {
		port = 9090
	}
	return &Server{port: port, path: path, registry: registry}
}

// Start runs the server, blocking until it is stopped or fails.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return fbperrors.WrapInvalid(fmt.Errorf("server already running"), "Server", "Start")
	}
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.HandlerFor(s.registry.Prometheus(), promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	s.server = &http.Server{Addr: fmt.Sprintf(":%d", s.port), Handler: mux}
	server := s.server
	s.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fbperrors.WrapFatal(err, "Server", "Start")
	}
	return nil
}

// Stop closes the server, if running.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	err := s.server.Close()
	s.server = nil
	if err != nil {
		return fbperrors.WrapTransient(err, "Server", "Stop")
	}
	return nil
}

// Address returns the server's metrics URL.
func (s *Server) Address() string {
	return fmt.Sprintf("http://localhost:%d%s", s.port, s.path)
}
