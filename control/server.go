// Package control implements the HTTP control surface: the
// add_component/connect/run/status/... operation set an editor or embedding
// program drives a Network through, plus a Go client for the same surface.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/network"
)

// Server exposes one Network's build operations, run control, and
// introspection over HTTP in a plain request/response JSON idiom.
type Server struct {
	net *network.Network

	mu      sync.Mutex
	running bool
	lastRun error
}

// NewServer wraps net for HTTP control.
func NewServer(net *network.Network) *Server {
	return &Server{net: net}
}

// Handler builds the ServeMux routing every control operation under prefix
// (e.g. "/" or "/api/v1/").
func (s *Server) Handler(prefix string) http.Handler {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	// The by-name handlers parse paths relative to the prefix.
	trim := strings.TrimSuffix(prefix, "/")
	mux := http.NewServeMux()
	mux.HandleFunc(prefix+"components", s.handleComponents)
	mux.Handle(prefix+"components/", http.StripPrefix(trim, http.HandlerFunc(s.handleComponentByName)))
	mux.HandleFunc(prefix+"connections", s.handleConnections)
	mux.HandleFunc(prefix+"iips", s.handleIIPs)
	mux.HandleFunc(prefix+"run", s.handleRun)
	mux.HandleFunc(prefix+"terminate", s.handleTerminate)
	mux.HandleFunc(prefix+"status", s.handleStatus)
	mux.Handle(prefix+"describe/", http.StripPrefix(trim, http.HandlerFunc(s.handleDescribeKind)))
	return mux
}

type addComponentRequest struct {
	Name   string          `json:"name"`
	Kind   string          `json:"kind"`
	Config json.RawMessage `json:"config,omitempty"`
	IIPs   map[string]any  `json:"iips,omitempty"`
}

// handleComponents implements add_component (POST) and list_components (GET).
func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.net.ListComponents())
	case http.MethodPost:
		var req addComponentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := s.net.AddComponent(req.Name, req.Kind, req.Config, req.IIPs); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	default:
		methodNotAllowed(w)
	}
}

// handleComponentByName implements remove_component (DELETE) and
// describe_component for a live instance (GET .../components/{name}).
func (s *Server) handleComponentByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/components/")
	name = strings.Trim(name, "/")
	if name == "" {
		writeError(w, fbperrors.WrapInvalid(fmt.Errorf("missing component name"), "control", "handleComponentByName"))
		return
	}
	switch r.Method {
	case http.MethodDelete:
		if err := s.net.RemoveComponent(name); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		format, err := s.net.DescribeComponentFormat(name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, format)
	default:
		methodNotAllowed(w)
	}
}

// handleDescribeKind implements describe_component(kind) against the
// registry rather than a live instance (GET .../describe/{kind}).
func (s *Server) handleDescribeKind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	kind := strings.TrimPrefix(r.URL.Path, "/describe/")
	kind = strings.Trim(kind, "/")
	format, err := s.net.DescribeKind(kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, format)
}

type connectionRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Capacity int    `json:"capacity,omitempty"`
}

// handleConnections implements connect (POST), disconnect (DELETE), and
// list_connections (GET).
func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		edges := s.net.ListConnections()
		out := make([]map[string]string, 0, len(edges))
		for _, e := range edges {
			out = append(out, map[string]string{"from": FormatPortRef(e.From), "to": FormatPortRef(e.To)})
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost, http.MethodDelete:
		var req connectionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		from, err := ParsePortRef(req.From)
		if err != nil {
			writeError(w, err)
			return
		}
		to, err := ParsePortRef(req.To)
		if err != nil {
			writeError(w, err)
			return
		}
		if r.Method == http.MethodPost {
			err = s.net.Connect(from, to, req.Capacity)
		} else {
			err = s.net.Disconnect(from, to)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

type iipRequest struct {
	Port  string `json:"port"`
	Value any    `json:"value,omitempty"`
}

// handleIIPs implements initialize (POST) and uninitialize (DELETE).
func (s *Server) handleIIPs(w http.ResponseWriter, r *http.Request) {
	var req iipRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref, err := ParsePortRef(req.Port)
	if err != nil {
		writeError(w, err)
		return
	}
	switch r.Method {
	case http.MethodPost:
		err = s.net.Initialize(ref, req.Value)
	case http.MethodDelete:
		err = s.net.Uninitialize(ref)
	default:
		methodNotAllowed(w)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRun implements run(): starts the network in the background and
// returns immediately rather than blocking the HTTP request for the
// network's full lifetime; status() exposes the terminal state for polling.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		writeError(w, fbperrors.WrapInvalid(fmt.Errorf("network already running"), "control", "handleRun"))
		return
	}
	s.running = true
	s.lastRun = nil
	s.mu.Unlock()

	// The run must outlive this request: r.Context() is cancelled as soon as
	// the handler returns, so the background run gets its own context and is
	// stopped via terminate().
	go func() {
		err := s.net.Run(context.Background())
		s.mu.Lock()
		s.running = false
		s.lastRun = err
		s.mu.Unlock()
	}()

	w.WriteHeader(http.StatusAccepted)
}

// handleTerminate implements terminate().
func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.net.Terminate()
	w.WriteHeader(http.StatusNoContent)
}

// handleStatus implements status().
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	status := s.net.Status()
	s.mu.Lock()
	runErr := s.lastRun
	s.mu.Unlock()
	resp := struct {
		network.Status
		RunError string `json:"run_error,omitempty"`
	}{Status: status}
	if runErr != nil {
		resp.RunError = runErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		writeError(w, fbperrors.WrapInvalid(err, "control", "decode request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case fbperrors.IsInvalid(err):
		return http.StatusBadRequest
	case fbperrors.IsTransient(err):
		return http.StatusServiceUnavailable
	case fbperrors.IsFatal(err):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
