// Package figmatest runs an in-process stand-in for the Figma REST API.
// It serves the endpoints figma-cards calls, authenticates with X-Figma-Token
// and can be told to fail individual nodes or endpoints.
package figmatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kataras/figma-cards/pkg/figma"
)

// Token is the access token the fake server accepts.
const Token = "figd_test-token"

// FileKey is the only file the fake server knows.
const FileKey = "FILE123"

// Server is a fake Figma API.
type Server struct {
	srv *httptest.Server

	mu            sync.Mutex
	nodes         map[string]figma.Node
	failNodes     map[string]int
	resources     map[string]json.RawMessage
	failResources map[string]int
	images        map[string][]byte
	requests      []string
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		nodes:         make(map[string]figma.Node),
		failNodes:     make(map[string]int),
		resources:     make(map[string]json.RawMessage),
		failResources: make(map[string]int),
		images:        make(map[string][]byte),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/files/{fileKey}", s.handleResource("file"))
		r.Get("/files/{fileKey}/nodes", s.handleNodes)
		r.Get("/files/{fileKey}/styles", s.handleResource("styles"))
		r.Get("/files/{fileKey}/components", s.handleResource("components"))
		r.Get("/files/{fileKey}/comments", s.handleResource("comments"))
		r.Get("/files/{fileKey}/variables/local", s.handleResource("variables"))
		r.Get("/images/{fileKey}", s.handleImages)
	})
	r.Get("/render/{nodeID}", s.handleRender)

	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)
	return s
}

// BaseURL is the API root to hand to figma.WithBaseURL.
func (s *Server) BaseURL() string {
	return s.srv.URL + "/v1"
}

// AddNode registers a document subtree under its ID.
func (s *Server) AddNode(node figma.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.ID] = node
}

// FailNode makes any nodes request containing id answer with status.
func (s *Server) FailNode(id string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNodes[id] = status
}

// SetResource sets the body served for "file", "styles", "components", "comments" or "variables".
func (s *Server) SetResource(name string, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[name] = json.RawMessage(body)
}

// FailResource makes the named resource answer with status.
func (s *Server) FailResource(name string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failResources[name] = status
}

// SetImage registers the bytes served when node id is rendered.
func (s *Server) SetImage(id string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[id] = data
}

// Requests returns the request paths seen so far, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Figma-Token") != Token {
			writeError(w, http.StatusForbidden, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "fileKey") != FileKey {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	ids := strings.Split(r.URL.Query().Get("ids"), ",")

	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := make(map[string]any, len(ids))
	for _, id := range ids {
		if status, ok := s.failNodes[id]; ok {
			writeError(w, status, http.StatusText(status))
			return
		}
		if node, ok := s.nodes[id]; ok {
			nodes[id] = map[string]any{"document": node}
		} else {
			nodes[id] = nil
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":  "Finance Dashboard",
		"nodes": nodes,
	})
}

func (s *Server) handleResource(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "fileKey") != FileKey {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}

		s.mu.Lock()
		status, failed := s.failResources[name]
		body, ok := s.resources[name]
		s.mu.Unlock()

		if failed {
			writeError(w, status, fmt.Sprintf("%s unavailable", name))
			return
		}
		if !ok {
			body = json.RawMessage(fmt.Sprintf(`{"status":200,"error":false,"meta":{"%s":[]}}`, name))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	ids := strings.Split(r.URL.Query().Get("ids"), ",")

	s.mu.Lock()
	defer s.mu.Unlock()

	images := make(map[string]any, len(ids))
	for _, id := range ids {
		if _, ok := s.images[id]; ok {
			images[id] = s.srv.URL + "/render/" + id
		} else {
			images[id] = nil
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"err": nil, "images": images})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, ok := s.images[chi.URLParam(r, "nodeID")]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"status": status, "err": msg})
}
