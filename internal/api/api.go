// Package api implements the HTTP API server for coderev.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sprite-ai/coderev/internal/store"
)

// Server is the coderev HTTP API server.
type Server struct {
	addr    string
	version string
	store   store.Store
	mux     *http.ServeMux
	server  *http.Server
}

// New creates a new API server backed by the given store.
func New(addr, version string, st store.Store) *Server {
	s := &Server{addr: addr, version: version, store: st}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/submissions", s.handleCreateSubmission)
	s.mux.HandleFunc("GET /api/submissions", s.handleListSubmissions)
	s.mux.HandleFunc("GET /api/submissions/{id}", s.handleGetSubmission)
	s.mux.HandleFunc("GET /api/submissions/{id}/code", s.handleGetCode)
	s.mux.HandleFunc("GET /api/submissions/{id}/report", s.handleGetReport)
	s.mux.HandleFunc("POST /api/issues/{id}/fix", s.handleFixIssue)
	s.mux.HandleFunc("POST /api/v2/analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /api/v2/recommendations/apply", s.handleApplyRecommendations)
	s.mux.HandleFunc("GET /api/v2/languages", s.handleLanguages)
	s.mux.HandleFunc("GET /languages", s.handleLanguages)
	s.mux.HandleFunc("POST /review", s.handleLegacyReview)
	s.mux.HandleFunc("GET /ws/analysis", s.handleWebSocket)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	log.Printf("coderev API server listening on %s", s.addr)
	return s.server.ListenAndServe()
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
