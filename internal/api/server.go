// Package api exposes the chat pipeline over HTTP as a small JSON API.
//
// Routes:
//
//	POST /api/chat   answer the pending question of a conversation
//	GET  /content/   serve ingested documents for citation links
//	GET  /health     liveness probe
//	GET  /ready      readiness probe (content directory accessible)
package api

import (
	"errors"
	"net/http"

	"github.com/skydocs/skydocs/internal/log"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger log.Logger
	Chat   ChatService // Required

	// ContentDir, when set, is served under /content/ so answer
	// citations resolve to the stored page files.
	ContentDir string
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Chat == nil {
		return nil, errors.New("chat service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ch := &chatHandler{svc: cfg.Chat, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", ch.send)

	if cfg.ContentDir != "" {
		fs := http.FileServer(http.Dir(cfg.ContentDir))
		mux.Handle("GET /content/", http.StripPrefix("/content/", fs))
	}

	// Middleware stack (outermost first):
	//   Recovery → RequestID → Logging → Routes
	// RequestID sits before Logging so request_id is available in log attributes.
	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.HandleFunc("GET /ready", readiness(cfg.ContentDir, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
