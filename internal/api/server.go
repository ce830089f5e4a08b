// Package api serves identifier conversion, metadata and search over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/resolver"
	"github.com/nishad/sradb/internal/search"
)

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	server   *http.Server
	source   resolver.Source
	resolver *resolver.Resolver
	search   search.Options
	// sourceName is reported by /health, e.g. "snapshot" or "eutils".
	sourceName string
}

// Config holds server configuration
type Config struct {
	Host       string
	Port       int
	EnableCORS bool
	// SourceName describes the metadata source in health responses.
	SourceName string
	// Quiet disables the request log.
	Quiet bool
}

// NewServer creates a new API server over source. The server owns source and
// closes it on Shutdown.
func NewServer(cfg *Config, source resolver.Source, searchOpts search.Options) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		source:     source,
		resolver:   resolver.New(source),
		search:     searchOpts,
		sourceName: cfg.SourceName,
	}

	s.setupRoutes()

	// Setup middleware
	if cfg.EnableCORS {
		s.router.Use(corsMiddleware)
	}
	if !cfg.Quiet {
		s.router.Use(loggingMiddleware)
	}
	s.router.Use(jsonMiddleware)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // live NCBI lookups are paced
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/pairs", s.handlePairs).Methods("GET")
	api.HandleFunc("/convert/{from}/{to}", s.handleConvert).Methods("GET", "POST")
	api.HandleFunc("/metadata", s.handleMetadata).Methods("GET", "POST")
	api.HandleFunc("/search", s.handleSearch).Methods("GET", "POST")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	if s.source != nil {
		return s.source.Close()
	}
	return nil
}

// Middleware functions

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Helper functions

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"status":  status,
	})
}

// writeErr maps an error kind onto an HTTP status.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetKind(err) {
	case errors.KindMissingQuery, errors.KindIncorrectField, errors.KindValidation:
		status = http.StatusBadRequest
	case errors.KindNotFound:
		status = http.StatusNotFound
	case errors.KindNetwork:
		status = http.StatusBadGateway
	}
	s.writeError(w, status, err.Error())
}

// handleRoot returns API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "sradb API",
		"description": "SRA, ENA and GEO metadata lookup",
		"endpoints": map[string]string{
			"pairs":    "/api/v1/pairs",
			"convert":  "/api/v1/convert/{from}/{to}?id=...",
			"metadata": "/api/v1/metadata?id=...",
			"search":   "/api/v1/search?db=sra&query=...",
			"health":   "/api/v1/health",
		},
	}
	s.writeJSON(w, http.StatusOK, info)
}

// handleHealth returns health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"source":    s.sourceName,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
