// Copyright 2024-2026 Aiku AI

package talk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// maxRequestBodySize is the maximum allowed request body for the resolve
// endpoint (1 MB).
const maxRequestBodySize = 1 << 20

// APIServer exposes the resolver over HTTP for other services.
type APIServer struct {
	resolver *Resolver
	server   *http.Server
	log      zerolog.Logger
}

// NewAPIServer creates an API server on addr backed by resolver.
func NewAPIServer(addr string, resolver *Resolver, log zerolog.Logger) *APIServer {
	api := &APIServer{
		resolver: resolver,
		log:      log.With().Str("component", "api").Logger(),
	}
	router := mux.NewRouter()
	router.Use(api.requestLogger)
	router.HandleFunc("/api/v1/resolve", api.handleResolve).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/rooms", api.handleSearch).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/test", api.handleTest).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/healthz", api.handleHealthz).Methods(http.MethodGet)
	api.server = &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// A resolution can wait on several 30s upstream calls in sequence
		// (notifications, action, room list, join), so the write timeout
		// has to cover the whole chain.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return api
}

// Handler returns the configured router, mainly for tests.
func (a *APIServer) Handler() http.Handler {
	return a.server.Handler
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called. A clean shutdown returns nil.
func (a *APIServer) Start() error {
	a.log.Info().Str("addr", a.server.Addr).Msg("Starting API server")
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// requestLogger tags each request with a correlation ID and logs it on
// completion.
func (a *APIServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		start := time.Now()
		next.ServeHTTP(w, r)
		a.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("API request")
	})
}

type resolveRequest struct {
	Identifier string `json:"identifier"`
	SearchBy   string `json:"search_by,omitempty"`
}

func (a *APIServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	var req resolveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	searchBy, err := ParseSearchField(req.SearchBy)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.writeJSON(w, a.resolver.Resolve(r.Context(), req.Identifier, searchBy))
}

func (a *APIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	rooms, err := a.resolver.Search(r.Context(), r.URL.Query().Get("term"))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if rooms == nil {
		rooms = []Room{}
	}
	a.writeJSON(w, rooms)
}

func (a *APIServer) handleTest(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, a.resolver.TestConnection(r.Context()))
}

func (a *APIServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, map[string]string{"status": "ok"})
}

func (a *APIServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Warn().Err(err).Msg("Failed to write response")
	}
}
