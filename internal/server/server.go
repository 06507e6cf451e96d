// Package server exposes the daemon's HTTP surface: the JSON API used
// by the composer and capture clients, and the signer bridge endpoint
// pages connect to.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/karnagebitcoin/share-to-nostr/internal/bridge"
	"github.com/karnagebitcoin/share-to-nostr/internal/config"
	"github.com/karnagebitcoin/share-to-nostr/internal/logging"
	"github.com/karnagebitcoin/share-to-nostr/internal/publish"
	"github.com/karnagebitcoin/share-to-nostr/internal/store"
)

// Server wires the router and owns the listener lifecycle.
type Server struct {
	cfg   *config.Config
	hub   *bridge.Hub
	coord *publish.Coordinator
	store *store.Store
	log   logging.Logger
	http  *http.Server
}

// New builds a server; Run starts it.
func New(cfg *config.Config, hub *bridge.Hub, coord *publish.Coordinator, st *store.Store, log logging.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		hub:   hub,
		coord: coord,
		store: st,
		log:   log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/check-signer", s.handleCheckSigner).Methods("POST")
	api.HandleFunc("/publish", s.handlePublish).Methods("POST")
	api.HandleFunc("/capture", s.handleCapture).Methods("POST")
	api.HandleFunc("/draft", s.handleSaveDraft).Methods("POST")
	api.HandleFunc("/draft", s.handleGetDraft).Methods("GET")
	api.HandleFunc("/draft", s.handleClearDraft).Methods("DELETE")
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handlePatchSettings).Methods("PATCH")

	r.HandleFunc("/bridge", hub.ServeWS)
	r.HandleFunc("/", hub.ServePage).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	s.http = &http.Server{
		Addr:         cfg.Listen,
		Handler:      cors(r),
		ReadTimeout:  10 * time.Second,
		// Publish waits out the slowest relay before responding; the
		// write timeout must sit above the per-relay ack timeout.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the composed HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info(ctx, "listening", "addr", s.cfg.Listen)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
