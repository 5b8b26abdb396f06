// Package server exposes loaded sessions and their derived views over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jgoulah/pvdash/internal/logging"
	"github.com/jgoulah/pvdash/internal/session"
)

// Options configures the HTTP API
type Options struct {
	MaxUploadBytes int64     // Upload size limit
	MaxRows        int       // Row cap applied to uploads (0 = no cap)
	AccessLog      io.Writer // Combined access log destination (default os.Stdout)
	Logger         *logging.Logger
}

// Server serves the session API
type Server struct {
	store *session.Store
	opts  Options
	log   *logging.Logger
}

// New creates a server over store
func New(store *session.Store, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stdout
	}
	log := opts.Logger
	if log == nil {
		log = logging.Global()
	}
	return &Server{store: store, opts: opts, log: log}
}

// NewRouter registers the API routes
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/api/sessions", s.createSession).Methods("POST")
	r.HandleFunc("/api/sessions/{id}", s.getSession).Methods("GET")
	r.HandleFunc("/api/sessions/{id}", s.deleteSession).Methods("DELETE")
	r.HandleFunc("/api/sessions/{id}/raw", s.withView(s.raw)).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/daily", s.withView(s.daily)).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/monthly", s.withView(s.monthly)).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/overlay", s.withView(s.overlay)).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/export/{format}", s.withView(s.export)).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, &APIError{Code: CodeNotFound, Message: "route not found"})
	})

	return r
}

// Handler returns the router wrapped with access logging
func (s *Server) Handler() http.Handler {
	return handlers.LoggingHandler(s.opts.AccessLog, s.NewRouter())
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
