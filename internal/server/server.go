// Package server exposes ride sessions over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lucasjlepore/ridechat/internal/history"
	"github.com/lucasjlepore/ridechat/internal/telemetry"
	"github.com/lucasjlepore/ridechat/session"
)

const (
	DefaultMaxUploadBytes  = 32 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// RideStore records loaded rides. *history.DB satisfies it.
type RideStore interface {
	Save(ctx context.Context, r history.Ride) (int64, error)
	Recent(ctx context.Context, limit int) ([]history.Ride, error)
	Health() error
}

// Config holds the listener settings.
type Config struct {
	Addr            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// Server serves the session API.
type Server struct {
	cfg      Config
	sessions *session.Manager
	store    RideStore
	log      *zap.SugaredLogger
	router   *mux.Router
}

// New builds the server. store may be nil, in which case rides are not
// recorded and /api/rides is empty.
func New(cfg Config, sessions *session.Manager, store RideStore, log *zap.SugaredLogger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	s := &Server{cfg: cfg, sessions: sessions, store: store, log: log}
	s.router = s.setupRouter()
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)
	router.Use(telemetry.Middleware)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/upload", s.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/demo", s.handleDemo).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/metrics", s.handleMetrics).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/query", s.handleQuery).Methods(http.MethodPost)
	api.HandleFunc("/rides", s.handleRides).Methods(http.MethodGet)

	return router
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugw("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr, "elapsed", time.Since(start))
	})
}
