package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/input/keymap"
)

// ShutdownTimeout bounds the graceful shutdown in ListenAndServe.
const ShutdownTimeout = 5 * time.Second

// Server serves the HTTP API.
type Server struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *httpMetrics
	router   chi.Router

	mu      sync.RWMutex
	cfg     *config.Config
	keymaps *keymap.Registry
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry exports metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// New creates a server for cfg. A nil cfg uses config.Default.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	var err error
	if s.metrics, err = newHTTPMetrics(s.registry); err != nil {
		return nil, fmt.Errorf("registering http metrics: %w", err)
	}
	if err := s.Reload(cfg); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, s.logRequests, middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/commands", s.handleCommands)
	r.Post("/convert", s.handleConvert)
	r.Post("/dispatch", s.handleDispatch)
	r.Post("/enabled", s.handleEnabled)
	r.Post("/active", s.handleActive)
	r.Get("/metrics", s.handleMetrics)
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the prometheus registry the server exports.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Config returns the active configuration.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Reload swaps in cfg for subsequent requests. The listen address is
// only read by ListenAndServe.
func (s *Server) Reload(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("server: nil config")
	}
	km := keymap.NewRegistry(cfg.Editor.Mac)
	if err := keymap.LoadDefaults(km); err != nil {
		return fmt.Errorf("loading default keymaps: %w", err)
	}
	if err := cfg.ApplyKeymap(km); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	s.keymaps = km
	s.mu.Unlock()

	if old != nil && old.Server.Addr != cfg.Server.Addr {
		s.logger.Warn("listen address change needs a restart", "addr", old.Server.Addr, "new", cfg.Server.Addr)
	}
	return nil
}

func (s *Server) snapshot() (*config.Config, *keymap.Registry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.keymaps
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	cfg := s.Config()
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	cfg, _ := s.snapshot()
	if !cfg.Server.Metrics {
		http.NotFound(w, r)
		return
	}
	promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
