package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// LifecycleHooks run around the HTTP server: OnStart in registration order
// before serving, OnStop in reverse order after shutdown.
type LifecycleHooks struct {
	OnStart func(context.Context) error
	OnStop  func(context.Context) error
}

// RouteRegistrar is implemented by every HTTP module.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

type ServerOptions struct {
	Name            string
	Addr            string
	CORSOrigins     []string
	Logger          Logger
	Modules         []RouteRegistrar
	Lifecycles      []LifecycleHooks
	ShutdownTimeout time.Duration
}

type Server struct {
	opts   ServerOptions
	logger Logger
	router chi.Router
}

func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = NewNoopLogger()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Admin-Token", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		RespondSuccess(w, map[string]string{"status": "ok", "app": opts.Name})
	})

	for _, m := range opts.Modules {
		m.RegisterRoutes(r)
	}

	return &Server{opts: opts, logger: logger, router: r}
}

// Router exposes the assembled router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Run starts lifecycle hooks, serves HTTP until ctx is done and then stops
// everything that was started.
func (s *Server) Run(ctx context.Context) error {
	started := make([]LifecycleHooks, 0, len(s.opts.Lifecycles))
	for _, h := range s.opts.Lifecycles {
		if h.OnStart != nil {
			if err := h.OnStart(ctx); err != nil {
				s.stop(started)
				return fmt.Errorf("lifecycle start failed: %w", err)
			}
		}
		started = append(started, h)
	}

	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown failed", "error", err)
	}

	s.stop(started)
	return runErr
}

func (s *Server) stop(started []LifecycleHooks) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	for i := len(started) - 1; i >= 0; i-- {
		if started[i].OnStop == nil {
			continue
		}
		if err := started[i].OnStop(ctx); err != nil {
			s.logger.Error("lifecycle stop failed", "error", err)
		}
	}
}
