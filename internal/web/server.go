// Package web serves the wiki over HTTP.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rcliao/wikiserve/internal/compat"
	"github.com/rcliao/wikiserve/internal/config"
	"github.com/rcliao/wikiserve/internal/logger"
	"github.com/rcliao/wikiserve/internal/metrics"
	"github.com/rcliao/wikiserve/internal/render"
	"github.com/rcliao/wikiserve/internal/session"
	"github.com/rcliao/wikiserve/internal/store"
	"github.com/rcliao/wikiserve/internal/wiki"
)

// Options holds the collaborators a Server is built from. Logger and
// Metrics may be nil.
type Options struct {
	Config  *config.Config
	Store   store.Store
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// Server is the wiki HTTP server.
type Server struct {
	router *http.ServeMux
	server *http.Server
	cfg    *config.Config

	store    store.Store
	locator  *wiki.Locator
	editor   *wiki.Editor
	gate     *compat.Gate
	renderer *render.Renderer
	views    *views
	proxies  session.Proxies

	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewServer creates a new wiki server.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Store == nil {
		return nil, fmt.Errorf("web: config and store are required")
	}
	v, err := loadViews()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	proxies, err := session.ParseProxies(opts.Config.TrustedProxies)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   http.NewServeMux(),
		cfg:      opts.Config,
		store:    opts.Store,
		locator:  wiki.NewLocator(opts.Store),
		editor:   wiki.NewEditor(opts.Store),
		gate:     compat.NewGate(opts.Config.MinBrowsers),
		renderer: render.New(render.Options{H1Title: opts.Config.Wiki.H1Title}),
		views:    v,
		proxies:  proxies,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics(prometheus.NewRegistry())
	}

	s.registerRoutes()

	handler := s.applyMiddleware(s.router)
	s.server = &http.Server{
		Addr:         opts.Config.Addr,
		Handler:      handler,
		ReadTimeout:  opts.Config.ReadTimeout,
		WriteTimeout: opts.Config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// registerRoutes wires every route. Patterns are relative to the mount
// point; the base path is stripped before the mux sees a request.
func (s *Server) registerRoutes() {
	s.handle("GET /{$}", "root", s.handleRoot)
	s.handle("GET /search", "search", s.handleSearch)
	s.handle("GET /pages", "pages", s.handlePages)
	s.handle("GET /history/{path...}", "history", s.handleHistory)
	s.handle("GET /edit/{path...}", "edit_form", s.requireSupported(s.handleEditForm))
	s.handle("POST /edit/{path...}", "edit", s.requireSupported(s.handleEdit))
	s.handle("POST /create", "create", s.requireSupported(s.handleCreate))
	s.handle("GET /", "dispatch", s.handleDispatch)
}

// handle registers h under pattern and labels its requests with route for
// metrics.
func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.router.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		setRoute(r.Context(), route)
		h(w, r)
	})
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last one wraps first)
	handler = mount(s.cfg.BasePath, handler)
	handler = gzhttp.GzipHandler(handler)
	handler = session.Middleware(session.Headers{
		Name:      s.cfg.AuthorHeader,
		Email:     s.cfg.AuthorEmailHeader,
		Forwarded: []string{ForwardedPrefixHeader},
	}, s.proxies)(handler)
	handler = RecoveryMiddleware(s.log)(handler)
	handler = MetricsMiddleware(s.metrics)(handler)
	handler = LoggingMiddleware(s.log)(handler)
	handler = RequestIDMiddleware()(handler)
	return handler
}

// mount serves h below base, stripping base from the request path.
func mount(base string, h http.Handler) http.Handler {
	if base == "" {
		return h
	}
	stripped := http.StripPrefix(base, h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == base {
			http.Redirect(w, r, base+"/", http.StatusMovedPermanently)
			return
		}
		stripped.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting wiki server").
		Str("addr", s.server.Addr).
		Str("base_path", s.cfg.BasePath).
		Send()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("wiki server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down wiki server").Send()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}
