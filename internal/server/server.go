// Package server implements the markdown preview HTTP server.
//
// Every path is owned by one handler: "/" lists the markdown files of the
// served directory and "/<name>" renders one of them. Files are re-read and
// re-rendered on every request.
package server

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/mdview/internal/assets"
	"github.com/conneroisu/mdview/internal/config"
	"github.com/conneroisu/mdview/internal/errors"
	"github.com/conneroisu/mdview/internal/logging"
	"github.com/conneroisu/mdview/internal/middleware"
	"github.com/conneroisu/mdview/internal/monitoring"
	"github.com/conneroisu/mdview/internal/renderer"
)

const (
	pageHead = "<html><head><style>\n"
	pageBody = "</style></head><body class=\"markdown-body\">\n"
	pageTail = "</body></html>"
)

// Server serves markdown files from a single directory.
type Server struct {
	config     *config.Config
	dir        string
	rootName   string
	renderers  *renderer.Set
	stylesheet string
	logger     logging.Logger
	metrics    *monitoring.Metrics
	now        func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics enables request metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithClock replaces the clock used for the listing's Last-Modified header.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithRenderers replaces the renderer set built from the config.
func WithRenderers(set *renderer.Set) Option {
	return func(s *Server) {
		s.renderers = set
	}
}

// New creates a server for cfg. The stylesheet is built once here.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	css, err := renderer.HighlightCSS(cfg.Render.Style)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:     cfg,
		dir:        cfg.Render.Dir,
		rootName:   cfg.RootName(),
		stylesheet: css + assets.DocumentCSS(),
		logger:     logging.NewNopLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.renderers == nil {
		s.renderers, err = renderer.NewSet(renderer.Options{
			Style:    cfg.Render.Style,
			TabWidth: cfg.Render.TabWidth,
		})
		if err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.WithComponent("server")

	return s, nil
}

// Handler returns the preview handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return middleware.New(
		middleware.Recover(s.logger),
		middleware.Logging(s.logger),
		middleware.Metrics(s.metrics),
		middleware.SecurityHeaders(),
	).Then(http.HandlerFunc(s.route))
}

// Page renders src with the given flavor and wraps it in the styled document.
func (s *Server) Page(src []byte, flavor renderer.Flavor) ([]byte, error) {
	body, err := s.renderers.For(flavor).Render(src)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(pageHead) + len(s.stylesheet) + len(pageBody) + len(body) + len(pageTail))
	buf.WriteString(pageHead)
	buf.WriteString(s.stylesheet)
	buf.WriteString(pageBody)
	buf.Write(body)
	buf.WriteString(pageTail)
	return buf.Bytes(), nil
}

// Run binds the first free port in the configured range and serves until ctx
// is cancelled. ready, if non-nil, receives the bound address.
func (s *Server) Run(ctx context.Context, ready func(addr net.Addr)) error {
	ln, err := Listen(ctx, s.config.Server.Host, s.config.Server.PortMin, s.config.Server.PortMax, s.logger)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(ln.Addr())
	}
	return s.Serve(ctx, ln)
}

// Serve serves the preview handler on ln, and the metrics handler on its own
// listener when a metrics address is configured, until ctx is cancelled.
// Both servers are then shut down within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	servers := []*http.Server{s.httpServer(s.Handler())}
	listeners := []net.Listener{ln}

	if addr := s.config.Server.MetricsAddr; addr != "" && s.metrics != nil {
		var lc net.ListenConfig
		mln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			_ = ln.Close()
			return errors.NewInternalError(errors.ErrCodeBindFailed,
				fmt.Sprintf("cannot bind metrics address %s", addr), err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		servers = append(servers, s.httpServer(mux))
		listeners = append(listeners, mln)
		s.logger.Info(ctx, "serving metrics", "addr", mln.Addr().String())
	}

	g, gctx := errgroup.WithContext(ctx)

	for i := range servers {
		srv, l := servers[i], listeners[i]
		g.Go(func() error {
			if err := srv.Serve(l); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", l.Addr(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		timeout := s.config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), timeout)
		defer cancel()

		s.logger.Info(shutdownCtx, "shutting down")
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return stderrors.Join(errs...)
	})

	return g.Wait()
}

func (s *Server) httpServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
