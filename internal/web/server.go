// Package web serves the browser UI.
package web

import (
	"context"
	"crypto/rand"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pthm/toybox/internal/components"
	"github.com/pthm/toybox/internal/hx"
	"github.com/pthm/toybox/internal/logging"
	"github.com/pthm/toybox/internal/session"
)

//go:embed static
var staticFiles embed.FS

// DefaultCookieName names the session cookie when Options leaves it empty.
const DefaultCookieName = "toybox_session"

// htmxScript is the pinned HTMX build the page loads.
const htmxScript = "https://unpkg.com/htmx.org@2.0.4"

// Options configures a Server.
type Options struct {
	// PropsKey signs component props. Empty means a random key, which
	// invalidates rendered pages on restart.
	PropsKey []byte
	// EncryptProps seals props instead of signing them.
	EncryptProps bool
	CookieName   string
	Title        string
	ShowErrors   bool
	Logger       *slog.Logger
}

// Server is the web UI: one page plus the component routes.
type Server struct {
	echo     *echo.Echo
	sessions *session.Manager
	registry *hx.Registry
	comps    *components.Set
	opts     Options
	logger   *slog.Logger
}

// New builds the server. sessions supplies one App per browser.
func New(sessions *session.Manager, opts Options) (*Server, error) {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if len(opts.PropsKey) == 0 {
		opts.PropsKey = make([]byte, 32)
		if _, err := rand.Read(opts.PropsKey); err != nil {
			return nil, fmt.Errorf("generate props key: %w", err)
		}
	}
	logger := logging.OrNop(opts.Logger)

	s := &Server{
		sessions: sessions,
		registry: hx.NewRegistry(opts.PropsKey),
		opts:     opts,
		logger:   logger,
	}
	s.registry.OnError = s.componentError
	s.comps = components.Init(session.FromContext, s.registry, components.Options{
		Title:        opts.Title,
		ShowErrors:   opts.ShowErrors,
		EncryptProps: opts.EncryptProps,
	})

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(logging.EchoRequestLogger(logger))

	e.GET("/healthz", s.health)
	e.StaticFS("/static", static)

	e.GET("/", s.index, s.withSession)
	e.Any("/_c/*", echo.WrapHandler(s.registry.Handler()), s.requireSession)

	s.echo = e
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Run serves on addr and sweeps idle sessions until ctx is done, then shuts
// down gracefully and closes every session.
func (s *Server) Run(ctx context.Context, addr string) error {
	defer s.sessions.Close()

	sweepCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.sessions.Run(sweepCtx)

	return Serve(ctx, s.echo, addr, s.logger)
}

// withSession attaches the browser's App to the request context, issuing a
// session cookie when the browser has none that is still live. Only the page
// route opens sessions.
func (s *Server) withSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		current := s.sessionID(c)

		id, a, err := s.sessions.Acquire(current)
		if err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "shutting down")
		}
		if id != current {
			c.SetCookie(&http.Cookie{
				Name:     s.opts.CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		req := c.Request()
		c.SetRequest(req.WithContext(session.WithApp(req.Context(), a)))
		return next(c)
	}
}

// requireSession attaches the App of a live session. A component request
// without one is sent back to the page, which opens a fresh session.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		a, ok := s.sessions.Lookup(s.sessionID(c))
		if !ok {
			s.logger.Debug("component request without session", "path", c.Request().URL.Path)
			c.Response().Header().Set("HX-Redirect", "/")
			return c.NoContent(http.StatusUnauthorized)
		}

		req := c.Request()
		c.SetRequest(req.WithContext(session.WithApp(req.Context(), a)))
		return next(c)
	}
}

func (s *Server) sessionID(c echo.Context) string {
	if cookie, err := c.Cookie(s.opts.CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (s *Server) index(c echo.Context) error {
	body := s.comps.Shell.Render(c.Request().Context(), s.shellProps(c))
	return hx.Render(c.Response(), c.Request(), pageTemplate(s.title(), body))
}

func (s *Server) shellProps(c echo.Context) components.ShellProps {
	var props components.ShellProps
	if err := s.comps.Shell.Hydrate(c.Request().Context(), &props); err != nil {
		s.logger.Warn("shell hydrate failed", "error", err)
	}
	return props
}

func (s *Server) title() string {
	if s.opts.Title != "" {
		return s.opts.Title
	}
	return components.DefaultTitle
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) componentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case hx.IsBadRequest(err) || hx.IsNotFound(err):
		s.logger.Warn("component request rejected", "path", r.URL.Path, "error", err)
	default:
		s.logger.Error("component request failed", "path", r.URL.Path, "error", err)
	}
	hx.DefaultErrorHandler(w, r, err)
}

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Serve runs e on addr until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string, logger *slog.Logger) error {
	logger = logging.OrNop(logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down", "addr", addr)
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
