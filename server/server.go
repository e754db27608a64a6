package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/pedalhaus/pedalhaus/server/profile"
	apiv1 "github.com/pedalhaus/pedalhaus/server/router/api/v1"
	"github.com/pedalhaus/pedalhaus/store"
)

// Server wires the echo instance, middleware, and routes, and owns the
// listener lifecycle.
type Server struct {
	Profile  *profile.Profile
	Sessions *store.Store

	echo *echo.Echo
	http *http.Server

	sweepCancel context.CancelFunc
}

func NewServer(p *profile.Profile, sessions *store.Store, api *apiv1.APIV1Service) *Server {
	e := echo.New()

	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.Register(e)

	return &Server{
		Profile:  p,
		Sessions: sessions,
		echo:     e,
		http: &http.Server{
			Addr:    p.ListenAddr(),
			Handler: e,
		},
	}
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Start serves HTTP until the listener fails or Shutdown is called. A
// background sweep evicts expired sessions so the in-memory driver does
// not grow without bound.
func (s *Server) Start(ctx context.Context) error {
	sweepCtx, cancel := context.WithCancel(ctx)
	s.sweepCancel = cancel
	go s.sweepSessions(sweepCtx)

	slog.Info("server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.sweepCancel != nil {
		s.sweepCancel()
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sessions.CleanupExpired(ctx)
			if err != nil {
				slog.Warn("session sweep failed", "err", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions evicted", "count", n)
			}
		}
	}
}

// requestLogger logs one line per request with method, path, status, and
// latency.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)
			status := 0
			if res, resErr := echo.UnwrapResponse(c.Response()); resErr == nil {
				status = res.Status
			}
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			slog.Info("request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"latency", time.Since(start),
			)
			return err
		}
	}
}
