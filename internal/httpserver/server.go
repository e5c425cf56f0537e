// Package httpserver provides the small per-stage HTTP surface
// (GET /health, GET /metrics) every stage process exposes, per spec.md §6.
// Ground: apps/audit-service/cmd/api/main.go's echo bootstrap.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/telemetry"
)

// Server wraps an echo.Echo exposing the ambient health/metrics surface.
type Server struct {
	echo  *echo.Echo
	log   *zap.Logger
	stage string
}

// New builds the HTTP server for a stage. metrics may be nil only in
// tests that don't exercise /metrics.
func New(stage string, metrics *telemetry.Metrics, logger *zap.Logger, startedAt time.Time) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(stage))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("HTTP request", zap.String("uri", v.URI), zap.Int("status", v.Status))
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, telemetry.NewHealthStatus(stage, startedAt))
	})

	if metrics != nil {
		handler := promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})
		e.GET("/metrics", echo.WrapHandler(handler))
	}

	return &Server{echo: e, log: logger, stage: stage}
}

// Start runs the HTTP server in the background on addr. Errors other than
// a clean shutdown are logged as fatal, matching spec.md §6's non-zero
// startup-failure exit code.
func (s *Server) Start(addr string) {
	go func() {
		s.log.Info("HTTP server listening", zap.String("stage", s.stage), zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.log.Fatal("HTTP server failure", zap.Error(err))
		}
	}()
}

// Shutdown drains the HTTP server within the given deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
