// Package httpapi serves the dashboard views as a read-only JSON API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/metrics"
	"ticket-kpi/internal/report"
	"ticket-kpi/internal/snapshot"
)

// Server wires the report engine to fiber routes.
type Server struct {
	app     *fiber.App
	store   *snapshot.Store
	engine  *report.Engine
	metrics *metrics.Manager
	version string
}

// NewServer builds the fiber app and registers every route. m may be nil.
func NewServer(store *snapshot.Store, settings report.Settings, m *metrics.Manager, version string) *Server {
	s := &Server{
		app:     fiber.New(fiber.Config{DisableStartupMessage: true, AppName: "ticket-kpi"}),
		store:   store,
		engine:  report.New(settings),
		metrics: m,
		version: version,
	}
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.app.Use(errorMiddleware)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health/live", s.live)
	s.app.Get("/health/ready", s.ready)
	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	api := s.app.Group("/api/v1")
	api.Get("/aging/annual", s.agingAnnual)
	api.Get("/aging/monthly", s.agingMonthly)
	api.Get("/providers/:provider/trend", s.providerTrend)
	api.Get("/otd", s.otd)
	api.Get("/options", s.options)
	api.Get("/quality", s.quality)
	api.Get("/export/:source", s.export)
	api.Post("/reload", s.reload)
}

// Listen serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP API listening")
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http api stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	elapsed := time.Since(start)

	status := c.Response().StatusCode()
	route := c.Route().Path
	s.metrics.ObserveRequest(route, c.Method(), status, elapsed)
	log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("HTTP request")
	return err
}

// apiError is the JSON error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorMiddleware turns handler errors into JSON responses with a matching status.
func errorMiddleware(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	status, code := classify(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": apiError{Code: code, Message: err.Error()}})
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, "HTTP_ERROR"
	case errors.Is(err, report.ErrInvalidQuery):
		return fiber.StatusBadRequest, "INVALID_QUERY"
	case errors.Is(err, report.ErrNoAgingData), errors.Is(err, report.ErrNoOTDData):
		return fiber.StatusNotFound, "SOURCE_NOT_CONFIGURED"
	case errors.Is(err, snapshot.ErrNotLoaded):
		return fiber.StatusServiceUnavailable, "NOT_LOADED"
	case errors.Is(err, ingest.ErrSourceNotFound), errors.Is(err, ingest.ErrMissingColumn):
		return fiber.StatusUnprocessableEntity, "SOURCE_UNREADABLE"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}
