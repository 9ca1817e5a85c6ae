// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	apperrors "twstock-analyst/internal/errors"
	"twstock-analyst/internal/pipeline"
)

// Refresher rebuilds the company catalog from the exchange rosters.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Server wraps the Echo HTTP server around the analysis pipeline.
type Server struct {
	echo      *echo.Echo
	analyzer  *pipeline.Analyzer
	refresher Refresher
	port      int
	logger    zerolog.Logger
}

// New creates the HTTP server. The refresher may be nil, in which case
// the refresh endpoint reports the feature as unavailable.
func New(analyzer *pipeline.Analyzer, refresher Refresher, port int, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:      e,
		analyzer:  analyzer,
		refresher: refresher,
		port:      port,
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.health)
	s.echo.POST("/analyze", s.analyze)
	s.echo.POST("/companies/refresh", s.refresh)
}

// Start runs the server until the context is canceled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", s.port)
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

type analyzeRequest struct {
	Company string `json:"company"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// analyze resolves the query and runs the full pipeline. Typed pipeline
// errors map onto distinct status codes so callers can tell a bad query
// from an upstream outage.
func (s *Server) analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	query := strings.TrimSpace(req.Company)
	if query == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "company is required"})
	}

	report, err := s.analyzer.Run(c.Request().Context(), query)
	if err != nil {
		status, msg := statusForError(query, err)
		s.logger.Warn().Err(err).Str("query", query).Int("status", status).Msg("Analysis failed")
		return c.JSON(status, errorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) refresh(c echo.Context) error {
	if s.refresher == nil {
		return c.JSON(http.StatusNotImplemented, errorResponse{Error: "catalog refresh is not configured"})
	}
	count, err := s.refresher.Refresh(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Catalog refresh failed")
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "catalog refresh failed"})
	}
	return c.JSON(http.StatusOK, map[string]int{"companies": count})
}

// statusForError maps the pipeline's error taxonomy onto HTTP status
// codes.
func statusForError(query string, err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrCompanyNotFound):
		return http.StatusNotFound, fmt.Sprintf("no company found for %q", query)
	case errors.Is(err, apperrors.ErrCatalogMissing), errors.Is(err, apperrors.ErrCatalogMalformed):
		return http.StatusServiceUnavailable, "company catalog is unavailable"
	case errors.Is(err, apperrors.ErrDataUnavailable):
		return http.StatusUnprocessableEntity, "market data is unavailable for this symbol"
	case errors.Is(err, apperrors.ErrModelUnreachable):
		return http.StatusBadGateway, "analysis model is unreachable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
