package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/example/gclearnbot/internal/analytics"
	"github.com/example/gclearnbot/internal/config"
	"github.com/example/gclearnbot/internal/content"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/internal/progress"
)

// Server exposes the learning flow over HTTP: account registration, response
// submission, journal and progress reads, and admin analytics. It serves web
// learners the same progression the chat platforms do.
type Server struct {
	cfg      *config.Config
	graph    *content.Graph
	progress *progress.Service
	stats    *analytics.Service
	users    *database.UserRepository
	journal  *database.JournalRepository
	log      *logger.Logger

	echo *echo.Echo
}

// requestValidator adapts go-playground/validator to echo's Validator hook.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func New(cfg *config.Config, graph *content.Graph, prog *progress.Service, stats *analytics.Service, log *logger.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		graph:    graph,
		progress: prog,
		stats:    stats,
		users:    database.NewUserRepository(),
		journal:  database.NewJournalRepository(),
		log:      log,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = s.errorHandler
	e.Use(middleware.Recover())

	e.GET("/health", s.handleHealth)
	e.POST("/auth/register", s.handleRegister)
	e.POST("/auth/login", s.handleLogin)

	authed := e.Group("", s.jwtMiddleware())
	authed.POST("/responses", s.handleSubmitResponse)
	authed.GET("/journals/:user_id", s.handleUserJournal)
	authed.GET("/progress/:user_id", s.handleUserProgress)
	authed.GET("/journals", s.handleAllJournals, s.adminMiddleware())
	authed.GET("/analytics", s.handleAnalytics, s.adminMiddleware())

	s.echo = e
	return s
}

func (s *Server) Name() string { return "web" }

// Start serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.log.Info("web API listening", "addr", s.cfg.HTTPAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("web shutdown failed", "error", err)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"lessons": s.graph.Len(),
	})
}
