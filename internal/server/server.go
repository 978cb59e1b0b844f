package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samvad-hq/flat-request/internal/config"
	"github.com/samvad-hq/flat-request/internal/logger"
)

const (
	// SuccessCode is the business code the demo endpoint answers with.
	SuccessCode   = 20000
	successStatus = 20
	shutdownGrace = 5 * time.Second
)

// User is the demo payload served on /user.
type User struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// envelope mirrors the body contract clients classify against.
type envelope struct {
	Code    int    `json:"code"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Server is the demo HTTP endpoint.
type Server struct {
	cfg  *config.Config
	log  logger.Logger
	echo *echo.Echo
	user User
}

// New builds the demo server with CORS and request-id middleware.
func New(cfg *config.Config, log logger.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		cfg:  cfg,
		log:  log,
		echo: e,
		user: User{Name: "Han Zhenfang", Age: 22},
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestID,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))

	e.GET("/user", s.getUser)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	errCh := make(chan error, 1)
	go func() { errCh <- s.echo.Start(addr) }()

	s.log.InfoObj("server listening", "server_meta", map[string]any{
		"addr":    addr,
		"origins": s.cfg.AllowedOrigins(),
	})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server start: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		s.log.InfoObj("server stopped", "reason", ctx.Err())
		return nil
	}
}

func (s *Server) getUser(c echo.Context) error {
	req := c.Request()
	s.log.InfoObj("user requested", "request_meta", map[string]any{
		"host":       req.Host,
		"remote":     c.RealIP(),
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"has_auth":   req.Header.Get(echo.HeaderAuthorization) != "",
	})
	return c.JSON(http.StatusOK, envelope{
		Code:    SuccessCode,
		Status:  successStatus,
		Message: "success",
		Data:    s.user,
	})
}
