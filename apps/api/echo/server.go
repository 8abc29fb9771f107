package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/teacher"
	"github.com/projectplatec/platec/core/user"
)

type Server struct {
	conf     *core.Config
	logger   core.Logger
	app      *echo.Echo
	tokens   *TokenManager
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(
	conf *core.Config,
	logger core.Logger,
	usrSvc *user.Service,
	teacherSvc *teacher.Service,
	validate *validator.Validate,
	translator ut.Translator,
) *Server {
	s := &Server{
		conf:     conf,
		logger:   logger,
		app:      echo.New(),
		tokens:   NewTokenManager(conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(logger, translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := jwtMiddleware(s.tokens)

	registerUserAPI(v1, conf, usrSvc, s.tokens, validate, translator)
	registerTeacherAPI(v1, conf, jwt, usrSvc, teacherSvc)

	return s
}

// Start blocks until the server stops. Errors other than a regular close are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Host); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, fmt.Sprintf("Welcome to %s API!", s.conf.AppName))
}
