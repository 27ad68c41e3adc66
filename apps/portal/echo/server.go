// Package echoportal is the web portal of Masomo: the admin, teacher and student screens rendered with echo,
// with live search streamed over datastar server-sent events.
package echoportal

import (
	"context"
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

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/blog"
	"github.com/trezcool/masomo-web/core/course"
	"github.com/trezcool/masomo-web/core/prefs"
	"github.com/trezcool/masomo-web/core/user"
)

type (
	// PrefsSource keeps the preferences of every client server side.
	PrefsSource interface {
		For(clientID string) prefs.Store
	}

	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		UserSvc    *user.Service
		CourseSvc  *course.Service
		BlogSvc    *blog.Service
		// Prefs is nil when the preferences live in cookies.
		Prefs PrefsSource
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		ServerDeps
		app      *echo.Echo
		renderer *renderer
		sessions *sessionRegistry
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	conf := deps.Conf
	rdr, err := newRenderer(conf.Debug || conf.TestMode)
	if err != nil {
		panic(errors.Wrap(err, "loading templates"))
	}

	s := &server{
		ServerDeps: deps,
		app:        echo.New(),
		renderer:   rdr,
		sessions:   newSessionRegistry(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(claimsMiddleware(conf.SecretKey), clientMiddleware, s.sidebarMiddleware)

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s)
	s.app.Renderer = s.renderer
	s.app.Debug = conf.Debug && !conf.TestMode
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	}

	s.app.GET("/", s.home)

	ui := s.app.Group("/ui")
	ui.POST("/sidebar/toggle", s.toggleSidebar)
	ui.POST("/sidebar/keydown", s.sidebarKeydown)

	s.registerPortals()
}

func (s *server) Start() {
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Shutdown ends the live search streams and gracefully stops the server.
func (s *server) Shutdown(ctx context.Context) error {
	s.sessions.closeAll()
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	s.sessions.closeAll()
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
