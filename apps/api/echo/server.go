package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/chat"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/notif"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/realtime"
	"github.com/trezcool/darasa/core/user"
)

type (
	ServerDeps struct {
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc    *user.Service
		GroupSvc   *group.Service
		ChatSvc    *chat.Service
		QuizSvc    *quiz.Service
		ContentSvc *content.Service
		NotifSvc   *notif.Service
		Hub        *realtime.Hub
		// Pusher delivers live events to connected users; defaults to the
		// hub's presence registry when unset.
		Pusher notif.Pusher
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{core.Conf.FrontendBaseURL},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.Static("/uploads", core.Conf.Uploads.Dir)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	pusher := s.deps.Pusher
	if pusher == nil && s.deps.Hub != nil {
		pusher = s.deps.Hub.Registry()
	}

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.GroupSvc, s.deps.ChatSvc, s.deps.QuizSvc, s.deps.NotifSvc)
	registerGroupAPI(v1, jwt, s.deps.GroupSvc, s.deps.ChatSvc, s.deps.ContentSvc)
	registerChatAPI(v1, jwt, s.deps.ChatSvc, s.deps.GroupSvc, s.deps.UserSvc, s.deps.NotifSvc, pusher)
	registerQuizAPI(v1, jwt, s.deps.QuizSvc)
	registerContentAPI(v1, jwt, s.deps.ContentSvc)
	registerNotificationAPI(v1, jwt, s.deps.NotifSvc, s.deps.UserSvc)
	registerAdminAPI(v1, jwt, s.deps.UserSvc, s.deps.GroupSvc, s.deps.QuizSvc, s.deps.ContentSvc)

	if s.deps.Hub != nil {
		v1.GET("/ws", func(ctx echo.Context) error {
			return s.deps.Hub.ServeWS(ctx.Response(), ctx.Request())
		})
	}
}

func (s *server) Start() {
	if err := s.app.Start(core.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Errors() <-chan error            { return s.errs }
func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// signalShutdown is called by the error handler when an unrecoverable
// error is caught.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
