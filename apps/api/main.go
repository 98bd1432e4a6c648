package main

import (
	"context"
	"fmt"
	"log"
	"os"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/chat"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/notif"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/realtime"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/mongodb"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		rollbarLogger := logsvc.NewRollbarLogger(std, core.Conf)
		rollbarLogger.Enable(true)
		logger = rollbarLogger
	}

	// set up DB
	db, err := mongodb.Open(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Client().Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect database", err)
		}
	}()

	idxCtx, cancel := context.WithTimeout(context.Background(), core.Conf.Database.Timeout)
	if err = mongodb.EnsureIndexes(idxCtx, db); err != nil {
		cancel()
		logger.Fatal(fmt.Sprintf("ensuring indexes: %v", err), err)
	}
	cancel()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, core.Conf)
	}

	usrSvc := user.NewService(mongodb.NewUserRepository(db), mailSvc)
	grpSvc := group.NewService(mongodb.NewGroupRepository(db))
	chatSvc := chat.NewService(mongodb.NewMessageRepository(db))
	quizSvc := quiz.NewService(mongodb.NewQuizRepository(db))
	cntSvc := content.NewService(mongodb.NewContentRepository(db))

	registry := realtime.NewRegistry()
	router := realtime.NewRouter()
	notifSvc := notif.NewService(mongodb.NewNotificationRepository(db), registry, logger, core.Conf)

	hub := realtime.NewHub(registry, router, realtime.Deps{
		Auth:     echoapi.NewTokenAuthenticator(usrSvc),
		UserSvc:  usrSvc,
		GroupSvc: grpSvc,
		ChatSvc:  chatSvc,
		NotifSvc: notifSvc,
	}, logger, core.Conf)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(echoapi.ServerDeps{
		Logger:     logger,
		UserSvc:    usrSvc,
		GroupSvc:   grpSvc,
		ChatSvc:    chatSvc,
		QuizSvc:    quizSvc,
		ContentSvc: cntSvc,
		NotifSvc:   notifSvc,
		Hub:        hub,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
