package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ezBadminton/gobeachtennis/beachtennis"
	"github.com/ezBadminton/gobeachtennis/core"
	"github.com/ezBadminton/gobeachtennis/internal/config"
	"github.com/ezBadminton/gobeachtennis/internal/server"
	"github.com/ezBadminton/gobeachtennis/internal/service"
	"github.com/ezBadminton/gobeachtennis/internal/store"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := logrus.StandardLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	if err := cfg.ConfigureLogger(logger); err != nil {
		logger.WithError(err).Fatal("failed to configure the logger")
	}
	core.SetLogger(logger.WithField("component", "engine"))
	logger.WithField("port", cfg.ServerPort).Info("configuration loaded")

	matchStore, err := store.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to open the database")
	}
	defer func() {
		if err := matchStore.Close(); err != nil {
			logger.WithError(err).Error("failed to close the database")
		} else {
			logger.Info("database closed")
		}
	}()
	logger.WithField("driver", cfg.DBDriver).Info("database connection established")

	format, err := beachtennis.NewFormat(cfg.GamesPerSet, cfg.SetsToWin, true)
	if err != nil {
		logger.WithError(err).Fatal("invalid score format")
	}

	progression := service.New(matchStore, service.Options{
		QualifiersPerGroup:       cfg.QualifiersPerGroup,
		AvoidSameGroupFirstRound: cfg.AvoidSameGroupFirstRound,
		SaveRetries:              cfg.SaveRetries,
		Rules:                    format,
	}, logger.WithField("component", "service"))

	api := server.New(progression, logger.WithField("component", "http"))

	errorLog := logger.WriterLevel(logrus.ErrorLevel)
	defer errorLog.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      api.Routes(cfg.CORSAllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     log.New(errorLog, "", 0),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.WithField("address", srv.Addr).Info("starting server")
		serverErrors <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
			return
		}
		logger.Info("server stopped")
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
			if closeErr := srv.Close(); closeErr != nil {
				logger.WithError(closeErr).Error("failed to force close server")
			}
			return
		}
		logger.Info("server shutdown complete")
	}
}
