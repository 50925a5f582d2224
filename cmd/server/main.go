package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace_console_go/config"
	"marketplace_console_go/db"
	"marketplace_console_go/handlers"
	"marketplace_console_go/logging"
	"marketplace_console_go/models"
	"marketplace_console_go/services"
	"marketplace_console_go/services/faq"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	hasEnvFile := config.LoadEnvFile()
	logger := logging.New(os.Getenv("ENVIRONMENT"))

	if !hasEnvFile {
		logger.Debug("no .env file found, using process environment")
	}

	err := run(logger)
	if err != nil {
		logger.Error("server exited", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run owns every resource it opens, so each return path closes them
func run(logger *zap.Logger) error {
	cfg, err := config.Load(logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	database, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close(database)

	if err := db.AutoMigrate(database, models.All()...); err != nil {
		return err
	}
	if err := services.SeedGeography(database, logger); err != nil {
		return fmt.Errorf("failed to seed geography: %w", err)
	}

	rules, err := faq.LoadRules(cfg.FAQRulesPath)
	if err != nil {
		return err
	}

	storage := services.NewStorage(cfg, logger)
	mailer := services.NewResendMailer(cfg, logger)

	h := handlers.New(database, cfg, logger, storage, mailer, faq.NewResponder(rules))
	defer h.Close()

	e := echo.New()
	handlers.ConfigureEcho(e, cfg, logger)
	if _, ok := storage.(*services.LocalStorage); ok {
		e.Static("/"+cfg.UploadDir, cfg.UploadDir)
	}
	h.Register(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hourly session cleanup
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := services.CleanupExpiredSessions(database, logger); err != nil {
					logger.Error("session cleanup failed", zap.Error(err))
				}
			}
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("environment", cfg.Environment))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
