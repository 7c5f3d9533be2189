package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userweb/internal/app"
	"userweb/internal/config"
	"userweb/internal/logging"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to initialize app", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := application.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "http server failed", "error", err)
			os.Exit(1)
		}
	}()

	log.Info(ctx, "userweb started", "port", cfg.AppPort)

	<-ctx.Done()

	log.Info(ctx, "shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info(ctx, "userweb stopped cleanly")
}
