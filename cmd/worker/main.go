package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"packmirror/internal/config"
	"packmirror/internal/services"
	"packmirror/internal/worker"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Debug("no .env file loaded", "err", err)
	}

	cfg := config.Load()
	logger := log.Default()

	svc, err := services.New(cfg, logger)
	if err != nil {
		log.Fatal("failed to wire services", "err", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.New(svc.Queue, svc.Engine, svc.Emitter, cfg.WorkerConcurrency, logger)
	logger.Info("worker starting", "concurrency", cfg.WorkerConcurrency)
	w.Run(ctx)
	logger.Info("worker stopped")
}
