package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urizarreta/conciliar-backend/internal/api"
	"github.com/urizarreta/conciliar-backend/internal/application/service"
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/config"
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/logging"
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/storage"
)

func main() {
	cfg := config.LoadOrEnv()
	logger := logging.NewLoggerWithScope(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := service.NewReconcileService(store, logger)

	if cfg.Reconcile.SeedCategories {
		if err := svc.SeedDefaultCategories(); err != nil {
			logger.Error("failed to seed categories", "error", err)
			os.Exit(1)
		}
	}

	server := api.NewServer(api.Config{
		Port:              cfg.Server.Port,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		DefaultWindowDays: cfg.Reconcile.DefaultWindowDays,
	}, svc, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
