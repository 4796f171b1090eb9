package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/infrastructure/persistence"
	transporthttp "github.com/taskboard/backend/internal/transport/http"
)

func main() {
	cfg, err := config.Load(config.ResolvePath("config/config.yaml", "../config/config.yaml"))
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	store, err := persistence.Open(cfg.Store, log)
	if err != nil {
		log.Fatalf("failed to open task store: %v", err)
	}
	log.Infof("task store ready (driver=%s)", store.Driver)

	taskService := services.NewTaskService(services.TaskServiceConfig{
		Repository:  store.Repository,
		Logger:      log,
		EnableLocks: cfg.Features.EnableLocks,
	})

	app := transporthttp.NewApp(cfg, log, taskService)

	addr := cfg.Server.Address()
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		log.Fatalf("server failed to listen on %s: %v", addr, err)
	}

	go func() {
		if err := app.Listener(ln); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	log.Infof("server started on %s", addr)

	gracefulShutdown(app, store, log)
}

func gracefulShutdown(app *fiber.App, store *persistence.Store, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	if err := store.Close(); err != nil {
		log.Errorf("failed to close task store: %v", err)
	}

	log.Info("server exited gracefully")
}
