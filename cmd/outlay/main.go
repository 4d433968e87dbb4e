package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"outlay/internal/amqp"
	"outlay/internal/backend"
	"outlay/internal/config"
	"outlay/internal/feed"
	apphttp "outlay/internal/http"
	"outlay/internal/identity"
	applog "outlay/internal/log"
	"outlay/internal/services"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	stores, closeStores, err := backend.Open(cfg)
	if err != nil {
		logger.Error("failed to open backend", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeStores(); err != nil {
			logger.Error("failed to close backend", "error", err)
		}
	}()

	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to connect to amqp", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("amqp publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Warn("AMQP_URL not set, change messages disabled")
	}

	hub := feed.NewHub()

	deps := apphttp.Deps{
		Expenses:   services.NewExpenseService(stores.Expenses, stores.Settings, publisher, hub),
		Categories: services.NewCategoryService(stores.Categories, hub),
		Settings:   services.NewSettingsService(stores.Settings, publisher, hub),
		Views:      services.NewViewService(stores.Expenses, stores.Categories, stores.Settings),
		Identity:   identity.NewProvider(cfg.JWTSecret, cfg.JWTIssuer),
		Hub:        hub,
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.ReadTimeout = 10 * time.Second
	// No write timeout: /api/stream holds its response open indefinitely.
	srv.WriteTimeout = 0
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
