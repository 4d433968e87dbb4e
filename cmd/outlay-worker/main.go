package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"outlay/internal/amqp"
	"outlay/internal/backend"
	"outlay/internal/config"
	"outlay/internal/export"
	applog "outlay/internal/log"
	"outlay/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	var exporter export.Exporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := export.NewGoogleClient(ctx, export.GoogleConfig{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("failed to create sheets exporter", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("exporting changes to spreadsheet", "sheet", cfg.GoogleSheetName)
	} else {
		exporter = export.NewMemoryExporter()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, using in-memory exporter")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to amqp", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewChangeWorker(
		stores.Expenses,
		stores.Categories,
		stores.Reindexer,
		exporter,
		stores.ExportLog,
		nil,
		cfg.ExportBatchSize,
	)

	logger.Info("worker started", "queue", cfg.AMQPQueue, "backend", cfg.DataBackend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Consume(gctx, w.Handlers())
	})
	g.Go(func() error {
		return w.RunCatchUp(gctx, cfg.CatchUpInterval)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
