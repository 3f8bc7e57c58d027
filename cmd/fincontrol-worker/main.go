package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"fincontrol/internal/amqp"
	"fincontrol/internal/backend"
	"fincontrol/internal/cli"
	"fincontrol/internal/config"
	"fincontrol/internal/core"
	"fincontrol/internal/log"
	"fincontrol/internal/sheets"
	gsheet "fincontrol/internal/sheets/google"
	"fincontrol/internal/sheets/memory"
	"fincontrol/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is private to this process, the mirror will only see its own empty store")
	}

	// The worker only reads the store; it must not publish changes itself.
	readOnly := *cfg
	readOnly.AMQPURL = ""
	res := cli.OpenBackend(ctx, logger, &readOnly)
	defer res.Cleanup()

	exporter := newExporter(ctx, logger, cfg)
	mirror := worker.NewMirror(res.Store, exporter, worker.Config{
		Interval: cfg.SyncInterval,
		Locale:   core.MustLocale(cfg.Locale),
		Polling:  cfg.AMQPURL == "",
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mirror.Run(gctx) })

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		g.Go(func() error {
			err := client.ConsumeChanges(gctx, mirror.HandleChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("No AMQP_URL provided, exporting every collection each interval")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped", log.FieldOperation, log.OpShutdown)
}

func newExporter(ctx context.Context, logger *log.Logger, cfg *config.Config) sheets.Exporter {
	if !cfg.MirrorEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, keeping the mirror in memory")
		return memory.New()
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client
}
