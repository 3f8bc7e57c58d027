package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fincontrol/internal/cache"
	"fincontrol/internal/cli"
	"fincontrol/internal/core"
	"fincontrol/internal/dashboard"
	apphttp "fincontrol/internal/http"
	"fincontrol/internal/ledger"
	"fincontrol/internal/log"
	"fincontrol/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backend := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := backend.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	locale := core.MustLocale(cfg.Locale)
	reports := cache.NewLRUCache[dashboard.Report](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(reports)
	caches.StartCleanup(cfg.CacheTTL + time.Second)
	defer caches.Stop()

	st := backend.Store
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:     st,
		Records:   services.NewRecordService(st, services.WithLogger(logger)),
		Ledger:    ledger.New(st, ledger.WithLogger(logger)),
		Dashboard: dashboard.NewService(st, reports, dashboard.WithLocale(locale), dashboard.WithLogger(logger)),
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fincontrol",
			"addr", srv.Addr,
			"backend", cfg.DataBackend,
			"publishing", backend.Publishing,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped", log.FieldOperation, log.OpShutdown)
}
