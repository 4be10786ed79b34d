package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkarpenko/songbrain/internal/bootstrap"
	"github.com/mkarpenko/songbrain/internal/config"
	"github.com/mkarpenko/songbrain/internal/observability/logging"
	"github.com/mkarpenko/songbrain/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	go func() {
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, metricsMux); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server error", "error", err)
		}
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeCatalogImport(ctx, func(handlerCtx context.Context, storageKey string) error {
		importCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartImport()
		start := time.Now()
		rows, err := app.ImportUC.Run(importCtx, storageKey)
		workerMetrics.FinishImport("worker", rows, time.Since(start), err)

		if err != nil {
			logger.Error("catalog import failed", "storage_key", storageKey, "error", err)
			return err
		}
		logger.Info("catalog import finished", "storage_key", storageKey, "rows", rows)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
