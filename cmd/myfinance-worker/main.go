package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"myfinance/internal/amqp"
	"myfinance/internal/backend"
	"myfinance/internal/cache"
	"myfinance/internal/cli"
	"myfinance/internal/config"
	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/metrics"
	"myfinance/internal/storage"
	"myfinance/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker, (*config.Config).ValidateWorker)

	if err := run(cfg, logger); err != nil {
		logger.Error("myfinance-worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx := context.Background()
	logger.Info("Starting myfinance-worker")

	reg := prometheus.NewRegistry()
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(reg)
	}

	store, err := backend.OpenStore(backend.Config{Type: backend.SQLiteBackend, SQLiteDBPath: cfg.SQLiteDBPath})
	if err != nil {
		return err
	}
	defer store.Close()

	// The worker only reads, so the gateway gets no notifier.
	gw := storage.NewGateway(store, storage.WithLogger(logger), storage.WithMetrics(m))

	exporter, err := backend.NewExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	seen := cache.NewLRU[core.MonthKey, string](cfg.ExportCacheSize, cfg.ExportCacheTTL)
	exportWorker := worker.NewExportWorker(gw, exporter, seen, logger, m)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	// Catch up on changes missed while the worker was down.
	logger.Info("Performing startup export", log.FieldOperation, log.OpStartup)
	if err := exportWorker.StartupExport(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err)
	}

	tasks := []cli.Task{
		func(ctx context.Context) error {
			return amqpClient.Consume(ctx, exportWorker.HandleChange)
		},
		func(ctx context.Context) error {
			return cache.RunCleanup(ctx, 10*time.Minute, logger, seen)
		},
	}
	if cfg.MetricsEnabled && cfg.WorkerMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", metrics.Handler(reg))
		srv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		tasks = append(tasks, cli.ServeHTTP(srv, cfg.ShutdownTimeout, logger))
	}

	return cli.Run(ctx, logger, tasks...)
}
