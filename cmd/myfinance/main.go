package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"myfinance/internal/backend"
	"myfinance/internal/bills"
	"myfinance/internal/cache"
	"myfinance/internal/cli"
	"myfinance/internal/config"
	"myfinance/internal/core"
	apphttp "myfinance/internal/http"
	"myfinance/internal/income"
	"myfinance/internal/log"
	"myfinance/internal/metrics"
)

func main() {
	reset := flag.Bool("reset", false, "remove every stored bill and income record, then exit")
	flag.Parse()

	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp, (*config.Config).Validate)

	if err := run(cfg, logger, *reset); err != nil {
		logger.Error("myfinance stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger, reset bool) error {
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		gatherer = reg
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger, m).CreateBackend(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	if reset {
		if err := res.Gateway.Clear(ctx); err != nil {
			return fmt.Errorf("reset data: %w", err)
		}
		logger.Info("All bills and income removed", log.FieldOperation, log.OpClear)
		return nil
	}

	billRepo := bills.New(res.Gateway, logger)
	if err := billRepo.Load(ctx); err != nil {
		logger.Warn("Initial bill load failed, serving an empty list until refresh", log.FieldError, err)
	}
	incomeRepo := income.New(res.Gateway, logger)
	if err := incomeRepo.Load(ctx, core.CurrentMonth()); err != nil {
		logger.Warn("Initial income load failed", log.FieldError, err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Bills:    billRepo,
		Income:   incomeRepo,
		Logger:   logger,
		Metrics:  m,
		Gatherer: gatherer,
	})

	logger.Info("Starting myfinance server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", res.Notifier != nil,
		"metrics_enabled", cfg.MetricsEnabled)

	return cli.Run(ctx, logger,
		cli.ServeHTTP(&srv.Server, cfg.ShutdownTimeout, logger),
		func(ctx context.Context) error {
			return cache.RunCleanup(ctx, 5*time.Minute, logger, srv.Limiter())
		},
	)
}
