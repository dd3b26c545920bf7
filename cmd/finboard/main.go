package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finboard/internal/backend"
	"finboard/internal/cache"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	"finboard/internal/ledgerview"
	"finboard/internal/log"
	"finboard/internal/report"
	"finboard/internal/services"
	"finboard/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(nil, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	logger.Info("Starting finboard", log.FieldOperation, log.OpStartup, "backend", cfg.DataBackend, "port", cfg.Port)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).
		CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	reportLog := logger.WithComponent(log.ComponentReport).Slog()
	sorter := ledgerview.NewSorter(cfg.Language())
	engine := report.NewEngine(cfg.Model(),
		report.WithSorter(sorter),
		report.WithMemo(cache.NewLRU[report.Report](cfg.ReportCacheSize, cfg.ReportCacheTTL)),
		report.WithLogger(reportLog),
	)
	loader := report.NewLoader(report.Sources{
		Ledger:    res.Ledger,
		Aggregate: res.Aggregate,
		Channels:  res.Channels,
		Roster:    res.Roster,
	}, reportLog)
	reports := report.NewService(loader, engine, cfg.ReportCacheTTL, reportLog)

	opts := []services.Option{
		services.WithSyncedSource(res.Aggregate),
		services.WithLogger(logger.WithComponent(log.ComponentLedger).Slog()),
		services.OnChange(reports.Invalidate),
	}
	if res.Events != nil {
		opts = append(opts, services.WithPublisher(res.Events))
	}
	ledger := services.NewLedgerService(res.Ledger, opts...)

	janitor := cache.NewJanitor(logger.WithComponent(log.ComponentCache).Slog())
	for _, e := range reports.Expirers() {
		janitor.Register(e)
	}
	janitor.Start(cfg.ReportCacheTTL)

	checks := make(map[string]apphttp.ReadinessCheck, len(res.Checks))
	for name, check := range res.Checks {
		checks[name] = apphttp.ReadinessCheck(check)
	}
	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		EntityName:         cfg.ReportEntityName,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Sorter:             sorter,
		Checks:             checks,
	}, reports, ledger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		janitor.Stop()
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	ledgerWorker := worker.NewLedgerWorker(reports, logger.WithComponent(log.ComponentAMQP).Slog())
	ledgerWorker.StartupCheck(ctx)
	if res.Events != nil {
		// Other instances write to the same ledger; their events drop our cache.
		g.Go(func() error {
			if err := ledgerWorker.Run(gctx, res.Events); err != nil {
				// Reports still refresh on TTL expiry.
				logger.Error("Ledger event consumer stopped", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
