package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"finboard/internal/backend"
	"finboard/internal/cli"
	"finboard/internal/config"
	"finboard/internal/ledgerview"
	"finboard/internal/log"
	"finboard/internal/report"
	"finboard/internal/services"
)

var verbose = flag.Bool("v", false, "log at debug level")

// app is the report and ledger wiring shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	reports *report.Service
	ledger  *services.LedgerService
	backend *backend.Result
}

// openApp loads the environment and builds the services. Logs go to stderr
// so stdout carries only command output.
func openApp(ctx context.Context) (*app, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lc := log.DefaultConfig()
	lc.Component = log.ComponentCLI
	lc.Output = os.Stderr
	lc.Format = cfg.LogFormat
	lc.Level = cfg.Level()
	if *verbose {
		lc.Level = slog.LevelDebug
	}
	logger := log.New(lc)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	slogger := logger.Slog()
	engine := report.NewEngine(cfg.Model(),
		report.WithSorter(ledgerview.NewSorter(cfg.Language())),
		report.WithLogger(slogger),
	)
	loader := report.NewLoader(report.Sources{
		Ledger:    res.Ledger,
		Aggregate: res.Aggregate,
		Channels:  res.Channels,
		Roster:    res.Roster,
	}, slogger)
	reports := report.NewService(loader, engine, cfg.ReportCacheTTL, slogger)

	opts := []services.Option{
		services.WithSyncedSource(res.Aggregate),
		services.WithLogger(slogger),
		services.OnChange(reports.Invalidate),
	}
	if res.Events != nil {
		opts = append(opts, services.WithPublisher(res.Events))
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		reports: reports,
		ledger:  services.NewLedgerService(res.Ledger, opts...),
		backend: res,
	}, nil
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.logger.Error("Backend cleanup error", "error", err)
	}
}

// current fetches a report and prints source failures to stderr.
func (a *app) current(ctx context.Context, sort ledgerview.SortState) report.Result {
	res := a.reports.Current(ctx, sort)
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", e)
	}
	return res
}
