package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/infrastructure"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/pipeline"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

func main() {
	configFile := flag.String("config", "", "path to config file (defaults to config.yaml search)")
	eventDate := flag.String("event", "", "override the blockage event date (YYYY-MM-DD)")
	refloatDate := flag.String("refloat", "", "override the refloat event date (YYYY-MM-DD, empty keeps config)")
	noRefloat := flag.Bool("no-refloat", false, "run the blockage event only")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyStudyOverrides(&cfg.Study, *eventDate, *refloatDate, *noRefloat)

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create run directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeTracing(tracingConfig(cfg.Tracing), logger)
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer providers.Shutdown(context.Background())

	universe, err := config.LoadUniverse(cfg.Paths.UniverseFile)
	if err != nil {
		logger.Error("Failed to load universe", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting event study",
		slog.String("event_date", cfg.Study.EventDate),
		slog.String("refloat_date", cfg.Study.RefloatDate),
		slog.Int("equities", len(universe.EquitySymbols())))

	runner := pipeline.NewRunner(cfg, universe, paths, logger)
	reports, runErr := runner.Run(ctx)

	for _, report := range reports {
		if report == nil {
			continue
		}
		printReport(report)
		fmt.Printf("  tables:  %s\n", paths.TablesDir)
		fmt.Printf("  reports: %s\n", paths.ReportsDir)
	}

	if runErr != nil {
		logger.Error("Event study failed", "error", runErr)
		os.Exit(1)
	}
}

// applyStudyOverrides folds the CLI flags into the study config. Empty
// flags leave the configured values alone; -no-refloat wins over -refloat.
func applyStudyOverrides(study *config.StudyConfig, eventDate, refloatDate string, noRefloat bool) {
	if eventDate != "" {
		study.EventDate = eventDate
	}
	if refloatDate != "" {
		study.RefloatDate = refloatDate
	}
	if noRefloat {
		study.RefloatDate = ""
	}
}

// tracingConfig maps the application tracing section onto the
// infrastructure bootstrap config.
func tracingConfig(tc config.TracingConfig) *infrastructure.TracingConfig {
	return &infrastructure.TracingConfig{
		ServiceName:    infrastructure.ServiceName,
		ServiceVersion: infrastructure.ServiceVersion,
		Environment:    tc.Environment,
		Exporter:       tc.Exporter,
		SampleRatio:    tc.SampleRatio,
	}
}

// printReport writes the run outcome summary to stdout for the
// operator; the JSON run report on disk carries the full detail.
func printReport(report *domain.RunReport) {
	fmt.Printf("%s run %s\n", report.Label, report.RunID)
	fmt.Printf("  event date: requested %s, aligned %s\n",
		report.RequestedDate.Format("2006-01-02"),
		report.AlignedDate.Format("2006-01-02"))
	fmt.Printf("  tickers: %d included, %d excluded of %d\n",
		report.Counts.Included, report.Counts.Excluded, report.Counts.Universe)
	for _, outcome := range report.Outcomes {
		if outcome.Status == domain.TickerStatusExcluded {
			fmt.Printf("    excluded %-14s %s: %s\n", outcome.Symbol, outcome.ErrorType, outcome.Reason)
		}
	}
}
