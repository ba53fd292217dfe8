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
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/eventstudy"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/exporter"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/infrastructure"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/pipeline"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/regress"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/volatility"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// shock-panel runs the transmission regressions only: the DiD and
// triple-difference panels plus the macro linkage cross-section. It
// rebuilds the abnormal-return panel from the raw data (the study core
// is cheap) and writes just the coefficient tables, leaving the event
// study tables to cmd/event-study.
func main() {
	configFile := flag.String("config", "", "path to config file (defaults to config.yaml search)")
	eventDate := flag.String("event", "", "override the event date (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *eventDate != "" {
		cfg.Study.EventDate = *eventDate
	}

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

	universe, err := config.LoadUniverse(cfg.Paths.UniverseFile)
	if err != nil {
		logger.Error("Failed to load universe", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	date, err := cfg.Study.Date()
	if err != nil {
		logger.Error("Invalid event date", "error", err)
		os.Exit(1)
	}
	ev := config.StudyEvent{Label: config.EventLabelBlockage, Date: date}

	spec, err := eventstudy.NewEventSpec(ev, cfg.Study)
	if err != nil {
		logger.Error("Invalid event spec", "error", err)
		os.Exit(1)
	}

	state := pipeline.NewRunState(spec, domain.NewRunReport(ev.Label, date))
	est := regress.NewEstimator(universe, cfg.Panel, cfg.Linkages, logger)

	m := pipeline.NewManager(logger)
	if err := m.Register(
		pipeline.NewLoadStage(marketdata.NewLoader(paths, logger), universe),
		pipeline.NewStudyStage(logger),
		pipeline.NewVolatilityStage(volatility.NewAnalyzer(universe, cfg.Volatility, cfg.Inference, logger)),
		pipeline.NewDiDStage(est),
		pipeline.NewDDDStage(est),
		pipeline.NewLinkagesStage(est),
	); err != nil {
		logger.Error("Failed to assemble pipeline", "error", err)
		os.Exit(1)
	}

	runErr := m.Run(ctx, state)

	exp := exporter.New(paths, logger)
	written := 0
	for _, res := range state.Regressions {
		if err := exp.WriteRegression(spec.EventDate, res); err != nil {
			logger.Error("Failed to write regression table",
				slog.String("regression", res.Name),
				slog.String("error", err.Error()))
			if runErr == nil {
				runErr = err
			}
			continue
		}
		written++
		printRegression(res)
	}

	fmt.Printf("wrote %d regression tables to %s\n", written, paths.TablesDir)
	if runErr != nil {
		logger.Error("Shock panel run failed", "error", runErr)
		os.Exit(1)
	}
}

// printRegression prints the key coefficient of one fitted design;
// the CSV table carries the full term list.
func printRegression(res domain.RegressionResult) {
	if term, ok := res.Term(res.KeyTerm); ok {
		fmt.Printf("%s: %s = %.6f (se %.6f, p %.4f, n %d)\n",
			res.Name, term.Term, term.Coef, term.StdErr, term.PValue, res.N)
		return
	}
	fmt.Printf("%s: fitted on %d observations\n", res.Name, res.N)
}
