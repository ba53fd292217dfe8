package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/eventstudy"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/exporter"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/inference"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/regress"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/volatility"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// Runner executes the full study for every configured event. Events
// are independent: each gets its own dataset, stage manager, and
// report, so the blockage and refloat runs share no mutable state.
type Runner struct {
	cfg   *config.Config
	uni   *config.Universe
	paths *config.Paths
	log   *slog.Logger
}

// NewRunner wires a study runner. A nil logger falls back to
// slog.Default.
func NewRunner(cfg *config.Config, uni *config.Universe, paths *config.Paths, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{cfg: cfg, uni: uni, paths: paths, log: log}
}

// Run executes one pipeline per configured event and returns the run
// reports in event order. The first failing event cancels the others
// through the group context; reports of events that still finished are
// returned alongside the error.
func (r *Runner) Run(ctx context.Context) ([]*domain.RunReport, error) {
	events, err := r.cfg.Study.Events()
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid study events", err)
	}

	reports := make([]*domain.RunReport, len(events))
	g, gctx := errgroup.WithContext(ctx)
	for i, ev := range events {
		g.Go(func() error {
			report, err := r.runEvent(gctx, ev)
			reports[i] = report
			return err
		})
	}
	err = g.Wait()
	return reports, err
}

// runEvent builds and runs the stage pipeline for one event. The run
// report is written even when a stage failed, so every run leaves an
// audit trail on disk.
func (r *Runner) runEvent(ctx context.Context, ev config.StudyEvent) (*domain.RunReport, error) {
	spec, err := eventstudy.NewEventSpec(ev, r.cfg.Study)
	if err != nil {
		return nil, err
	}

	log := r.log.With(slog.String("event", ev.Label))
	report := domain.NewRunReport(ev.Label, spec.EventDate)
	state := NewRunState(spec, report)

	exp := exporter.New(r.paths, log)
	est := regress.NewEstimator(r.uni, r.cfg.Panel, r.cfg.Linkages, log)

	m := NewManager(log)
	if err := m.Register(
		NewLoadStage(marketdata.NewLoader(r.paths, log), r.uni),
		NewStudyStage(log),
		NewAggregateStage(inference.NewAggregator(r.uni, r.cfg.Inference, log)),
		NewInferStage(inference.NewTester(r.uni, r.cfg.Inference, log)),
		NewVolatilityStage(volatility.NewAnalyzer(r.uni, r.cfg.Volatility, r.cfg.Inference, log)),
		NewDiDStage(est),
		NewDDDStage(est),
		NewLinkagesStage(est),
		NewExportStage(exp, log),
	); err != nil {
		return nil, err
	}

	runErr := m.Run(ctx, state)
	report.Finish(len(r.uni.EquitySymbols()))

	if err := exp.WriteRunReport(report); err != nil {
		log.Error("run report not written", slog.String("error", err.Error()))
		if runErr == nil {
			runErr = err
		}
	}

	log.Info("run finished",
		slog.String("run_id", report.RunID),
		slog.Int("included", report.Counts.Included),
		slog.Int("excluded", report.Counts.Excluded),
		slog.Bool("failed", runErr != nil))

	return report, runErr
}
