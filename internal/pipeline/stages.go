package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/eventstudy"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/exporter"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/inference"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/regress"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/volatility"
)

// Stage IDs as they appear in dependency declarations, logs, and run
// reports.
const (
	StageLoad       = "load"
	StageStudy      = "study"
	StageAggregate  = "aggregate"
	StageInfer      = "infer"
	StageVolatility = "volatility"
	StageDiD        = "did"
	StageDDD        = "ddd"
	StageLinkages   = "linkages"
	StageExport     = "export"
)

// LoadStage reads the raw price files into an aligned dataset.
type LoadStage struct {
	loader *marketdata.Loader
	uni    *config.Universe
}

// NewLoadStage wires the dataset loading stage.
func NewLoadStage(loader *marketdata.Loader, uni *config.Universe) *LoadStage {
	return &LoadStage{loader: loader, uni: uni}
}

func (s *LoadStage) ID() string { return StageLoad }
func (s *LoadStage) Name() string { return "Load price history" }
func (s *LoadStage) Dependencies() []string { return nil }

func (s *LoadStage) Validate(state *RunState) error {
	if state.Spec == nil {
		return apperrors.NewConfigurationError("run state carries no event spec", nil)
	}
	return nil
}

func (s *LoadStage) Execute(ctx context.Context, state *RunState) error {
	ds, err := s.loader.LoadDataset(ctx, s.uni)
	if err != nil {
		return err
	}
	state.Dataset = ds
	return nil
}

// StudyStage fits the market models and computes abnormal returns for
// every universe equity, recording per-ticker outcomes on the report.
type StudyStage struct {
	log *slog.Logger
}

// NewStudyStage wires the event study stage.
func NewStudyStage(log *slog.Logger) *StudyStage {
	if log == nil {
		log = slog.Default()
	}
	return &StudyStage{log: log}
}

func (s *StudyStage) ID() string { return StageStudy }
func (s *StudyStage) Name() string { return "Market model and abnormal returns" }
func (s *StudyStage) Dependencies() []string { return []string{StageLoad} }

func (s *StudyStage) Validate(state *RunState) error {
	if state.Dataset == nil {
		return apperrors.NewConfigurationError("no dataset loaded", nil)
	}
	return nil
}

func (s *StudyStage) Execute(ctx context.Context, state *RunState) error {
	res, err := eventstudy.New(state.Dataset, s.log).Run(ctx, state.Spec)
	if err != nil {
		return err
	}
	state.Study = res

	if r := state.Report; r != nil {
		r.AlignedDate = res.AlignedDate
		uni := state.Dataset.Universe
		for _, sum := range res.Summaries {
			sector, _ := uni.SectorOf(sum.Ticker)
			r.Include(sum.Ticker, sector)
		}
		excluded := make([]string, 0, len(res.Failures))
		for sym := range res.Failures {
			excluded = append(excluded, sym)
		}
		sort.Strings(excluded)
		for _, sym := range excluded {
			ferr := res.Failures[sym]
			sector, _ := uni.SectorOf(sym)
			r.Exclude(sym, sector, string(apperrors.TypeOf(ferr)), ferr.Error())
		}
	}
	return nil
}

// AggregateStage averages the study's CARs into sector and group cells
// with bootstrap intervals.
type AggregateStage struct {
	agg *inference.Aggregator
}

// NewAggregateStage wires the aggregation stage.
func NewAggregateStage(agg *inference.Aggregator) *AggregateStage {
	return &AggregateStage{agg: agg}
}

func (s *AggregateStage) ID() string { return StageAggregate }
func (s *AggregateStage) Name() string { return "Sector and group aggregation" }
func (s *AggregateStage) Dependencies() []string { return []string{StageStudy} }

func (s *AggregateStage) Validate(state *RunState) error {
	if state.Study == nil {
		return apperrors.NewConfigurationError("no study result to aggregate", nil)
	}
	return nil
}

func (s *AggregateStage) Execute(ctx context.Context, state *RunState) error {
	state.Cells = s.agg.Aggregate(state.Study.CARs)
	return nil
}

// InferStage runs the hypothesis tests on the study's CAR records.
type InferStage struct {
	tester *inference.Tester
}

// NewInferStage wires the significance testing stage.
func NewInferStage(tester *inference.Tester) *InferStage {
	return &InferStage{tester: tester}
}

func (s *InferStage) ID() string { return StageInfer }
func (s *InferStage) Name() string { return "Significance tests" }
func (s *InferStage) Dependencies() []string { return []string{StageStudy} }

func (s *InferStage) Validate(state *RunState) error {
	if state.Study == nil {
		return apperrors.NewConfigurationError("no study result to test", nil)
	}
	return nil
}

func (s *InferStage) Execute(ctx context.Context, state *RunState) error {
	state.Tests = s.tester.Run(state.Study.CARs)
	return nil
}

// VolatilityStage contrasts pre and post event conditional volatility
// from the study's abnormal-return panel.
type VolatilityStage struct {
	analyzer *volatility.Analyzer
}

// NewVolatilityStage wires the volatility contrast stage.
func NewVolatilityStage(analyzer *volatility.Analyzer) *VolatilityStage {
	return &VolatilityStage{analyzer: analyzer}
}

func (s *VolatilityStage) ID() string { return StageVolatility }
func (s *VolatilityStage) Name() string { return "Volatility contrast" }
func (s *VolatilityStage) Dependencies() []string { return []string{StageStudy} }

func (s *VolatilityStage) Validate(state *RunState) error {
	if state.Study == nil {
		return apperrors.NewConfigurationError("no abnormal-return panel to analyze", nil)
	}
	return nil
}

func (s *VolatilityStage) Execute(ctx context.Context, state *RunState) error {
	records := s.analyzer.Analyze(state.Study.Panel)
	state.VolRecords = records
	state.VolSectors = volatility.SectorTable(records)
	state.VolGroups, state.VolContrast = s.analyzer.GroupContrast(records, state.Study.AlignedDate)
	return nil
}

// DiDStage estimates the difference-in-differences design on the
// event panel.
type DiDStage struct {
	estimator *regress.Estimator
}

// NewDiDStage wires the DiD regression stage.
func NewDiDStage(estimator *regress.Estimator) *DiDStage {
	return &DiDStage{estimator: estimator}
}

func (s *DiDStage) ID() string { return StageDiD }
func (s *DiDStage) Name() string { return "Difference-in-differences" }
func (s *DiDStage) Dependencies() []string { return []string{StageStudy} }

func (s *DiDStage) Validate(state *RunState) error {
	if state.Study == nil {
		return apperrors.NewConfigurationError("no abnormal-return panel to estimate", nil)
	}
	return nil
}

func (s *DiDStage) Execute(ctx context.Context, state *RunState) error {
	res, err := s.estimator.DiD(state.Study.Panel, state.Study.AlignedDate)
	if err != nil {
		return err
	}
	state.Regressions = append(state.Regressions, res)
	return nil
}

// DDDStage estimates the triple-difference design on the event panel.
type DDDStage struct {
	estimator *regress.Estimator
}

// NewDDDStage wires the triple-difference regression stage.
func NewDDDStage(estimator *regress.Estimator) *DDDStage {
	return &DDDStage{estimator: estimator}
}

func (s *DDDStage) ID() string { return StageDDD }
func (s *DDDStage) Name() string { return "Triple difference" }
func (s *DDDStage) Dependencies() []string { return []string{StageStudy} }

func (s *DDDStage) Validate(state *RunState) error {
	if state.Study == nil {
		return apperrors.NewConfigurationError("no abnormal-return panel to estimate", nil)
	}
	return nil
}

func (s *DDDStage) Execute(ctx context.Context, state *RunState) error {
	res, err := s.estimator.DDD(state.Study.Panel, state.Study.AlignedDate)
	if err != nil {
		return err
	}
	state.Regressions = append(state.Regressions, res)
	return nil
}

// LinkagesStage measures the macro shocks around the event and
// regresses per-ticker volatility changes on the exposure channels.
type LinkagesStage struct {
	estimator *regress.Estimator
}

// NewLinkagesStage wires the global linkages stage.
func NewLinkagesStage(estimator *regress.Estimator) *LinkagesStage {
	return &LinkagesStage{estimator: estimator}
}

func (s *LinkagesStage) ID() string { return StageLinkages }
func (s *LinkagesStage) Name() string { return "Global macro linkages" }

func (s *LinkagesStage) Dependencies() []string {
	return []string{StageStudy, StageVolatility}
}

func (s *LinkagesStage) Validate(state *RunState) error {
	switch {
	case state.Dataset == nil:
		return apperrors.NewConfigurationError("no dataset loaded", nil)
	case state.Study == nil:
		return apperrors.NewConfigurationError("no study result", nil)
	case state.VolRecords == nil:
		return apperrors.NewConfigurationError("no volatility records", nil)
	}
	return nil
}

func (s *LinkagesStage) Execute(ctx context.Context, state *RunState) error {
	shocks, err := s.estimator.MacroShocks(state.Dataset.Macros, state.Study.AlignedDate)
	if err != nil {
		return err
	}
	res, err := s.estimator.Linkages(state.VolRecords, shocks)
	if err != nil {
		return err
	}
	state.Regressions = append(state.Regressions, res)
	return nil
}

// ExportStage publishes whatever the run produced: the study tables,
// the tables of every analysis branch that completed, and the
// workbook. It depends only on the study, so one failed branch still
// leaves the core tables on disk.
type ExportStage struct {
	exporter *exporter.Exporter
	log      *slog.Logger
}

// NewExportStage wires the export stage.
func NewExportStage(exp *exporter.Exporter, log *slog.Logger) *ExportStage {
	if log == nil {
		log = slog.Default()
	}
	return &ExportStage{exporter: exp, log: log}
}

func (s *ExportStage) ID() string { return StageExport }
func (s *ExportStage) Name() string { return "Export tables and workbook" }
func (s *ExportStage) Dependencies() []string { return []string{StageStudy} }

func (s *ExportStage) Validate(state *RunState) error {
	if state.Spec == nil || state.Study == nil {
		return apperrors.NewConfigurationError("no study result to export", nil)
	}
	return nil
}

func (s *ExportStage) Execute(ctx context.Context, state *RunState) error {
	res := state.Study
	date := res.AlignedDate
	horizons := state.Spec.Horizons

	if err := s.exporter.WriteSummary(date, horizons, res.Summaries); err != nil {
		return err
	}
	if err := s.exporter.WritePanel(date, res.Panel); err != nil {
		return err
	}

	if state.Cells != nil {
		if err := s.exporter.WriteSectorTables(date, horizons, state.Cells); err != nil {
			return err
		}
		if err := s.exporter.WriteBootstrap(date, state.Cells); err != nil {
			return err
		}
	} else {
		s.log.Debug("sector tables not written; aggregation did not complete")
	}

	if state.Tests != nil {
		if err := s.exporter.WriteSignificance(date, state.Tests); err != nil {
			return err
		}
	} else {
		s.log.Debug("significance table not written; tests did not complete")
	}

	if state.VolRecords != nil {
		if err := s.exporter.WriteVolatility(date, state.VolRecords, state.VolSectors, state.VolGroups, state.VolContrast); err != nil {
			return err
		}
	} else {
		s.log.Debug("volatility tables not written; contrast did not complete")
	}

	for _, reg := range state.Regressions {
		if err := s.exporter.WriteRegression(date, reg); err != nil {
			return err
		}
	}

	return s.exporter.WriteWorkbook(date, exporter.WorkbookData{
		Horizons:    horizons,
		Summaries:   res.Summaries,
		Cells:       state.Cells,
		Tests:       state.Tests,
		VolRecords:  state.VolRecords,
		VolSectors:  state.VolSectors,
		VolGroups:   state.VolGroups,
		VolContrast: state.VolContrast,
		Regressions: state.Regressions,
	})
}
