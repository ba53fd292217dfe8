package pipeline

import (
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/eventstudy"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// RunState accumulates everything one event run produces. Stages
// execute one at a time within a run, each writing the fields it owns
// and reading what its dependencies left behind, so the fields need no
// locking; concurrent event runs each own a separate RunState.
type RunState struct {
	// Spec and Report identify the run and collect its outcomes.
	Spec   *eventstudy.EventSpec
	Report *domain.RunReport

	// Dataset is loaded once and read by every later stage.
	Dataset *marketdata.Dataset

	// Study holds the market models, abnormal returns, and CARs.
	Study *eventstudy.Result

	// Aggregation cells and hypothesis tests.
	Cells []domain.SectorSummary
	Tests []domain.TestResult

	// Volatility contrast outputs.
	VolRecords  []domain.VolatilityRecord
	VolSectors  []domain.VolatilitySectorStat
	VolGroups   []domain.VolatilityGroupStat
	VolContrast domain.TestResult

	// Fitted regressions in stage execution order.
	Regressions []domain.RegressionResult
}

// NewRunState starts the state for one event run.
func NewRunState(spec *eventstudy.EventSpec, report *domain.RunReport) *RunState {
	return &RunState{Spec: spec, Report: report}
}
