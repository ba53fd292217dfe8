package domain

import (
	"time"

	"github.com/google/uuid"
)

// TickerStatus is the per-ticker outcome of a study run.
type TickerStatus string

const (
	// TickerStatusIncluded means the ticker produced a market model
	// and abnormal returns.
	TickerStatusIncluded TickerStatus = "included"
	// TickerStatusExcluded means the ticker was dropped with a
	// recorded error; exclusions never abort the batch.
	TickerStatusExcluded TickerStatus = "excluded"
)

// TickerOutcome records how one ticker fared in a run. ErrorType and
// Reason are set only for exclusions; ErrorType matches the error
// taxonomy (DATA_GAP, INSUFFICIENT_DATA, ALIGNMENT, PARSING).
type TickerOutcome struct {
	Symbol    string       `json:"ticker" validate:"required"`
	Sector    string       `json:"sector,omitempty"`
	Status    TickerStatus `json:"status" validate:"oneof=included excluded"`
	ErrorType string       `json:"error_type,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// StageSummary is the timing and outcome of one pipeline stage as it
// appears in the run report.
type StageSummary struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// RunCounts totals the per-ticker outcomes of a run.
type RunCounts struct {
	Universe int `json:"universe"`
	Included int `json:"included"`
	Excluded int `json:"excluded"`
}

// RunReport is the machine-readable record of one study run. Every
// excluded ticker appears in Outcomes with its error kind; nothing is
// dropped silently.
type RunReport struct {
	RunID         string          `json:"run_id" validate:"required,uuid"`
	Label         string          `json:"label"`
	RequestedDate time.Time       `json:"requested_date"`
	AlignedDate   time.Time       `json:"aligned_date"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   time.Time       `json:"completed_at"`
	Counts        RunCounts       `json:"counts"`
	Outcomes      []TickerOutcome `json:"outcomes"`
	Stages        []StageSummary  `json:"stages,omitempty"`
}

// NewRunReport starts a report for one event run.
func NewRunReport(label string, requested time.Time) *RunReport {
	return &RunReport{
		RunID:         uuid.NewString(),
		Label:         label,
		RequestedDate: requested,
		StartedAt:     time.Now(),
	}
}

// Include records a successfully processed ticker.
func (r *RunReport) Include(symbol, sector string) {
	r.Outcomes = append(r.Outcomes, TickerOutcome{
		Symbol: symbol,
		Sector: sector,
		Status: TickerStatusIncluded,
	})
	r.Counts.Included++
}

// Exclude records a dropped ticker with its error kind and reason.
func (r *RunReport) Exclude(symbol, sector, errorType, reason string) {
	r.Outcomes = append(r.Outcomes, TickerOutcome{
		Symbol:    symbol,
		Sector:    sector,
		Status:    TickerStatusExcluded,
		ErrorType: errorType,
		Reason:    reason,
	})
	r.Counts.Excluded++
}

// Finish stamps the completion time and the universe total.
func (r *RunReport) Finish(universe int) {
	r.CompletedAt = time.Now()
	r.Counts.Universe = universe
}

// ExcludedSymbols lists the dropped tickers in outcome order.
func (r *RunReport) ExcludedSymbols() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Status == TickerStatusExcluded {
			out = append(out, o.Symbol)
		}
	}
	return out
}
