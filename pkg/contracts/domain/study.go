package domain

import (
	"fmt"
	"sort"
	"time"
)

// MarketModel holds the OLS market-model fit for one ticker over the
// estimation window: r_i = alpha + beta*r_m + e.
type MarketModel struct {
	Symbol      string  `json:"ticker" csv:"ticker" validate:"required"`
	Alpha       float64 `json:"alpha" csv:"alpha"`
	Beta        float64 `json:"beta" csv:"beta"`
	ResidualStd float64 `json:"residual_std,omitempty" csv:"residual_std,omitempty"`
	NObs        int     `json:"n_obs" csv:"n_obs" validate:"min=2"`
}

// AbnormalReturn is one event-window observation for one ticker.
// Records exist only for offsets where both the ticker and the
// benchmark traded; gaps produce no record and are never zero-filled.
//
// RunningCAR is the cumulative sum of the ticker's abnormal returns
// from the start of the event window through this offset, skipping
// gaps. Horizon CARs (see CARRecord) use the stricter event-day
// convention instead.
type AbnormalReturn struct {
	Symbol     string    `json:"ticker" csv:"ticker"`
	Date       time.Time `json:"date" csv:"date"`
	Offset     int       `json:"offset" csv:"offset"`
	Actual     float64   `json:"actual" csv:"actual"`
	Expected   float64   `json:"expected" csv:"expected"`
	AR         float64   `json:"ar" csv:"ar"`
	RunningCAR float64   `json:"car" csv:"car"`
}

// CARRecord is the cumulative abnormal return for one ticker at one
// horizon: CAR(k) = sum of AR at offsets 0..k inclusive, offset 0
// being the aligned event day. A gap anywhere in [0, k] makes the
// record missing; the missing sentinel propagates, it is never
// skip-summed.
type CARRecord struct {
	Symbol    string    `json:"ticker"`
	EventDate time.Time `json:"event_date"`
	Horizon   int       `json:"horizon" validate:"min=0"`
	CAR       float64   `json:"car"`
}

// IsMissing reports whether the CAR could not be computed for this
// horizon.
func (c CARRecord) IsMissing() bool { return IsMissing(c.CAR) }

// HorizonLabel names the published column for a horizon, e.g.
// "CAR_10d" for k = 10.
func HorizonLabel(horizon int) string {
	return fmt.Sprintf("CAR_%dd", horizon)
}

// TickerSummary is one row of the per-event summary table: fitted
// market-model parameters plus the horizon CARs. Horizon keys match
// the configured study horizons; values may carry the missing
// sentinel.
type TickerSummary struct {
	Ticker string          `json:"ticker" csv:"ticker" validate:"required"`
	Alpha  float64         `json:"alpha" csv:"alpha"`
	Beta   float64         `json:"beta" csv:"beta"`
	NObs   int             `json:"n_obs" csv:"n_obs"`
	CARs   map[int]float64 `json:"cars"`
}

// CAR returns the ticker's CAR at the given horizon and whether it is
// present and non-missing.
func (s TickerSummary) CAR(horizon int) (float64, bool) {
	v, ok := s.CARs[horizon]
	if !ok || IsMissing(v) {
		return 0, false
	}
	return v, true
}

// SortTickerSummaries orders rows by CAR at the given horizon,
// descending, matching the published table. Missing CARs sort last;
// ties break on ticker so output is deterministic.
func SortTickerSummaries(rows []TickerSummary, horizon int) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := rows[i].CAR(horizon)
		b, bok := rows[j].CAR(horizon)
		switch {
		case aok && bok && a != b:
			return a > b
		case aok != bok:
			return aok
		default:
			return rows[i].Ticker < rows[j].Ticker
		}
	})
}
