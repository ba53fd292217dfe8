package eventstudy

import (
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// TickerResult bundles everything one included ticker contributes to
// the run.
type TickerResult struct {
	Model   domain.MarketModel
	Panel   []domain.AbnormalReturn
	CARs    []domain.CARRecord
	Summary domain.TickerSummary
}

// ComputeAbnormalReturns walks the event window and emits one record
// per offset where both the ticker and the benchmark observed a
// return: AR = actual - (alpha + beta*market). Offsets missing either
// return produce no record. RunningCAR accumulates the emitted ARs
// from the window start.
func ComputeAbnormalReturns(model domain.MarketModel, ticker, market *marketdata.ReturnSeries, a *Anchored) []domain.AbnormalReturn {
	var panel []domain.AbnormalReturn
	var running float64
	for i := a.EvtLo; i <= a.EvtHi; i++ {
		date := a.Cal.Date(i)
		actual, okT := ticker.At(date)
		rm, okM := market.At(date)
		if !okT || !okM {
			continue
		}
		expected := model.Alpha + model.Beta*rm
		ar := actual - expected
		running += ar
		panel = append(panel, domain.AbnormalReturn{
			Symbol:     model.Symbol,
			Date:       date,
			Offset:     i - a.EventIndex,
			Actual:     actual,
			Expected:   expected,
			AR:         ar,
			RunningCAR: running,
		})
	}
	return panel
}

// HorizonCARs cumulates abnormal returns from the event day: CAR(k)
// sums offsets 0..k inclusive. A gap anywhere in [0, k] makes that
// horizon's CAR missing; the gap is propagated, never skip-summed.
func HorizonCARs(symbol string, panel []domain.AbnormalReturn, a *Anchored) []domain.CARRecord {
	arByOffset := make(map[int]float64, len(panel))
	for _, rec := range panel {
		arByOffset[rec.Offset] = rec.AR
	}

	out := make([]domain.CARRecord, 0, len(a.Spec.Horizons))
	for _, k := range a.Spec.Horizons {
		car := 0.0
		complete := true
		for o := 0; o <= k; o++ {
			ar, ok := arByOffset[o]
			if !ok {
				complete = false
				break
			}
			car += ar
		}
		if !complete {
			car = domain.Missing()
		}
		out = append(out, domain.CARRecord{
			Symbol:    symbol,
			EventDate: a.AlignedDate,
			Horizon:   k,
			CAR:       car,
		})
	}
	return out
}

// RunTicker runs the full per-ticker sequence: estimation-window
// coverage gate, market-model fit, event-window abnormal returns, and
// horizon CARs. Every returned error is per-ticker; the caller
// records it and moves on.
func RunTicker(symbol string, ticker, market *marketdata.ReturnSeries, a *Anchored) (*TickerResult, error) {
	if err := marketdata.CheckWindowCoverage(ticker, a.Cal, a.EstLo, a.EstHi,
		a.Spec.MaxMissingShare, a.Spec.MinObservations); err != nil {
		return nil, err
	}

	model, err := FitMarketModel(symbol, ticker, market, a)
	if err != nil {
		return nil, err
	}

	panel := ComputeAbnormalReturns(model, ticker, market, a)
	cars := HorizonCARs(symbol, panel, a)

	summary := domain.TickerSummary{
		Ticker: symbol,
		Alpha:  model.Alpha,
		Beta:   model.Beta,
		NObs:   model.NObs,
		CARs:   make(map[int]float64, len(cars)),
	}
	for _, c := range cars {
		summary.CARs[c.Horizon] = c.CAR
	}

	return &TickerResult{Model: model, Panel: panel, CARs: cars, Summary: summary}, nil
}
