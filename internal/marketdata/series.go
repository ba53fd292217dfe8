package marketdata

import (
	"fmt"
	"sort"
	"time"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// PriceSeries holds one symbol's daily bars in ascending date order.
type PriceSeries struct {
	Symbol string
	Bars   []domain.PriceBar

	byDate map[int64]int
}

// NewPriceSeries sorts and de-duplicates bars into a series. When the
// same date appears twice the later bar wins.
func NewPriceSeries(symbol string, bars []domain.PriceBar) *PriceSeries {
	byDate := make(map[int64]int, len(bars))
	kept := make([]domain.PriceBar, 0, len(bars))
	for _, b := range bars {
		b.Date = Normalize(b.Date)
		k := b.Date.Unix()
		if i, dup := byDate[k]; dup {
			kept[i] = b
			continue
		}
		byDate[k] = len(kept)
		kept = append(kept, b)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Date.Before(kept[j].Date) })
	for i, b := range kept {
		byDate[b.Date.Unix()] = i
	}
	return &PriceSeries{Symbol: symbol, Bars: kept, byDate: byDate}
}

// Len returns the number of bars.
func (p *PriceSeries) Len() int { return len(p.Bars) }

// Dates returns the series' trading dates in ascending order.
func (p *PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = b.Date
	}
	return out
}

// At returns the effective close on an exact date.
func (p *PriceSeries) At(d time.Time) (float64, bool) {
	i, ok := p.byDate[DateKey(d)]
	if !ok {
		return 0, false
	}
	v := p.Bars[i].EffectiveClose()
	if v <= 0 {
		return 0, false
	}
	return v, true
}

// MeanLevel averages the effective close over dates in [from, to]
// inclusive and reports how many observations contributed.
func (p *PriceSeries) MeanLevel(from, to time.Time) (float64, int) {
	lo, hi := Normalize(from), Normalize(to)
	var sum float64
	var n int
	for _, b := range p.Bars {
		if b.Date.Before(lo) || b.Date.After(hi) {
			continue
		}
		v := b.EffectiveClose()
		if v <= 0 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// TailBefore returns the effective closes of the last n trading days
// strictly before cutoff, in date order.
func (p *PriceSeries) TailBefore(cutoff time.Time, n int) []float64 {
	c := Normalize(cutoff)
	var out []float64
	for _, b := range p.Bars {
		if !b.Date.Before(c) {
			break
		}
		if v := b.EffectiveClose(); v > 0 {
			out = append(out, v)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// HeadFrom returns the effective closes of the first n trading days on
// or after cutoff, in date order.
func (p *PriceSeries) HeadFrom(cutoff time.Time, n int) []float64 {
	c := Normalize(cutoff)
	var out []float64
	for _, b := range p.Bars {
		if b.Date.Before(c) {
			continue
		}
		if v := b.EffectiveClose(); v > 0 {
			out = append(out, v)
		}
		if len(out) == n {
			break
		}
	}
	return out
}

// ReturnSeries holds one symbol's simple daily returns keyed by the
// trading date they land on. Only dates where both the date and its
// predecessor on the benchmark calendar carry a usable close produce
// a return; gaps stay absent and are never zero-filled.
type ReturnSeries struct {
	Symbol string
	Dates  []time.Time
	Values []float64

	byDate map[int64]int
}

// NewReturnSeries builds a series from explicit (date, return) pairs.
// Pairs are sorted by date; duplicate dates keep the later value.
func NewReturnSeries(symbol string, dates []time.Time, values []float64) *ReturnSeries {
	type obs struct {
		date  time.Time
		value float64
	}
	byDate := make(map[int64]obs, len(dates))
	for i := range dates {
		if i >= len(values) {
			break
		}
		d := Normalize(dates[i])
		byDate[d.Unix()] = obs{date: d, value: values[i]}
	}
	ordered := make([]obs, 0, len(byDate))
	for _, o := range byDate {
		ordered = append(ordered, o)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].date.Before(ordered[j].date) })

	rs := &ReturnSeries{Symbol: symbol, byDate: make(map[int64]int, len(ordered))}
	for _, o := range ordered {
		rs.byDate[o.date.Unix()] = len(rs.Values)
		rs.Dates = append(rs.Dates, o.date)
		rs.Values = append(rs.Values, o.value)
	}
	return rs
}

// ComputeReturns derives simple returns r_t = p_t/p_{t-1} - 1 on the
// effective close, stepping along the benchmark calendar. A ticker
// observation on a non-calendar date is ignored.
func ComputeReturns(p *PriceSeries, cal *TradingCalendar) *ReturnSeries {
	rs := &ReturnSeries{Symbol: p.Symbol, byDate: make(map[int64]int)}
	for i := 1; i < cal.Len(); i++ {
		cur, okCur := p.At(cal.Date(i))
		prev, okPrev := p.At(cal.Date(i - 1))
		if !okCur || !okPrev {
			continue
		}
		rs.byDate[cal.Date(i).Unix()] = len(rs.Values)
		rs.Dates = append(rs.Dates, cal.Date(i))
		rs.Values = append(rs.Values, cur/prev-1)
	}
	return rs
}

// Len returns the number of observed returns.
func (r *ReturnSeries) Len() int { return len(r.Values) }

// At returns the return landing on an exact date.
func (r *ReturnSeries) At(d time.Time) (float64, bool) {
	i, ok := r.byDate[DateKey(d)]
	if !ok {
		return 0, false
	}
	return r.Values[i], true
}

// Segment collects the returns on dates in [from, to] inclusive, in
// date order.
func (r *ReturnSeries) Segment(from, to time.Time) []float64 {
	lo, hi := Normalize(from), Normalize(to)
	var out []float64
	for i, d := range r.Dates {
		if d.Before(lo) || d.After(hi) {
			continue
		}
		out = append(out, r.Values[i])
	}
	return out
}

// SplitAt partitions the returns into observations strictly before
// the cutoff date and observations on or after it.
func (r *ReturnSeries) SplitAt(cutoff time.Time) (pre, post []float64) {
	c := Normalize(cutoff)
	for i, d := range r.Dates {
		if d.Before(c) {
			pre = append(pre, r.Values[i])
		} else {
			post = append(post, r.Values[i])
		}
	}
	return pre, post
}

// CountIn counts the returns present across calendar indices
// [lo, hi] inclusive.
func (r *ReturnSeries) CountIn(cal *TradingCalendar, lo, hi int) int {
	n := 0
	for i := lo; i <= hi; i++ {
		if _, ok := r.byDate[cal.Date(i).Unix()]; ok {
			n++
		}
	}
	return n
}

// CheckWindowCoverage enforces the exclusion rules for one ticker
// against calendar indices [lo, hi]: no overlap at all is an
// alignment failure, more than maxMissingShare of the window missing
// or fewer than minObs observations is a data gap. The ticker is
// excluded and reported; the run continues.
func CheckWindowCoverage(r *ReturnSeries, cal *TradingCalendar, lo, hi int, maxMissingShare float64, minObs int) error {
	want := hi - lo + 1
	if want <= 0 {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("coverage window [%d, %d] is empty", lo, hi), nil)
	}
	have := r.CountIn(cal, lo, hi)
	if have == 0 {
		window := fmt.Sprintf("%s..%s",
			cal.Date(lo).Format("2006-01-02"), cal.Date(hi).Format("2006-01-02"))
		return apperrors.NewAlignmentError(r.Symbol, window)
	}
	missing := float64(want - have)
	if missing > maxMissingShare*float64(want) || have < minObs {
		return apperrors.NewDataGapError(r.Symbol, have, want)
	}
	return nil
}
