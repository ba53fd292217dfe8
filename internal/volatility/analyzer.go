package volatility

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/inference"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// DeltaVolContrast labels the treated-vs-defensive Welch test on
// volatility changes, distinguishing it from the CAR contrast in the
// run report.
const DeltaVolContrast = "treated_vs_defensive_dvol"

// fitFunc maps a return segment to its mean conditional volatility.
type fitFunc func(returns []float64) (float64, error)

func garchMeanVol(returns []float64) (float64, error) {
	model, err := FitGARCH(returns)
	if err != nil {
		return 0, err
	}
	return model.MeanConditionalVol(), nil
}

// Analyzer contrasts conditional volatility before and after the event
// day using each ticker's event-panel abnormal returns.
type Analyzer struct {
	uni   *config.Universe
	cfg   config.VolatilityConfig
	infer config.InferenceConfig
	log   *slog.Logger
	fit   fitFunc
}

// NewAnalyzer wires an analyzer. A nil logger falls back to
// slog.Default.
func NewAnalyzer(uni *config.Universe, cfg config.VolatilityConfig, infer config.InferenceConfig, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{uni: uni, cfg: cfg, infer: infer, log: log, fit: garchMeanVol}
}

// Analyze estimates pre and post event volatility per ticker from the
// event-window abnormal returns. The aligned event day itself belongs
// to the post segment. Tickers with fewer than MinSegmentObs abnormal
// returns on either side are skipped; a ticker whose GARCH fit fails
// on either segment falls back to the sample standard deviation and is
// flagged with VolMethodStdDev. Output rows are ticker-sorted.
func (a *Analyzer) Analyze(panel []domain.AbnormalReturn) []domain.VolatilityRecord {
	pre := make(map[string][]float64)
	post := make(map[string][]float64)
	for _, row := range panel {
		if domain.IsMissing(row.AR) {
			continue
		}
		if row.Offset < 0 {
			pre[row.Symbol] = append(pre[row.Symbol], row.AR)
		} else {
			post[row.Symbol] = append(post[row.Symbol], row.AR)
		}
	}

	seen := make(map[string]bool, len(pre))
	var symbols []string
	for sym := range pre {
		if !seen[sym] {
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}
	for sym := range post {
		if !seen[sym] {
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	records := make([]domain.VolatilityRecord, 0, len(symbols))
	for _, symbol := range symbols {
		p, q := pre[symbol], post[symbol]
		if len(p) < a.cfg.MinSegmentObs || len(q) < a.cfg.MinSegmentObs {
			a.log.Debug("segment too short for volatility contrast",
				slog.String("symbol", symbol),
				slog.Int("pre", len(p)),
				slog.Int("post", len(q)),
				slog.Int("min", a.cfg.MinSegmentObs))
			continue
		}

		preVol, preOK := a.segmentVol(symbol, "pre", p)
		postVol, postOK := a.segmentVol(symbol, "post", q)

		sector, ok := a.uni.SectorOf(symbol)
		if !ok {
			sector = string(config.GroupOther)
		}
		method := domain.VolMethodGARCH
		if !preOK || !postOK {
			method = domain.VolMethodStdDev
		}

		records = append(records, domain.VolatilityRecord{
			Ticker:       symbol,
			Sector:       sector,
			Group:        string(a.uni.GroupOf(symbol)),
			HighExposure: a.uni.IsHighExposure(symbol),
			PreVol:       preVol,
			PostVol:      postVol,
			DeltaVol:     postVol - preVol,
			Method:       method,
		})
	}
	return records
}

func (a *Analyzer) segmentVol(symbol, segment string, returns []float64) (float64, bool) {
	vol, err := a.fit(returns)
	if err == nil {
		return vol, true
	}
	a.log.Debug("garch fit failed; falling back to sample std dev",
		slog.String("symbol", symbol),
		slog.String("segment", segment),
		slog.String("error", err.Error()))
	return math.Sqrt(stat.Variance(returns, nil)), false
}

// SectorTable aggregates DeltaVol per sector: mean, median, and ticker
// count, sorted by mean descending with ties on the sector name.
func SectorTable(records []domain.VolatilityRecord) []domain.VolatilitySectorStat {
	deltas := make(map[string][]float64)
	for _, rec := range records {
		deltas[rec.Sector] = append(deltas[rec.Sector], rec.DeltaVol)
	}

	stats := make([]domain.VolatilitySectorStat, 0, len(deltas))
	for sector, vals := range deltas {
		stats = append(stats, domain.VolatilitySectorStat{
			Sector:      sector,
			MeanDelta:   stat.Mean(vals, nil),
			MedianDelta: inference.Median(vals),
			Count:       len(vals),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].MeanDelta != stats[j].MeanDelta {
			return stats[i].MeanDelta > stats[j].MeanDelta
		}
		return stats[i].Sector < stats[j].Sector
	})
	return stats
}

// GroupContrast summarizes DeltaVol for the treated and defensive
// groups and tests their difference. Group rows carry the seeded
// bootstrap interval around the mean; the contrast itself is a Welch
// TestResult. Other-group tickers take no part.
func (a *Analyzer) GroupContrast(records []domain.VolatilityRecord, eventDate time.Time) ([]domain.VolatilityGroupStat, domain.TestResult) {
	treated := groupDeltas(records, config.GroupTreated)
	defensive := groupDeltas(records, config.GroupDefensive)

	stats := []domain.VolatilityGroupStat{
		a.groupRow(string(config.GroupTreated), treated),
		a.groupRow(string(config.GroupDefensive), defensive),
	}

	tt := inference.WelchT(treated, defensive)
	lower, upper := tt.ConfidenceInterval(a.infer.Confidence)
	excludes := !domain.IsMissing(lower) && !domain.IsMissing(upper) && (lower > 0 || upper < 0)
	alpha := 1 - a.infer.Confidence
	test := domain.TestResult{
		Label:       DeltaVolContrast,
		EventDate:   eventDate,
		Horizon:     0,
		Kind:        domain.TestKindWelch,
		Statistic:   tt.Statistic,
		PValue:      tt.PValue,
		DF:          tt.DF,
		CILow:       lower,
		CIHigh:      upper,
		N:           tt.N,
		N2:          tt.N2,
		Significant: tt.PValue < alpha || excludes,
	}
	return stats, test
}

func (a *Analyzer) groupRow(label string, deltas []float64) domain.VolatilityGroupStat {
	row := domain.VolatilityGroupStat{Group: label, Count: len(deltas)}
	if len(deltas) == 0 {
		row.MeanDelta = domain.Missing()
		row.StdDelta = domain.Missing()
		row.CILow = domain.Missing()
		row.CIHigh = domain.Missing()
		return row
	}

	ci := inference.Bootstrap(deltas, a.infer.Resamples, a.infer.Confidence, a.infer.Seed)
	row.MeanDelta = ci.Mean
	row.CILow = ci.Lower
	row.CIHigh = ci.Upper
	if len(deltas) >= 2 {
		row.StdDelta = math.Sqrt(stat.Variance(deltas, nil))
	} else {
		row.StdDelta = domain.Missing()
	}
	return row
}

// groupDeltas returns the group's DeltaVol values in ticker order, so
// the bootstrap draws do not depend on caller ordering.
func groupDeltas(records []domain.VolatilityRecord, group config.Group) []float64 {
	var members []domain.VolatilityRecord
	for _, rec := range records {
		if rec.Group == string(group) {
			members = append(members, rec)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Ticker < members[j].Ticker })

	deltas := make([]float64, len(members))
	for i, rec := range members {
		deltas[i] = rec.DeltaVol
	}
	return deltas
}
