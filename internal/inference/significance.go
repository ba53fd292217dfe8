package inference

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// ContrastTreatedDefensive labels the Welch rows comparing treated
// against defensive mean CARs.
const ContrastTreatedDefensive = "treated_vs_defensive"

// Tester builds the significance table. One-sample rows test each
// cell's mean CAR against zero; their p-values are nominal only, since
// event-window CARs are cross-sectionally correlated and the cells are
// small. Welch rows contrast the treated and defensive group means.
type Tester struct {
	uni *config.Universe
	cfg config.InferenceConfig
	log *slog.Logger
}

// NewTester wires a tester against a universe's sector and group
// assignments.
func NewTester(uni *config.Universe, cfg config.InferenceConfig, log *slog.Logger) *Tester {
	if log == nil {
		log = slog.Default()
	}
	return &Tester{uni: uni, cfg: cfg, log: log}
}

// Run computes, per horizon: one-sample rows for each treatment group
// (Treated, Defensive, Other) and each sector A to Z, then the
// treated-vs-defensive Welch row. A row is significant when its
// p-value clears alpha = 1 - confidence or, with at least two present
// values, its interval excludes zero; a lone CAR's degenerate interval
// never flags. Statistic, p, and bounds are reported either way. Pure:
// no side effects beyond the returned slice.
func (t *Tester) Run(cars []domain.CARRecord) []domain.TestResult {
	cells, eventDate, _ := groupCells(t.uni, cars)
	alpha := 1 - t.cfg.Confidence

	var out []domain.TestResult
	for _, h := range cellHorizons(cells) {
		for _, g := range []config.Group{config.GroupTreated, config.GroupDefensive, config.GroupOther} {
			if members, ok := cells[cellKey{Scope: domain.ScopeGroup, Label: string(g), Horizon: h}]; ok {
				out = append(out, t.oneSampleRow(string(g), eventDate, h, carValues(members), alpha))
			}
		}
		for _, label := range sectorLabels(cells, h) {
			members := cells[cellKey{Scope: domain.ScopeSector, Label: label, Horizon: h}]
			out = append(out, t.oneSampleRow(label, eventDate, h, carValues(members), alpha))
		}

		treated := cells[cellKey{Scope: domain.ScopeGroup, Label: string(config.GroupTreated), Horizon: h}]
		defensive := cells[cellKey{Scope: domain.ScopeGroup, Label: string(config.GroupDefensive), Horizon: h}]
		if len(treated) > 0 && len(defensive) > 0 {
			out = append(out, t.welchRow(eventDate, h, carValues(treated), carValues(defensive), alpha))
		}
	}
	return out
}

func (t *Tester) oneSampleRow(label string, eventDate time.Time, horizon int, vals []float64, alpha float64) domain.TestResult {
	tt := OneSampleT(vals)
	ci := Bootstrap(vals, t.cfg.Resamples, t.cfg.Confidence, t.cfg.Seed)
	return domain.TestResult{
		Label:       label,
		EventDate:   eventDate,
		Horizon:     horizon,
		Kind:        domain.TestKindOneSample,
		Statistic:   tt.Statistic,
		PValue:      tt.PValue,
		DF:          tt.DF,
		CILow:       ci.Lower,
		CIHigh:      ci.Upper,
		N:           tt.N,
		Significant: tt.PValue < alpha || (tt.N >= 2 && ci.ExcludesZero()),
	}
}

func (t *Tester) welchRow(eventDate time.Time, horizon int, treated, defensive []float64, alpha float64) domain.TestResult {
	tt := WelchT(treated, defensive)
	lower, upper := tt.ConfidenceInterval(t.cfg.Confidence)
	excludes := !domain.IsMissing(lower) && !domain.IsMissing(upper) && (lower > 0 || upper < 0)
	return domain.TestResult{
		Label:       ContrastTreatedDefensive,
		EventDate:   eventDate,
		Horizon:     horizon,
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
}

func sectorLabels(cells map[cellKey][]tickerCAR, horizon int) []string {
	var labels []string
	for key := range cells {
		if key.Scope == domain.ScopeSector && key.Horizon == horizon {
			labels = append(labels, key.Label)
		}
	}
	sort.Strings(labels)
	return labels
}
