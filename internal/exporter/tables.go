package exporter

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/regress"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// Exporter writes the per-event result tables in their published
// layouts. Every file name is stamped with the event date, so two
// events in one run never collide.
type Exporter struct {
	csv   *CSVWriter
	paths *config.Paths
	log   *slog.Logger
}

// New creates an exporter over the run's directory layout.
func New(paths *config.Paths, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{
		csv:   NewCSVWriter(paths, log),
		paths: paths,
		log:   log,
	}
}

// stamp renders the event date used in every output file name.
func stamp(eventDate time.Time) string {
	return eventDate.Format(config.DateLayout)
}

// WriteSummary writes the per-ticker summary table: fitted market-model
// parameters and one CAR column per horizon, ordered by the longest
// horizon descending.
func (e *Exporter) WriteSummary(eventDate time.Time, horizons []int, rows []domain.TickerSummary) error {
	headers := []string{"ticker", "alpha", "beta", "n_obs"}
	for _, k := range horizons {
		headers = append(headers, domain.HorizonLabel(k))
	}

	sorted := append([]domain.TickerSummary(nil), rows...)
	if len(horizons) > 0 {
		domain.SortTickerSummaries(sorted, horizons[len(horizons)-1])
	}

	records := make([][]string, 0, len(sorted))
	for _, s := range sorted {
		rec := []string{s.Ticker, formatFloat(s.Alpha), formatFloat(s.Beta), formatInt(int64(s.NObs))}
		for _, k := range horizons {
			rec = append(rec, formatFloat(horizonCell(s, k)))
		}
		records = append(records, rec)
	}

	return e.csv.WriteSimpleCSV(e.paths.SummaryCSV(stamp(eventDate)), headers, records)
}

// horizonCell returns the summary's CAR at a horizon, missing when the
// horizon was never computed for the ticker.
func horizonCell(s domain.TickerSummary, horizon int) float64 {
	v, ok := s.CARs[horizon]
	if !ok {
		return domain.Missing()
	}
	return v
}

// WritePanel writes the daily abnormal-return panel, one row per
// ticker-date, ordered by date then ticker.
func (e *Exporter) WritePanel(eventDate time.Time, panel []domain.AbnormalReturn) error {
	sorted := append([]domain.AbnormalReturn(nil), panel...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Symbol < sorted[j].Symbol
	})

	records := make([][]string, 0, len(sorted))
	for _, ar := range sorted {
		records = append(records, []string{
			ar.Date.Format(config.DateLayout),
			ar.Symbol,
			formatFloat(ar.AR),
			formatFloat(ar.RunningCAR),
		})
	}

	headers := []string{"date", "ticker", "ar", "car"}
	return e.csv.WriteSimpleCSV(e.paths.PanelCSV(stamp(eventDate)), headers, records)
}

// WriteSectorTables writes the sector mean and median CAR tables. Each
// table is ordered by its own value at the longest horizon, descending,
// so the hardest-hit sectors lead.
func (e *Exporter) WriteSectorTables(eventDate time.Time, horizons []int, cells []domain.SectorSummary) error {
	pivot := pivotSectors(cells)

	headers := []string{"sector"}
	for _, k := range horizons {
		headers = append(headers, domain.HorizonLabel(k))
	}
	headers = append(headers, "n")

	maxH := 0
	if len(horizons) > 0 {
		maxH = horizons[len(horizons)-1]
	}

	table := func(median bool) [][]string {
		order := pivot.order(maxH, median)
		records := make([][]string, 0, len(order))
		for _, label := range order {
			rec := []string{label}
			for _, k := range horizons {
				rec = append(rec, formatFloat(pivot.value(label, k, median)))
			}
			rec = append(rec, formatInt(int64(pivot.count(label, maxH))))
			records = append(records, rec)
		}
		return records
	}

	st := stamp(eventDate)
	if err := e.csv.WriteSimpleCSV(e.paths.SectorMeanCSV(st), headers, table(false)); err != nil {
		return err
	}
	return e.csv.WriteSimpleCSV(e.paths.SectorMedianCSV(st), headers, table(true))
}

// WriteBootstrap writes the treatment-group bootstrap intervals, one
// row per group and horizon, treated group first.
func (e *Exporter) WriteBootstrap(eventDate time.Time, cells []domain.SectorSummary) error {
	rows := groupScope(cells)

	records := make([][]string, 0, len(rows))
	for _, c := range rows {
		records = append(records, []string{
			c.Label,
			domain.HorizonLabel(c.Horizon),
			formatFloat(c.Mean),
			formatFloat(c.CILow),
			formatFloat(c.CIHigh),
			formatInt(int64(c.N)),
		})
	}

	headers := []string{"Group", "Metric", "Mean", "Low_CI", "High_CI", "N"}
	return e.csv.WriteSimpleCSV(e.paths.BootstrapCSV(stamp(eventDate)), headers, records)
}

// WriteSignificance writes the hypothesis-test table in tester order:
// horizon blocks, group tests before sector tests before the contrast.
func (e *Exporter) WriteSignificance(eventDate time.Time, tests []domain.TestResult) error {
	records := make([][]string, 0, len(tests))
	for _, tr := range tests {
		records = append(records, []string{
			tr.Label,
			formatInt(int64(tr.Horizon)),
			string(tr.Kind),
			formatFloat(tr.Statistic),
			formatFloat(tr.PValue),
			formatFloat(tr.DF),
			formatFloat(tr.CILow),
			formatFloat(tr.CIHigh),
			formatInt(int64(tr.N)),
			countCell(tr.N2),
			formatBool(tr.Significant),
		})
	}

	headers := []string{"label", "horizon", "kind", "statistic", "p_value", "df", "ci_low", "ci_high", "n", "n2", "significant"}
	return e.csv.WriteSimpleCSV(e.paths.SignificanceCSV(stamp(eventDate)), headers, records)
}

// WriteVolatility writes the three volatility tables: the per-ticker
// summary, the sector aggregation, and the group contrast with the
// Welch test appended as its own row.
func (e *Exporter) WriteVolatility(eventDate time.Time, records []domain.VolatilityRecord,
	sectors []domain.VolatilitySectorStat, groups []domain.VolatilityGroupStat, contrast domain.TestResult) error {

	st := stamp(eventDate)

	sorted := append([]domain.VolatilityRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ticker < sorted[j].Ticker })

	summary := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		summary = append(summary, []string{
			r.Ticker,
			r.Sector,
			r.Group,
			formatBool(r.HighExposure),
			formatFloat(r.PreVol),
			formatFloat(r.PostVol),
			formatFloat(r.DeltaVol),
			string(r.Method),
		})
	}
	summaryHeaders := []string{"ticker", "sector", "group", "high_exposure", "pre_mean_sigma", "post_mean_sigma", "delta_sigma", "method"}
	if err := e.csv.WriteSimpleCSV(e.paths.VolSummaryCSV(st), summaryHeaders, summary); err != nil {
		return err
	}

	sectorRows := make([][]string, 0, len(sectors))
	for _, s := range sectors {
		sectorRows = append(sectorRows, []string{
			s.Sector,
			formatFloat(s.MeanDelta),
			formatFloat(s.MedianDelta),
			formatInt(int64(s.Count)),
		})
	}
	sectorHeaders := []string{"sector", "mean_delta", "median_delta", "count"}
	if err := e.csv.WriteSimpleCSV(e.paths.VolSectorCSV(st), sectorHeaders, sectorRows); err != nil {
		return err
	}

	groupRows := make([][]string, 0, len(groups)+1)
	for _, g := range groups {
		groupRows = append(groupRows, []string{
			g.Group,
			formatFloat(g.MeanDelta),
			formatFloat(g.StdDelta),
			formatFloat(g.CILow),
			formatFloat(g.CIHigh),
			formatInt(int64(g.Count)),
			"",
			"",
		})
	}
	groupRows = append(groupRows, []string{
		contrast.Label,
		"",
		"",
		formatFloat(contrast.CILow),
		formatFloat(contrast.CIHigh),
		"",
		formatFloat(contrast.Statistic),
		formatFloat(contrast.PValue),
	})
	groupHeaders := []string{"group", "mean_delta", "std_delta", "low_ci", "high_ci", "count", "t_stat", "p_value"}
	return e.csv.WriteSimpleCSV(e.paths.VolGroupsCSV(st), groupHeaders, groupRows)
}

// WriteRegression writes one fitted regression as a coefficient table,
// routed to its published file by the regression's name.
func (e *Exporter) WriteRegression(eventDate time.Time, res domain.RegressionResult) error {
	st := stamp(eventDate)

	var path string
	switch res.Name {
	case regress.NameDiD:
		path = e.paths.DiDCSV(st)
	case regress.NameDDD:
		path = e.paths.DDDCSV(st)
	case regress.NameLinkages:
		path = e.paths.LinkagesCSV(st)
	default:
		return apperrors.NewConfigurationError("no output table for regression "+res.Name, nil)
	}

	records := make([][]string, 0, len(res.Terms))
	for _, term := range res.Terms {
		records = append(records, []string{
			term.Term,
			formatFloat(term.Coef),
			formatFloat(term.StdErr),
			formatFloat(term.TStat),
			formatFloat(term.PValue),
		})
	}

	headers := []string{"term", "coef", "std_err", "t_stat", "p_value"}
	return e.csv.WriteSimpleCSV(path, headers, records)
}

// sectorPivot indexes sector-scope cells by label and horizon.
type sectorPivot struct {
	labels []string
	cells  map[string]map[int]domain.SectorSummary
}

func pivotSectors(cells []domain.SectorSummary) *sectorPivot {
	p := &sectorPivot{cells: make(map[string]map[int]domain.SectorSummary)}
	for _, c := range cells {
		if c.Scope != domain.ScopeSector {
			continue
		}
		if _, ok := p.cells[c.Label]; !ok {
			p.cells[c.Label] = make(map[int]domain.SectorSummary)
			p.labels = append(p.labels, c.Label)
		}
		p.cells[c.Label][c.Horizon] = c
	}
	return p
}

// value returns a sector's mean or median CAR at a horizon, missing
// when the cell does not exist.
func (p *sectorPivot) value(label string, horizon int, median bool) float64 {
	c, ok := p.cells[label][horizon]
	if !ok {
		return domain.Missing()
	}
	if median {
		return c.Median
	}
	return c.Mean
}

// count returns the sector's ticker count at a horizon.
func (p *sectorPivot) count(label string, horizon int) int {
	return p.cells[label][horizon].N
}

// order sorts sector labels by value at the given horizon, descending.
// Missing values sort last; ties break on the label.
func (p *sectorPivot) order(horizon int, median bool) []string {
	order := append([]string(nil), p.labels...)
	sort.SliceStable(order, func(i, j int) bool {
		a := p.value(order[i], horizon, median)
		b := p.value(order[j], horizon, median)
		switch {
		case !domain.IsMissing(a) && !domain.IsMissing(b) && a != b:
			return a > b
		case domain.IsMissing(a) != domain.IsMissing(b):
			return !domain.IsMissing(a)
		default:
			return order[i] < order[j]
		}
	})
	return order
}

// groupScope filters group-scope cells and orders them treated first,
// then defensive, then anything else, horizons ascending within a
// group.
func groupScope(cells []domain.SectorSummary) []domain.SectorSummary {
	var out []domain.SectorSummary
	for _, c := range cells {
		if c.Scope == domain.ScopeGroup {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if a, b := groupRank(out[i].Label), groupRank(out[j].Label); a != b {
			return a < b
		}
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Horizon < out[j].Horizon
	})
	return out
}

func groupRank(label string) int {
	switch label {
	case string(config.GroupTreated):
		return 0
	case string(config.GroupDefensive):
		return 1
	default:
		return 2
	}
}
