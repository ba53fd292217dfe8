package inference

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// cellKey addresses one aggregation cell: a sector or treatment group
// at one horizon.
type cellKey struct {
	Scope   domain.AggregationScope
	Label   string
	Horizon int
}

type tickerCAR struct {
	Symbol string
	CAR    float64
}

// groupCells buckets CAR records by sector and, separately, by
// treatment group. Tickers without a sector mapping land in the Other
// bucket on both scopes and are reported in unmapped. Cell members are
// sorted by ticker so downstream statistics never depend on input
// order.
func groupCells(uni *config.Universe, cars []domain.CARRecord) (cells map[cellKey][]tickerCAR, eventDate time.Time, unmapped []string) {
	cells = make(map[cellKey][]tickerCAR)
	seen := make(map[string]bool)

	for _, c := range cars {
		if eventDate.IsZero() {
			eventDate = c.EventDate
		}
		sector, ok := uni.SectorOf(c.Symbol)
		group := uni.GroupOfSector(sector)
		if !ok {
			sector = string(config.GroupOther)
			if !seen[c.Symbol] {
				seen[c.Symbol] = true
				unmapped = append(unmapped, c.Symbol)
			}
		}
		member := tickerCAR{Symbol: c.Symbol, CAR: c.CAR}
		sectorKey := cellKey{Scope: domain.ScopeSector, Label: sector, Horizon: c.Horizon}
		groupKey := cellKey{Scope: domain.ScopeGroup, Label: string(group), Horizon: c.Horizon}
		cells[sectorKey] = append(cells[sectorKey], member)
		cells[groupKey] = append(cells[groupKey], member)
	}

	for _, members := range cells {
		sort.Slice(members, func(i, j int) bool { return members[i].Symbol < members[j].Symbol })
	}
	sort.Strings(unmapped)
	return cells, eventDate, unmapped
}

func carValues(members []tickerCAR) []float64 {
	vals := make([]float64, len(members))
	for i, m := range members {
		vals[i] = m.CAR
	}
	return vals
}

func cellHorizons(cells map[cellKey][]tickerCAR) []int {
	seen := make(map[int]bool)
	for key := range cells {
		seen[key.Horizon] = true
	}
	horizons := make([]int, 0, len(seen))
	for h := range seen {
		horizons = append(horizons, h)
	}
	sort.Ints(horizons)
	return horizons
}

// Aggregator folds per-ticker CARs into sector- and group-level
// summary cells with seeded bootstrap intervals.
type Aggregator struct {
	uni *config.Universe
	cfg config.InferenceConfig
	log *slog.Logger
}

// NewAggregator wires an aggregator against a universe's sector and
// group assignments.
func NewAggregator(uni *config.Universe, cfg config.InferenceConfig, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{uni: uni, cfg: cfg, log: log}
}

// Aggregate computes mean, median, N, and a bootstrap interval for
// every (sector, horizon) and (group, horizon) cell. N counts the
// cell's tickers including those whose CAR is missing; the statistics
// use only the present values. Rows come back sector scope first, then
// horizon ascending, then mean CAR descending with missing means last.
func (a *Aggregator) Aggregate(cars []domain.CARRecord) []domain.SectorSummary {
	cells, eventDate, unmapped := groupCells(a.uni, cars)
	for _, symbol := range unmapped {
		a.log.Warn("ticker has no sector mapping, grouped as Other",
			slog.String("symbol", symbol))
	}

	out := make([]domain.SectorSummary, 0, len(cells))
	for key, members := range cells {
		vals := carValues(members)
		ci := Bootstrap(vals, a.cfg.Resamples, a.cfg.Confidence, a.cfg.Seed)
		out = append(out, domain.SectorSummary{
			Scope:     key.Scope,
			Label:     key.Label,
			EventDate: eventDate,
			Horizon:   key.Horizon,
			Mean:      ci.Mean,
			Median:    Median(vals),
			CILow:     ci.Lower,
			CIHigh:    ci.Upper,
			N:         len(vals),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		x, y := out[i], out[j]
		if x.Scope != y.Scope {
			return scopeRank(x.Scope) < scopeRank(y.Scope)
		}
		if x.Horizon != y.Horizon {
			return x.Horizon < y.Horizon
		}
		xMiss, yMiss := domain.IsMissing(x.Mean), domain.IsMissing(y.Mean)
		switch {
		case xMiss && yMiss:
			return x.Label < y.Label
		case xMiss:
			return false
		case yMiss:
			return true
		case x.Mean != y.Mean:
			return x.Mean > y.Mean
		}
		return x.Label < y.Label
	})
	return out
}

func scopeRank(s domain.AggregationScope) int {
	if s == domain.ScopeSector {
		return 0
	}
	return 1
}
