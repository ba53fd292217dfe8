package eventstudy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// Study runs one event specification over a loaded dataset. The core
// is synchronous and pure; per-ticker failures are collected, never
// raised.
type Study struct {
	data *marketdata.Dataset
	log  *slog.Logger
}

// New wires a study against a dataset.
func New(data *marketdata.Dataset, log *slog.Logger) *Study {
	if log == nil {
		log = slog.Default()
	}
	return &Study{data: data, log: log}
}

// Result is the complete output of one event run.
type Result struct {
	Spec        *EventSpec
	EventIndex  int
	AlignedDate time.Time
	Models      []domain.MarketModel
	Summaries   []domain.TickerSummary
	Panel       []domain.AbnormalReturn
	CARs        []domain.CARRecord
	Failures    map[string]error
}

// Run anchors the spec on the dataset's calendar and processes every
// universe equity in ticker order. Configuration problems abort
// immediately; everything else degrades to per-ticker exclusions in
// Failures.
func (s *Study) Run(ctx context.Context, spec *EventSpec) (*Result, error) {
	anchored, err := spec.Anchor(s.data.Calendar)
	if err != nil {
		return nil, err
	}

	s.log.Info("event anchored",
		slog.String("event", spec.Label),
		slog.String("requested_date", spec.EventDate.Format("2006-01-02")),
		slog.String("aligned_date", anchored.AlignedDate.Format("2006-01-02")),
		slog.String("estimation", fmt.Sprintf("[%+d, %+d]", spec.EstFrom, spec.EstTo)),
		slog.String("event_window", fmt.Sprintf("[%+d, %+d]", spec.EvtFrom, spec.EvtTo)))

	res := &Result{
		Spec:        spec,
		EventIndex:  anchored.EventIndex,
		AlignedDate: anchored.AlignedDate,
		Failures:    make(map[string]error),
	}

	for _, sym := range s.data.Missing {
		res.Failures[sym] = apperrors.NewAppError(apperrors.ErrTypeDataGap,
			fmt.Sprintf("%s has no price data", sym), nil).WithContext("symbol", sym)
	}

	symbols := make([]string, 0, len(s.data.Equities))
	for sym := range s.data.Equities {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr, err := RunTicker(sym, s.data.Equities[sym], s.data.Benchmark, anchored)
		if err != nil {
			res.Failures[sym] = err
			s.log.Warn("ticker excluded",
				slog.String("event", spec.Label),
				slog.String("symbol", sym),
				slog.String("error", err.Error()))
			continue
		}
		res.Models = append(res.Models, tr.Model)
		res.Summaries = append(res.Summaries, tr.Summary)
		res.Panel = append(res.Panel, tr.Panel...)
		res.CARs = append(res.CARs, tr.CARs...)
	}

	domain.SortTickerSummaries(res.Summaries, spec.MaxHorizon())
	sort.Slice(res.Panel, func(i, j int) bool {
		if !res.Panel[i].Date.Equal(res.Panel[j].Date) {
			return res.Panel[i].Date.Before(res.Panel[j].Date)
		}
		return res.Panel[i].Symbol < res.Panel[j].Symbol
	})

	s.log.Info("event study complete",
		slog.String("event", spec.Label),
		slog.Int("included", len(res.Summaries)),
		slog.Int("excluded", len(res.Failures)))

	return res, nil
}

// CARsAt filters the run's CAR records to one horizon, in summary
// (sorted) order.
func (r *Result) CARsAt(horizon int) []domain.CARRecord {
	bySymbol := make(map[string]domain.CARRecord, len(r.CARs))
	for _, c := range r.CARs {
		if c.Horizon == horizon {
			bySymbol[c.Symbol] = c
		}
	}
	out := make([]domain.CARRecord, 0, len(bySymbol))
	for _, s := range r.Summaries {
		if c, ok := bySymbol[s.Ticker]; ok {
			out = append(out, c)
		}
	}
	return out
}
