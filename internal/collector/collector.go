package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// Fetcher is the price source a collection run drains. *Client
// satisfies it; tests substitute canned fakes.
type Fetcher interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error)
}

// Collector downloads the study universe and writes the raw data
// layout the loader reads back: one Yahoo-format CSV per symbol, the
// wide merged close matrix, and the ticker metadata table.
type Collector struct {
	fetcher Fetcher
	uni     *config.Universe
	cfg     config.FetchConfig
	paths   *config.Paths
	log     *slog.Logger
}

// New wires a collector. A nil logger falls back to slog.Default.
func New(fetcher Fetcher, uni *config.Universe, cfg config.FetchConfig, paths *config.Paths, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	return &Collector{fetcher: fetcher, uni: uni, cfg: cfg, paths: paths, log: log}
}

// Result reports one collection run.
type Result struct {
	// Bars holds the fetched history per symbol.
	Bars map[string][]domain.PriceBar
	// Failed maps symbols that produced no data to their fetch error.
	Failed map[string]error
}

// Run fetches every universe symbol inside the configured window and
// writes the raw data files. Per-symbol failures land in Result.Failed
// instead of aborting the run; Run itself fails only on an invalid
// window, a cancelled context, a write error, or when no symbol at all
// produced data.
func (c *Collector) Run(ctx context.Context) (*Result, error) {
	start, end, err := c.cfg.Window()
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid fetch window", err)
	}

	symbols := c.uni.AllSymbols()
	c.log.Info("collecting price history",
		slog.Int("symbols", len(symbols)),
		slog.String("start", c.cfg.Start),
		slog.String("end", c.cfg.End),
		slog.Int("concurrency", c.cfg.Concurrency))

	res := &Result{
		Bars:   make(map[string][]domain.PriceBar, len(symbols)),
		Failed: make(map[string]error),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for _, symbol := range symbols {
		g.Go(func() error {
			bars, err := c.fetcher.DailyBars(gctx, symbol, start, end)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.Warn("symbol fetch failed",
					slog.String("symbol", symbol),
					slog.String("error", err.Error()))
				mu.Lock()
				res.Failed[symbol] = apperrors.NewFetchError(symbol, err)
				mu.Unlock()
				return nil
			}
			c.log.Debug("symbol fetched",
				slog.String("symbol", symbol),
				slog.Int("bars", len(bars)))
			mu.Lock()
			res.Bars[symbol] = bars
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(res.Bars) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeFetch,
			"no symbol produced any price data", nil)
	}
	if _, ok := res.Bars[c.uni.Benchmark]; !ok {
		c.log.Warn("benchmark fetch failed; downstream loads cannot build a calendar",
			slog.String("benchmark", c.uni.Benchmark))
	}

	if err := c.writeRawData(res.Bars); err != nil {
		return nil, err
	}

	c.log.Info("collection complete",
		slog.Int("fetched", len(res.Bars)),
		slog.Int("failed", len(res.Failed)))
	return res, nil
}
