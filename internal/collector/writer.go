package collector

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// symbolHeader is the Yahoo export layout the loader locates by name.
var symbolHeader = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// writeRawData persists one run: per-symbol files, the merged wide
// matrix, and the ticker metadata table.
func (c *Collector) writeRawData(bars map[string][]domain.PriceBar) error {
	for symbol, history := range bars {
		path := c.paths.RawDataPath(marketdata.SymbolFileName(symbol))
		if err := writeSymbolCSV(path, history); err != nil {
			return err
		}
	}
	if err := c.writeMergedCSV(bars); err != nil {
		return err
	}
	return c.writeTickerSectors(bars)
}

// writeSymbolCSV writes one symbol's history in the Yahoo export
// layout. Zero price fields become empty cells so absent values
// survive the round trip as absent.
func writeSymbolCSV(path string, bars []domain.PriceBar) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create %s", path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(symbolHeader); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("write %s", path), err)
	}
	for _, b := range bars {
		volume := ""
		if b.Volume > 0 {
			volume = strconv.FormatInt(b.Volume, 10)
		}
		row := []string{
			b.Date.Format(config.DateLayout),
			priceCell(b.Open),
			priceCell(b.High),
			priceCell(b.Low),
			priceCell(b.Close),
			priceCell(b.AdjClose),
			volume,
		}
		if err := w.Write(row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("write %s", path), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("flush %s", path), err)
	}
	return nil
}

// writeMergedCSV writes the wide close matrix: one row per date in the
// union of all fetched histories, one effective-close column per
// symbol in fetch order. Dates a symbol did not trade stay empty;
// nothing is carried forward.
func (c *Collector) writeMergedCSV(bars map[string][]domain.PriceBar) error {
	var symbols []string
	for _, symbol := range c.uni.AllSymbols() {
		if _, ok := bars[symbol]; ok {
			symbols = append(symbols, symbol)
		}
	}

	closes := make(map[string]map[time.Time]float64, len(symbols))
	dateSet := make(map[time.Time]bool)
	for _, symbol := range symbols {
		col := make(map[time.Time]float64, len(bars[symbol]))
		for _, b := range bars[symbol] {
			col[b.Date] = b.EffectiveClose()
			dateSet[b.Date] = true
		}
		closes[symbol] = col
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	path := c.paths.MergedDailyCSV()
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create %s", path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"Date"}, symbols...)); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("write %s", path), err)
	}
	for _, d := range dates {
		row := make([]string, 0, len(symbols)+1)
		row = append(row, d.Format(config.DateLayout))
		for _, symbol := range symbols {
			row = append(row, priceCell(closes[symbol][d]))
		}
		if err := w.Write(row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("write %s", path), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("flush %s", path), err)
	}
	return nil
}

// writeTickerSectors writes the metadata table for the equities that
// produced data: ticker, curated sector, industry (blank, the curated
// universe does not carry one), and exposure group.
func (c *Collector) writeTickerSectors(bars map[string][]domain.PriceBar) error {
	path := c.paths.TickerSectorsCSV()
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create %s", path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ticker", "sector", "industry", "group"}); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("write %s", path), err)
	}
	for _, symbol := range c.uni.EquitySymbols() {
		if _, ok := bars[symbol]; !ok {
			continue
		}
		sector, _ := c.uni.SectorOf(symbol)
		row := []string{symbol, sector, "", string(c.uni.GroupOf(symbol))}
		if err := w.Write(row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("write %s", path), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("flush %s", path), err)
	}
	return nil
}

// priceCell renders a price cell, with zero meaning absent.
func priceCell(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
