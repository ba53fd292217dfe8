package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// dateLayouts are tried in order when parsing CSV date cells. Yahoo
// exports use the first; spreadsheet round-trips produce the rest.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006",
	"2006/01/02",
	"01/02/2006",
}

// SymbolFileName maps a symbol to its per-symbol CSV file name,
// replacing characters that do not survive on all filesystems
// ("^NSEI" becomes prices_NSEI.csv, "BZ=F" becomes prices_BZ_F.csv).
func SymbolFileName(symbol string) string {
	r := strings.NewReplacer("^", "", "=", "_", "/", "_", "\\", "_", " ", "_")
	return fmt.Sprintf(config.PatternSymbolCSV, r.Replace(symbol))
}

// Loader reads price CSVs into aligned series. It accepts both the
// wide merged layout (one date column, one close column per symbol)
// and per-symbol Yahoo-layout files; per-symbol files win when both
// carry the same symbol.
type Loader struct {
	paths *config.Paths
	log   *slog.Logger
}

// NewLoader wires a loader against resolved paths.
func NewLoader(paths *config.Paths, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{paths: paths, log: log}
}

// Dataset is everything one study run reads: the benchmark calendar
// and returns, per-ticker equity returns, macro price levels, and the
// symbols that produced no data at all.
type Dataset struct {
	Universe  *config.Universe
	Calendar  *TradingCalendar
	Benchmark *ReturnSeries
	Equities  map[string]*ReturnSeries
	Macros    map[string]*PriceSeries
	Missing   []string
}

// LoadDataset loads every universe symbol from the raw data
// directory. Equity symbols without any usable file are collected in
// Missing and reported by the caller; a missing or empty benchmark is
// fatal because no calendar can be built without it.
func (l *Loader) LoadDataset(ctx context.Context, uni *config.Universe) (*Dataset, error) {
	prices := make(map[string]*PriceSeries)

	merged := l.paths.MergedDailyCSV()
	if config.FileExists(merged) {
		wide, err := l.LoadWideCSV(merged)
		if err != nil {
			return nil, err
		}
		for sym, ps := range wide {
			prices[sym] = ps
		}
		l.log.Debug("loaded merged price file",
			slog.String("path", merged),
			slog.Int("symbols", len(wide)))
	}

	for _, sym := range uni.AllSymbols() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := l.paths.RawDataPath(SymbolFileName(sym))
		if !config.FileExists(path) {
			continue
		}
		ps, err := l.LoadSymbolCSV(path, sym)
		if err != nil {
			l.log.Warn("skipping unreadable price file",
				slog.String("symbol", sym),
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		prices[sym] = ps
	}

	bench, ok := prices[uni.Benchmark]
	if !ok || bench.Len() == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeDataGap,
			fmt.Sprintf("benchmark %s has no usable price data", uni.Benchmark), nil)
	}

	cal, err := NewTradingCalendar(bench.Dates())
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Universe:  uni,
		Calendar:  cal,
		Benchmark: ComputeReturns(bench, cal),
		Equities:  make(map[string]*ReturnSeries),
		Macros:    make(map[string]*PriceSeries),
	}

	for _, sym := range uni.EquitySymbols() {
		ps, ok := prices[sym]
		if !ok || ps.Len() == 0 {
			ds.Missing = append(ds.Missing, sym)
			continue
		}
		ds.Equities[sym] = ComputeReturns(ps, cal)
	}
	sort.Strings(ds.Missing)

	for _, sym := range uni.Macros {
		ps, ok := prices[sym]
		if !ok || ps.Len() == 0 {
			l.log.Warn("macro series missing", slog.String("symbol", sym))
			continue
		}
		ds.Macros[sym] = ps
	}

	first, last := cal.Bounds()
	l.log.Info("dataset loaded",
		slog.String("benchmark", uni.Benchmark),
		slog.Int("trading_days", cal.Len()),
		slog.String("first_date", first.Format("2006-01-02")),
		slog.String("last_date", last.Format("2006-01-02")),
		slog.Int("equities", len(ds.Equities)),
		slog.Int("macros", len(ds.Macros)),
		slog.Int("missing", len(ds.Missing)))

	return ds, nil
}

// LoadSymbolCSV parses one per-symbol price file. Columns are located
// by header name, so Yahoo exports, the collector's output, and
// hand-trimmed files all load the same way. Rows without a parseable
// date or a positive close are skipped, never imputed.
func (l *Loader) LoadSymbolCSV(path, symbol string) (*PriceSeries, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	headerRow, cols := locateHeader(rows)
	if headerRow < 0 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("%s: no header row with a date column", path), nil)
	}
	if _, ok := cols["close"]; !ok {
		if _, ok := cols["adj_close"]; !ok {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("%s: no close or adjusted close column", path), nil)
		}
	}

	cell := func(row []string, name string) (string, bool) {
		j, ok := cols[name]
		if !ok || j >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[j]), true
	}

	var bars []domain.PriceBar
	var badDates, gaps int
	for _, row := range rows[headerRow+1:] {
		raw, _ := cell(row, "date")
		date, ok := parseDate(raw)
		if !ok {
			badDates++
			continue
		}

		bar := domain.PriceBar{Symbol: symbol, Date: date}
		if s, ok := cell(row, "close"); ok {
			bar.Close, _ = parseFloat(s)
		}
		if s, ok := cell(row, "adj_close"); ok {
			bar.AdjClose, _ = parseFloat(s)
		}
		if bar.EffectiveClose() <= 0 {
			gaps++
			continue
		}
		if s, ok := cell(row, "open"); ok {
			bar.Open, _ = parseFloat(s)
		}
		if s, ok := cell(row, "high"); ok {
			bar.High, _ = parseFloat(s)
		}
		if s, ok := cell(row, "low"); ok {
			bar.Low, _ = parseFloat(s)
		}
		if s, ok := cell(row, "volume"); ok {
			if v, okf := parseFloat(s); okf {
				bar.Volume = int64(v)
			}
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("%s: no usable price rows", path), nil)
	}
	if badDates > 0 || gaps > 0 {
		l.log.Debug("skipped unusable price rows",
			slog.String("symbol", symbol),
			slog.Int("bad_dates", badDates),
			slog.Int("null_closes", gaps))
	}
	return NewPriceSeries(symbol, bars), nil
}

// LoadWideCSV parses the merged layout: a date column followed by one
// adjusted-close column per symbol. Empty cells are gaps.
func (l *Loader) LoadWideCSV(path string) (map[string]*PriceSeries, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("%s: no data rows", path), nil)
	}

	header := rows[0]
	if len(header) < 2 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("%s: merged layout needs a date column and at least one symbol", path), nil)
	}
	first := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff")))
	if first != "" && first != "date" && first != "datetime" {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("%s: first column %q is not a date column", path, header[0]), nil)
	}

	symbols := make([]string, len(header))
	for j := 1; j < len(header); j++ {
		symbols[j] = strings.TrimSpace(header[j])
	}

	bars := make(map[string][]domain.PriceBar)
	var badDates int
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		date, ok := parseDate(strings.TrimSpace(row[0]))
		if !ok {
			badDates++
			continue
		}
		for j := 1; j < len(row) && j < len(header); j++ {
			sym := symbols[j]
			if sym == "" {
				continue
			}
			v, ok := parseFloat(strings.TrimSpace(row[j]))
			if !ok || v <= 0 {
				continue
			}
			bars[sym] = append(bars[sym], domain.PriceBar{
				Symbol:   sym,
				Date:     date,
				Close:    v,
				AdjClose: v,
			})
		}
	}
	if badDates > 0 {
		l.log.Debug("skipped rows with unparseable dates",
			slog.String("path", path), slog.Int("rows", badDates))
	}

	out := make(map[string]*PriceSeries, len(bars))
	for sym, bs := range bars {
		out[sym] = NewPriceSeries(sym, bs)
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("read %s", path), err)
	}
	return rows, nil
}

// locateHeader finds the first row containing a date column and maps
// the price columns by name. "Adj Close", "adj_close", and "adjclose"
// all land on the same key, so the match order matters: adjusted
// variants are claimed before the plain close.
func locateHeader(rows [][]string) (int, map[string]int) {
	for i, row := range rows {
		cols := make(map[string]int)
		for j, h := range row {
			hl := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
			hl = strings.ReplaceAll(hl, "_", " ")
			switch {
			case hl == "date" || hl == "datetime":
				cols["date"] = j
			case strings.Contains(hl, "adj") && strings.Contains(hl, "close"):
				cols["adj_close"] = j
			case hl == "close" || hl == "close price" || hl == "closing price":
				cols["close"] = j
			case hl == "open":
				cols["open"] = j
			case hl == "high":
				cols["high"] = j
			case hl == "low":
				cols["low"] = j
			case hl == "volume":
				cols["volume"] = j
			}
		}
		if _, ok := cols["date"]; ok {
			return i, cols
		}
	}
	return -1, nil
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Normalize(t), true
		}
	}
	return time.Time{}, false
}

// parseFloat reads a numeric cell. Empty cells and Yahoo's literal
// "null" read as absent rather than zero.
func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	switch strings.ToLower(s) {
	case "null", "nan", "na", "none":
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
