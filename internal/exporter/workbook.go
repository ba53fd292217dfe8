package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/regress"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

const (
	sheetSummary    = "Summary"
	sheetSector     = "Sector"
	sheetInference  = "Inference"
	sheetVolatility = "Volatility"
)

// WorkbookData collects everything one event run publishes to Excel.
// Empty slices simply leave their section out of the workbook.
type WorkbookData struct {
	Horizons    []int
	Summaries   []domain.TickerSummary
	Cells       []domain.SectorSummary
	Tests       []domain.TestResult
	VolRecords  []domain.VolatilityRecord
	VolSectors  []domain.VolatilitySectorStat
	VolGroups   []domain.VolatilityGroupStat
	VolContrast domain.TestResult
	Regressions []domain.RegressionResult
}

// WriteWorkbook writes the four-sheet study workbook for one event.
func (e *Exporter) WriteWorkbook(eventDate time.Time, data WorkbookData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return apperrors.NewStorageError("rename workbook sheet", err)
	}
	for _, sheet := range []string{sheetSector, sheetInference, sheetVolatility} {
		if _, err := f.NewSheet(sheet); err != nil {
			return apperrors.NewStorageError("add workbook sheet "+sheet, err)
		}
	}

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{sheetSummary, summarySheet(data)},
		{sheetSector, sectorSheet(data)},
		{sheetInference, inferenceSheet(data)},
		{sheetVolatility, volatilitySheet(data)},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.rows); err != nil {
			return err
		}
	}

	path := e.paths.WorkbookXLSX(stamp(eventDate))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create directory for %s", path), err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("save %s", path), err)
	}

	e.log.Info("workbook written", slog.String("path", path))
	return nil
}

// writeSheet writes rows top to bottom; a nil row leaves a blank
// spacer row between sections.
func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("address row %d of %s", i+1, sheet), err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("write row %d of %s", i+1, sheet), err)
		}
	}
	return nil
}

func summarySheet(data WorkbookData) [][]interface{} {
	header := []interface{}{"ticker", "alpha", "beta", "n_obs"}
	for _, k := range data.Horizons {
		header = append(header, domain.HorizonLabel(k))
	}
	rows := [][]interface{}{header}

	sorted := append([]domain.TickerSummary(nil), data.Summaries...)
	if len(data.Horizons) > 0 {
		domain.SortTickerSummaries(sorted, data.Horizons[len(data.Horizons)-1])
	}
	for _, s := range sorted {
		row := []interface{}{s.Ticker, cellValue(s.Alpha), cellValue(s.Beta), s.NObs}
		for _, k := range data.Horizons {
			row = append(row, cellValue(horizonCell(s, k)))
		}
		rows = append(rows, row)
	}
	return rows
}

func sectorSheet(data WorkbookData) [][]interface{} {
	pivot := pivotSectors(data.Cells)
	maxH := 0
	if len(data.Horizons) > 0 {
		maxH = data.Horizons[len(data.Horizons)-1]
	}

	header := []interface{}{"sector"}
	for _, k := range data.Horizons {
		header = append(header, domain.HorizonLabel(k))
	}
	header = append(header, "n")

	var rows [][]interface{}
	section := func(title string, median bool) {
		rows = append(rows, []interface{}{title}, header)
		for _, label := range pivot.order(maxH, median) {
			row := []interface{}{label}
			for _, k := range data.Horizons {
				row = append(row, cellValue(pivot.value(label, k, median)))
			}
			row = append(row, pivot.count(label, maxH))
			rows = append(rows, row)
		}
	}
	section("Mean CAR by sector", false)
	rows = append(rows, nil)
	section("Median CAR by sector", true)
	return rows
}

func inferenceSheet(data WorkbookData) [][]interface{} {
	var rows [][]interface{}

	if groups := groupScope(data.Cells); len(groups) > 0 {
		rows = append(rows, []interface{}{"Bootstrap intervals"},
			[]interface{}{"Group", "Metric", "Mean", "Low_CI", "High_CI", "N"})
		for _, c := range groups {
			rows = append(rows, []interface{}{c.Label, domain.HorizonLabel(c.Horizon),
				cellValue(c.Mean), cellValue(c.CILow), cellValue(c.CIHigh), c.N})
		}
		rows = append(rows, nil)
	}

	if len(data.Tests) > 0 {
		rows = append(rows, []interface{}{"Hypothesis tests"},
			[]interface{}{"label", "horizon", "kind", "statistic", "p_value", "df", "ci_low", "ci_high", "n", "n2", "significant"})
		for _, tr := range data.Tests {
			row := []interface{}{tr.Label, tr.Horizon, string(tr.Kind), cellValue(tr.Statistic),
				cellValue(tr.PValue), cellValue(tr.DF), cellValue(tr.CILow), cellValue(tr.CIHigh), tr.N}
			if tr.N2 > 0 {
				row = append(row, tr.N2)
			} else {
				row = append(row, "")
			}
			row = append(row, tr.Significant)
			rows = append(rows, row)
		}
		rows = append(rows, nil)
	}

	for _, res := range data.Regressions {
		meta := []interface{}{"observations", res.N}
		if res.NClusters > 0 {
			meta = append(meta, "clusters", res.NClusters)
		}
		rows = append(rows, []interface{}{regressionTitle(res.Name)}, meta,
			[]interface{}{"term", "coef", "std_err", "t_stat", "p_value"})
		for _, term := range res.Terms {
			rows = append(rows, []interface{}{term.Term, cellValue(term.Coef), cellValue(term.StdErr),
				cellValue(term.TStat), cellValue(term.PValue)})
		}
		rows = append(rows, nil)
	}
	return rows
}

func volatilitySheet(data WorkbookData) [][]interface{} {
	var rows [][]interface{}

	if len(data.VolRecords) > 0 {
		sorted := append([]domain.VolatilityRecord(nil), data.VolRecords...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ticker < sorted[j].Ticker })
		rows = append(rows, []interface{}{"Conditional volatility by ticker"},
			[]interface{}{"ticker", "sector", "group", "high_exposure", "pre_mean_sigma", "post_mean_sigma", "delta_sigma", "method"})
		for _, r := range sorted {
			rows = append(rows, []interface{}{r.Ticker, r.Sector, r.Group, r.HighExposure,
				cellValue(r.PreVol), cellValue(r.PostVol), cellValue(r.DeltaVol), string(r.Method)})
		}
		rows = append(rows, nil)
	}

	if len(data.VolSectors) > 0 {
		rows = append(rows, []interface{}{"Volatility change by sector"},
			[]interface{}{"sector", "mean_delta", "median_delta", "count"})
		for _, s := range data.VolSectors {
			rows = append(rows, []interface{}{s.Sector, cellValue(s.MeanDelta), cellValue(s.MedianDelta), s.Count})
		}
		rows = append(rows, nil)
	}

	if len(data.VolGroups) > 0 {
		rows = append(rows, []interface{}{"Volatility change by group"},
			[]interface{}{"group", "mean_delta", "std_delta", "low_ci", "high_ci", "count", "t_stat", "p_value"})
		for _, g := range data.VolGroups {
			rows = append(rows, []interface{}{g.Group, cellValue(g.MeanDelta), cellValue(g.StdDelta),
				cellValue(g.CILow), cellValue(g.CIHigh), g.Count, "", ""})
		}
		if c := data.VolContrast; c.Label != "" {
			rows = append(rows, []interface{}{c.Label, "", "", cellValue(c.CILow), cellValue(c.CIHigh), "",
				cellValue(c.Statistic), cellValue(c.PValue)})
		}
	}
	return rows
}

// regressionTitle maps a regression's short name to its section title.
func regressionTitle(name string) string {
	switch name {
	case regress.NameDiD:
		return "Difference-in-differences"
	case regress.NameDDD:
		return "Triple difference"
	case regress.NameLinkages:
		return "Global macro linkages"
	}
	return name
}
