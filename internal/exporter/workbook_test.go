package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/regress"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

func workbookFixture() WorkbookData {
	return WorkbookData{
		Horizons: []int{5, 10},
		Summaries: []domain.TickerSummary{
			{Ticker: "AAA.NS", Alpha: 0.001, Beta: 1.25, NObs: 120, CARs: map[int]float64{5: 0.01, 10: 0.02}},
			{Ticker: "BBB.NS", Alpha: -0.002, Beta: 0.75, NObs: 118, CARs: map[int]float64{5: 0.03, 10: 0.05}},
		},
		Cells: []domain.SectorSummary{
			{Scope: domain.ScopeSector, Label: "Energy", Horizon: 5, Mean: -0.02, Median: -0.018, N: 3},
			{Scope: domain.ScopeSector, Label: "Energy", Horizon: 10, Mean: -0.04, Median: -0.035, N: 3},
			{Scope: domain.ScopeGroup, Label: "Treated", Horizon: 10, Mean: -0.03, CILow: -0.05, CIHigh: -0.01, N: 5},
		},
		Tests: []domain.TestResult{
			{Label: "Treated", Horizon: 10, Kind: domain.TestKindOneSample,
				Statistic: -2.5, PValue: 0.025, DF: 9, CILow: -0.06, CIHigh: -0.004, N: 10, Significant: true},
		},
		VolRecords: []domain.VolatilityRecord{
			{Ticker: "AAA.NS", Sector: "Energy", Group: "Treated", HighExposure: true,
				PreVol: 0.015, PostVol: 0.025, DeltaVol: 0.01, Method: domain.VolMethodGARCH},
		},
		VolSectors: []domain.VolatilitySectorStat{
			{Sector: "Energy", MeanDelta: 0.01, MedianDelta: 0.01, Count: 1},
		},
		VolGroups: []domain.VolatilityGroupStat{
			{Group: "Treated", MeanDelta: 0.01, StdDelta: 0.004, CILow: 0.002, CIHigh: 0.018, Count: 1},
		},
		VolContrast: domain.TestResult{Label: "treated_vs_defensive_dvol", Kind: domain.TestKindWelch,
			Statistic: 2.25, PValue: 0.08, CILow: -0.002, CIHigh: 0.018, N: 1, N2: 1},
		Regressions: []domain.RegressionResult{
			{Name: regress.NameDiD, KeyTerm: "TreatedFlag:Post", CovType: domain.CovTypeCluster, N: 16, NClusters: 4,
				Terms: []domain.RegressionTerm{
					{Term: "TreatedFlag:Post", Coef: -0.015, StdErr: 0.003, TStat: -5, PValue: 0.001},
				}},
		},
	}
}

// findRow locates the first row whose leading cell matches.
func findRow(rows [][]string, first string) int {
	for i, row := range rows {
		if len(row) > 0 && row[0] == first {
			return i
		}
	}
	return -1
}

func TestWriteWorkbookSheets(t *testing.T) {
	paths := testPaths(t)
	ex := New(paths, testLogger())

	require.NoError(t, ex.WriteWorkbook(eventDay, workbookFixture()))

	f, err := excelize.OpenFile(paths.WorkbookXLSX("2021-03-23"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Sector", "Inference", "Volatility"}, f.GetSheetList())
}

func TestWriteWorkbookSummarySheet(t *testing.T) {
	paths := testPaths(t)
	ex := New(paths, testLogger())
	require.NoError(t, ex.WriteWorkbook(eventDay, workbookFixture()))

	f, err := excelize.OpenFile(paths.WorkbookXLSX("2021-03-23"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, []string{"ticker", "alpha", "beta", "n_obs", "CAR_5d", "CAR_10d"}, rows[0])
	// ordered by CAR_10d descending, same as the CSV
	assert.Equal(t, []string{"BBB.NS", "-0.002", "0.75", "118", "0.03", "0.05"}, rows[1])
	assert.Equal(t, []string{"AAA.NS", "0.001", "1.25", "120", "0.01", "0.02"}, rows[2])
}

func TestWriteWorkbookSectionTitles(t *testing.T) {
	paths := testPaths(t)
	ex := New(paths, testLogger())
	require.NoError(t, ex.WriteWorkbook(eventDay, workbookFixture()))

	f, err := excelize.OpenFile(paths.WorkbookXLSX("2021-03-23"))
	require.NoError(t, err)
	defer f.Close()

	sector, err := f.GetRows("Sector")
	require.NoError(t, err)
	assert.Equal(t, 0, findRow(sector, "Mean CAR by sector"))
	assert.GreaterOrEqual(t, findRow(sector, "Median CAR by sector"), 2)

	inference, err := f.GetRows("Inference")
	require.NoError(t, err)
	assert.NotEqual(t, -1, findRow(inference, "Bootstrap intervals"))
	assert.NotEqual(t, -1, findRow(inference, "Hypothesis tests"))

	didAt := findRow(inference, "Difference-in-differences")
	require.NotEqual(t, -1, didAt)
	assert.Equal(t, []string{"observations", "16", "clusters", "4"}, inference[didAt+1])
	assert.Equal(t, []string{"term", "coef", "std_err", "t_stat", "p_value"}, inference[didAt+2])
	assert.Equal(t, []string{"TreatedFlag:Post", "-0.015", "0.003", "-5", "0.001"}, inference[didAt+3])

	vol, err := f.GetRows("Volatility")
	require.NoError(t, err)
	assert.NotEqual(t, -1, findRow(vol, "Conditional volatility by ticker"))
	assert.NotEqual(t, -1, findRow(vol, "Volatility change by sector"))
	contrastAt := findRow(vol, "treated_vs_defensive_dvol")
	require.NotEqual(t, -1, contrastAt)
}

func TestWriteWorkbookHighExposureCell(t *testing.T) {
	paths := testPaths(t)
	ex := New(paths, testLogger())
	require.NoError(t, ex.WriteWorkbook(eventDay, workbookFixture()))

	f, err := excelize.OpenFile(paths.WorkbookXLSX("2021-03-23"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Volatility")
	require.NoError(t, err)
	at := findRow(rows, "AAA.NS")
	require.NotEqual(t, -1, at)
	require.GreaterOrEqual(t, len(rows[at]), 4)
	assert.Equal(t, "TRUE", rows[at][3])
}

func TestWriteWorkbookEmptyData(t *testing.T) {
	paths := testPaths(t)
	ex := New(paths, testLogger())

	require.NoError(t, ex.WriteWorkbook(eventDay, WorkbookData{Horizons: []int{5, 10}}))

	f, err := excelize.OpenFile(paths.WorkbookXLSX("2021-03-23"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, rows, 1, "empty run leaves only the header row")
	assert.Equal(t, []string{"ticker", "alpha", "beta", "n_obs", "CAR_5d", "CAR_10d"}, rows[0])
}
