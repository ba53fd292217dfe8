package regress

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

var eventDay = time.Date(2021, 3, 23, 0, 0, 0, 0, time.UTC)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func panelUniverse() *config.Universe {
	return &config.Universe{
		Benchmark: "^NSEI",
		Sectors: map[string]string{
			"RELIANCE.NS":  "Energy",
			"ONGC.NS":      "Energy",
			"TATASTEEL.NS": "Metals",
			"TCS.NS":       "IT",
			"SUNPHARMA.NS": "Pharma",
		},
		TreatedSectors:   []string{"Energy", "Metals"},
		DefensiveSectors: []string{"IT", "Pharma"},
		HighExposure:     []string{"ONGC.NS", "SUNPHARMA.NS"},
	}
}

func testEstimator(t *testing.T, panel config.PanelConfig) *Estimator {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEstimator(panelUniverse(), panel, config.LinkagesConfig{PreDays: 2, PostDays: 2}, log)
}

func defaultPanelConfig() config.PanelConfig {
	return config.PanelConfig{
		DiDPreDays:  config.DefaultDiDPreDays,
		DiDPostDays: config.DefaultDiDPostDays,
		DDDPreDays:  config.DefaultDDDPreDays,
		DDDPostDays: config.DefaultDDDPostDays,
	}
}

func arRow(symbol string, date time.Time, ar float64) domain.AbnormalReturn {
	return domain.AbnormalReturn{Symbol: symbol, Date: date, AR: ar}
}

var panelDates = []time.Time{
	day(2021, 3, 18), day(2021, 3, 19), // pre
	day(2021, 3, 23), day(2021, 3, 24), // post
}

// didPanel builds a fully balanced panel: two treated and two
// defensive tickers over two pre and two post dates, with fixed ticker
// and date effects plus tau on treated post rows.
func didPanel(tau float64, noise func(ti, di int) float64) []domain.AbnormalReturn {
	tickers := []string{"RELIANCE.NS", "TATASTEEL.NS", "TCS.NS", "SUNPHARMA.NS"}
	gamma := []float64{0.004, -0.002, 0.001, 0}
	delta := []float64{0.001, -0.001, 0.002, 0}

	var panel []domain.AbnormalReturn
	for ti, tick := range tickers {
		for di, d := range panelDates {
			y := gamma[ti] + delta[di]
			if ti < 2 && di >= 2 {
				y += tau
			}
			if noise != nil {
				y += noise(ti, di)
			}
			panel = append(panel, arRow(tick, d, y))
		}
	}
	return panel
}

// dddPanel swaps TATASTEEL for ONGC so high exposure varies inside
// both groups, and layers hp on exposed post rows plus theta on
// treated exposed post rows.
func dddPanel(theta, hp float64) []domain.AbnormalReturn {
	tickers := []string{"RELIANCE.NS", "ONGC.NS", "TCS.NS", "SUNPHARMA.NS"}
	gamma := []float64{0.004, -0.002, 0.001, 0}
	delta := []float64{0.001, -0.001, 0.002, 0}
	exposed := map[string]bool{"ONGC.NS": true, "SUNPHARMA.NS": true}

	var panel []domain.AbnormalReturn
	for ti, tick := range tickers {
		for di, d := range panelDates {
			y := gamma[ti] + delta[di]
			if exposed[tick] && di >= 2 {
				y += hp
			}
			if ti < 2 && exposed[tick] && di >= 2 {
				y += theta
			}
			panel = append(panel, arRow(tick, d, y))
		}
	}
	return panel
}

func TestDiDRecoversExactInteraction(t *testing.T) {
	e := testEstimator(t, defaultPanelConfig())

	res, err := e.DiD(didPanel(-0.015, nil), eventDay)
	require.NoError(t, err)

	assert.Equal(t, NameDiD, res.Name)
	assert.Equal(t, KeyTermDiD, res.KeyTerm)
	assert.Equal(t, domain.CovTypeCluster, res.CovType)
	assert.Equal(t, 16, res.N)
	assert.Equal(t, 4, res.NClusters)

	key, ok := res.Term(KeyTermDiD)
	require.True(t, ok)
	assert.InDelta(t, -0.015, key.Coef, 1e-10)
}

func TestDiDMatchesCellMeansOnBalancedPanel(t *testing.T) {
	noise := func(ti, di int) float64 {
		return 0.0004*float64(ti+1)*float64(di+1) - 0.001*float64((ti*di)%3)
	}
	panel := didPanel(-0.01, noise)
	e := testEstimator(t, defaultPanelConfig())

	res, err := e.DiD(panel, eventDay)
	require.NoError(t, err)

	// On a balanced two-group panel the two-way FE interaction equals
	// the difference in differences of the four cell means.
	treated := map[string]bool{"RELIANCE.NS": true, "TATASTEEL.NS": true}
	sums := map[[2]bool]float64{}
	counts := map[[2]bool]int{}
	for _, ar := range panel {
		cell := [2]bool{treated[ar.Symbol], !ar.Date.Before(eventDay)}
		sums[cell] += ar.AR
		counts[cell]++
	}
	mean := func(tr, post bool) float64 {
		cell := [2]bool{tr, post}
		return sums[cell] / float64(counts[cell])
	}
	want := (mean(true, true) - mean(true, false)) - (mean(false, true) - mean(false, false))

	key, ok := res.Term(KeyTermDiD)
	require.True(t, ok)
	assert.InDelta(t, want, key.Coef, 1e-10)
	assert.Greater(t, key.StdErr, 0.0)
	assert.False(t, math.IsNaN(key.PValue))
	assert.Greater(t, key.PValue, 0.0)
	assert.LessOrEqual(t, key.PValue, 1.0)
}

func TestDiDPanelFiltering(t *testing.T) {
	panel := didPanel(-0.015, nil)
	panel = append(panel,
		arRow("RELIANCE.NS", day(2021, 3, 12), 0.9), // 11 days before: outside window
		arRow("TCS.NS", day(2021, 4, 13), -0.9),     // 21 days after: outside window
		arRow("FOO.NS", day(2021, 3, 23), 0.5),      // not in the universe
		arRow("TATASTEEL.NS", day(2021, 3, 24), domain.Missing()),
	)

	e := testEstimator(t, defaultPanelConfig())
	res, err := e.DiD(panel, eventDay)
	require.NoError(t, err)

	assert.Equal(t, 16, res.N)
	key, ok := res.Term(KeyTermDiD)
	require.True(t, ok)
	assert.InDelta(t, -0.015, key.Coef, 1e-10)
}

func TestDiDWindowBoundsInclusive(t *testing.T) {
	panel := didPanel(-0.015, nil)
	panel = append(panel,
		arRow("TCS.NS", day(2021, 3, 13), 0.001), // exactly 10 days before
		arRow("TCS.NS", day(2021, 4, 12), 0.002), // exactly 20 days after
	)

	e := testEstimator(t, defaultPanelConfig())
	res, err := e.DiD(panel, eventDay)
	require.NoError(t, err)
	assert.Equal(t, 18, res.N)
}

func TestDiDReportsFixedEffectTerms(t *testing.T) {
	e := testEstimator(t, defaultPanelConfig())
	res, err := e.DiD(didPanel(-0.015, nil), eventDay)
	require.NoError(t, err)

	// Intercept, three indicators, three ticker dummies, three date
	// dummies: the first level of each categorical is dropped.
	assert.Len(t, res.Terms, 10)
	_, ok := res.Term("ticker[TATASTEEL.NS]")
	assert.True(t, ok)
	_, ok = res.Term("date[2021-03-24]")
	assert.True(t, ok)
	_, ok = res.Term("ticker[RELIANCE.NS]")
	assert.False(t, ok, "first ticker level is the baseline")
	_, ok = res.Term("date[2021-03-18]")
	assert.False(t, ok, "first date level is the baseline")
}

func TestDiDInsufficientPanels(t *testing.T) {
	onlyTreated := []domain.AbnormalReturn{
		arRow("RELIANCE.NS", day(2021, 3, 18), 0.01),
		arRow("RELIANCE.NS", day(2021, 3, 23), 0.02),
		arRow("TATASTEEL.NS", day(2021, 3, 18), 0.01),
		arRow("TATASTEEL.NS", day(2021, 3, 23), 0.02),
	}
	onlyPre := []domain.AbnormalReturn{
		arRow("RELIANCE.NS", day(2021, 3, 18), 0.01),
		arRow("RELIANCE.NS", day(2021, 3, 19), 0.02),
		arRow("TCS.NS", day(2021, 3, 18), 0.01),
		arRow("TCS.NS", day(2021, 3, 19), 0.02),
	}

	tests := []struct {
		name  string
		panel []domain.AbnormalReturn
	}{
		{name: "empty panel", panel: nil},
		{name: "single group", panel: onlyTreated},
		{name: "no post rows", panel: onlyPre},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEstimator(t, defaultPanelConfig())
			_, err := e.DiD(tt.panel, eventDay)
			require.Error(t, err)
			assert.True(t, apperrors.IsInsufficientData(err))
		})
	}
}

func TestDDDRecoversExactTripleInteraction(t *testing.T) {
	e := testEstimator(t, defaultPanelConfig())

	res, err := e.DDD(dddPanel(-0.02, 0.003), eventDay)
	require.NoError(t, err)

	assert.Equal(t, NameDDD, res.Name)
	assert.Equal(t, KeyTermDDD, res.KeyTerm)
	assert.Equal(t, 16, res.N)
	assert.Equal(t, 4, res.NClusters)

	key, ok := res.Term(KeyTermDDD)
	require.True(t, ok)
	assert.InDelta(t, -0.02, key.Coef, 1e-9)

	hp, ok := res.Term("HighExposure:Post")
	require.True(t, ok)
	assert.InDelta(t, 0.003, hp.Coef, 1e-9)

	tp, ok := res.Term(KeyTermDiD)
	require.True(t, ok)
	assert.InDelta(t, 0, tp.Coef, 1e-9)
}

func TestDDDDonutExclusion(t *testing.T) {
	cfg := defaultPanelConfig()
	cfg.DonutStart = "2021-03-23"
	cfg.DonutEnd = "2021-03-23"
	e := testEstimator(t, cfg)

	res, err := e.DDD(dddPanel(-0.02, 0.003), eventDay)
	require.NoError(t, err)

	assert.Equal(t, 12, res.N)
	key, ok := res.Term(KeyTermDDD)
	require.True(t, ok)
	assert.InDelta(t, -0.02, key.Coef, 1e-9)
}

func TestDiDIgnoresDonut(t *testing.T) {
	cfg := defaultPanelConfig()
	cfg.DonutStart = "2021-03-18"
	cfg.DonutEnd = "2021-03-24"
	e := testEstimator(t, cfg)

	res, err := e.DiD(didPanel(-0.015, nil), eventDay)
	require.NoError(t, err)
	assert.Equal(t, 16, res.N)
}

func TestDDDInvalidDonutConfig(t *testing.T) {
	cfg := defaultPanelConfig()
	cfg.DonutStart = "03/23/2021"
	cfg.DonutEnd = "2021-03-26"
	e := testEstimator(t, cfg)

	_, err := e.DDD(dddPanel(-0.02, 0.003), eventDay)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}
