package regress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

func TestClassifySector(t *testing.T) {
	tests := []struct {
		sector string
		want   exposure
	}{
		{sector: "Energy", want: exposure{treated: true, energy: true}},
		{sector: "Oil & Gas Refining", want: exposure{treated: true, energy: true}},
		{sector: "Metals", want: exposure{treated: true}},
		{sector: "Infrastructure", want: exposure{treated: true}},
		{sector: "Autos", want: exposure{treated: true}},
		{sector: "Consumer Cyclical", want: exposure{treated: true}},
		{sector: "Financial Services", want: exposure{treated: true, risk: true}},
		{sector: "Finance", want: exposure{}},
		{sector: "FMCG", want: exposure{}},
		{sector: "Pharma", want: exposure{}},
		{sector: "Utilities", want: exposure{}},
		{sector: "Telecom", want: exposure{}},
		{sector: "IT", want: exposure{fx: true}},
		{sector: "Information Technology", want: exposure{fx: true}},
		{sector: "Cement", want: exposure{}},
		{sector: "", want: exposure{}},
	}
	for _, tt := range tests {
		name := tt.sector
		if name == "" {
			name = "blank"
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifySector(tt.sector))
		})
	}
}

// macroFixture builds level series with three pre-event and post-event
// observations each, so two-day shock windows must drop the extremes.
func macroFixture() map[string]*marketdata.PriceSeries {
	mk := func(symbol string, pre, post []float64) *marketdata.PriceSeries {
		var bars []domain.PriceBar
		d := day(2021, 3, 15)
		for _, v := range pre {
			bars = append(bars, domain.PriceBar{Symbol: symbol, Date: d, Close: v})
			d = d.AddDate(0, 0, 1)
		}
		d = day(2021, 3, 23)
		for _, v := range post {
			bars = append(bars, domain.PriceBar{Symbol: symbol, Date: d, Close: v})
			d = d.AddDate(0, 0, 1)
		}
		return marketdata.NewPriceSeries(symbol, bars)
	}
	return map[string]*marketdata.PriceSeries{
		config.MacroBrent:  mk(config.MacroBrent, []float64{90, 100, 100}, []float64{110, 110, 130}),
		config.MacroVIX:    mk(config.MacroVIX, []float64{30, 20, 20}, []float64{25, 25, 40}),
		config.MacroUSDINR: mk(config.MacroUSDINR, []float64{70, 72, 74}, []float64{73, 73, 80}),
	}
}

func TestMacroShocks(t *testing.T) {
	e := testEstimator(t, defaultPanelConfig())

	shocks, err := e.MacroShocks(macroFixture(), eventDay)
	require.NoError(t, err)
	require.Len(t, shocks, 3)

	bySymbol := make(map[string]domain.MacroShock, len(shocks))
	for _, s := range shocks {
		bySymbol[s.Symbol] = s
	}

	brent := bySymbol[config.MacroBrent]
	assert.Equal(t, "brent", brent.Label)
	assert.InDelta(t, 100.0, brent.PreMean, 1e-12)
	assert.InDelta(t, 110.0, brent.PostMean, 1e-12)
	assert.InDelta(t, 0.10, brent.Shock, 1e-12)

	assert.Equal(t, "vix", bySymbol[config.MacroVIX].Label)
	assert.InDelta(t, 0.25, bySymbol[config.MacroVIX].Shock, 1e-12)

	assert.Equal(t, "inr", bySymbol[config.MacroUSDINR].Label)
	assert.InDelta(t, 0.0, bySymbol[config.MacroUSDINR].Shock, 1e-12)
}

func TestMacroShocksMissingSeries(t *testing.T) {
	e := testEstimator(t, defaultPanelConfig())
	macros := macroFixture()
	delete(macros, config.MacroVIX)

	_, err := e.MacroShocks(macros, eventDay)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
}

func TestMacroShocksEmptyPreWindow(t *testing.T) {
	e := testEstimator(t, defaultPanelConfig())

	_, err := e.MacroShocks(macroFixture(), day(2021, 3, 1))
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
}

func linkageShocks() []domain.MacroShock {
	return []domain.MacroShock{
		{Symbol: config.MacroBrent, Label: "brent", Shock: 0.10},
		{Symbol: config.MacroVIX, Label: "vix", Shock: 0.20},
		{Symbol: config.MacroUSDINR, Label: "inr", Shock: -0.05},
	}
}

func volRecord(ticker, sector string, delta float64) domain.VolatilityRecord {
	return domain.VolatilityRecord{
		Ticker:   ticker,
		Sector:   sector,
		DeltaVol: delta,
		Method:   domain.VolMethodGARCH,
	}
}

func TestLinkagesRecoversExactLoadings(t *testing.T) {
	// Volatility changes built as 0.01 - 0.02*Treated + 0.5*Energy*0.10
	// + 0.3*FX*(-0.05); the risk column is identically zero and must
	// come back with a zero coefficient.
	records := []domain.VolatilityRecord{
		volRecord("RELIANCE.NS", "Energy", 0.04),
		volRecord("ONGC.NS", "Energy", 0.04),
		volRecord("TATASTEEL.NS", "Metals", -0.01),
		volRecord("TCS.NS", "IT", -0.005),
		volRecord("HINDUNILVR.NS", "FMCG", 0.01),
		volRecord("ITC.NS", "FMCG", 0.01),
		volRecord("WIPRO.NS", "IT", domain.Missing()),
	}

	e := testEstimator(t, defaultPanelConfig())
	res, err := e.Linkages(records, linkageShocks())
	require.NoError(t, err)

	assert.Equal(t, NameLinkages, res.Name)
	assert.Equal(t, domain.CovTypeHC1, res.CovType)
	assert.Equal(t, 6, res.N)
	assert.Equal(t, 0, res.NClusters)

	wantCoef := map[string]float64{
		termConst:       0.01,
		termTreated:     -0.02,
		termEnergyBrent: 0.5,
		termRiskVIX:     0,
		termFXINR:       0.3,
	}
	require.Len(t, res.Terms, len(wantCoef))
	for _, term := range res.Terms {
		assert.InDelta(t, wantCoef[term.Term], term.Coef, 1e-9, term.Term)
		assert.InDelta(t, 0, term.StdErr, 1e-6, term.Term)
	}
}

func TestLinkagesRequiresEveryShock(t *testing.T) {
	e := testEstimator(t, defaultPanelConfig())
	shocks := linkageShocks()[:2]

	_, err := e.Linkages([]domain.VolatilityRecord{volRecord("TCS.NS", "IT", 0.01)}, shocks)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
}

func TestLinkagesNoUsableRecords(t *testing.T) {
	e := testEstimator(t, defaultPanelConfig())
	records := []domain.VolatilityRecord{
		volRecord("TCS.NS", "IT", domain.Missing()),
	}

	_, err := e.Linkages(records, linkageShocks())
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
}

func TestTailBeforeAndHeadFrom(t *testing.T) {
	series := macroFixture()[config.MacroBrent]
	cutoff := day(2021, 3, 23)

	assert.Equal(t, []float64{100, 100}, series.TailBefore(cutoff, 2))
	assert.Equal(t, []float64{90, 100, 100}, series.TailBefore(cutoff, 10))
	assert.Equal(t, []float64{110, 110}, series.HeadFrom(cutoff, 2))
	assert.Equal(t, []float64{110, 110, 130}, series.HeadFrom(cutoff, 10))
	assert.Empty(t, series.TailBefore(day(2021, 3, 15), 5))
	assert.Empty(t, series.HeadFrom(day(2021, 4, 1), 5))
}
