package regress

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// Coefficient names of the global linkages cross-section.
const (
	termConst       = "const"
	termTreated     = "Treated"
	termEnergyBrent = "EnergyExp_x_dBrent"
	termRiskVIX     = "RiskExp_x_dVIX"
	termFXINR       = "FXExp_x_dINR"
)

// shockSeries maps the macro symbols entering the linkages design to
// their shock labels.
var shockSeries = []struct {
	symbol string
	label  string
}{
	{config.MacroBrent, "brent"},
	{config.MacroVIX, "vix"},
	{config.MacroUSDINR, "inr"},
}

// MacroShocks measures the event shock of each linkage macro series:
// the relative change from the mean level over the last PreDays
// trading days strictly before the event to the mean level over the
// first PostDays trading days on or after it. Each series is windowed
// on its own trading dates.
func (e *Estimator) MacroShocks(macros map[string]*marketdata.PriceSeries, event time.Time) ([]domain.MacroShock, error) {
	ev := marketdata.Normalize(event)
	shocks := make([]domain.MacroShock, 0, len(shockSeries))
	for _, ms := range shockSeries {
		series, ok := macros[ms.symbol]
		if !ok || series.Len() == 0 {
			return nil, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
				fmt.Sprintf("macro series %s is not loaded", ms.symbol), nil)
		}
		pre := series.TailBefore(ev, e.links.PreDays)
		post := series.HeadFrom(ev, e.links.PostDays)
		if len(pre) == 0 || len(post) == 0 {
			return nil, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
				fmt.Sprintf("macro series %s has no levels on one side of %s",
					ms.symbol, ev.Format(config.DateLayout)), nil)
		}
		preMean := stat.Mean(pre, nil)
		postMean := stat.Mean(post, nil)
		shock := domain.MacroShock{
			Symbol:   ms.symbol,
			Label:    ms.label,
			PreMean:  preMean,
			PostMean: postMean,
			Shock:    (postMean - preMean) / preMean,
		}
		shocks = append(shocks, shock)
		e.log.Debug("macro shock measured",
			slog.String("symbol", ms.symbol),
			slog.Int("pre_obs", len(pre)),
			slog.Int("post_obs", len(post)),
			slog.Float64("shock", shock.Shock))
	}
	return shocks, nil
}

// Linkages regresses per-ticker volatility changes on sector exposure
// channels scaled by the macro shocks: a treated indicator, energy
// exposure times the Brent shock, risk exposure times the VIX shock,
// and FX exposure times the INR shock. Standard errors are HC1.
func (e *Estimator) Linkages(records []domain.VolatilityRecord, shocks []domain.MacroShock) (domain.RegressionResult, error) {
	shock := make(map[string]float64, len(shocks))
	for _, s := range shocks {
		shock[s.Symbol] = s.Shock
	}
	for _, ms := range shockSeries {
		if _, ok := shock[ms.symbol]; !ok {
			return domain.RegressionResult{}, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
				fmt.Sprintf("macro shock for %s is missing", ms.symbol), nil)
		}
	}

	usable := make([]domain.VolatilityRecord, 0, len(records))
	for _, rec := range records {
		if domain.IsMissing(rec.DeltaVol) {
			continue
		}
		usable = append(usable, rec)
	}
	if len(usable) == 0 {
		return domain.RegressionResult{}, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
			"no tickers carry a volatility change", nil)
	}

	terms := []string{termConst, termTreated, termEnergyBrent, termRiskVIX, termFXINR}
	x := mat.NewDense(len(usable), len(terms), nil)
	y := make([]float64, len(usable))
	for i, rec := range usable {
		exp := classifySector(rec.Sector)
		x.Set(i, 0, 1)
		x.Set(i, 1, flag(exp.treated))
		x.Set(i, 2, flag(exp.energy)*shock[config.MacroBrent])
		x.Set(i, 3, flag(exp.risk)*shock[config.MacroVIX])
		x.Set(i, 4, flag(exp.fx)*shock[config.MacroUSDINR])
		y[i] = rec.DeltaVol
	}

	fit, err := solveLeastSquares(x, y)
	if err != nil {
		return domain.RegressionResult{}, err
	}
	se, df := fit.hc1()

	res := domain.RegressionResult{
		Name:    NameLinkages,
		CovType: domain.CovTypeHC1,
		N:       len(usable),
		Terms:   termTable(terms, fit.coef, se, df),
	}
	e.log.Info("global linkages estimated",
		slog.Int("tickers", res.N),
		slog.Float64("brent_shock", shock[config.MacroBrent]),
		slog.Float64("vix_shock", shock[config.MacroVIX]),
		slog.Float64("inr_shock", shock[config.MacroUSDINR]))
	return res, nil
}

// exposure holds the linkage channels a sector loads on.
type exposure struct {
	treated bool
	energy  bool
	risk    bool
	fx      bool
}

// classifySector maps a sector label onto exposure channels by
// lowercase substring matching, so both the curated study sectors and
// Yahoo-style labels ("Consumer Cyclical", "Financial Services")
// resolve. The IT keyword must match the whole label: as a substring
// it would also capture "utilities".
func classifySector(sector string) exposure {
	s := strings.ToLower(strings.TrimSpace(sector))
	if s == "" {
		return exposure{}
	}
	contains := func(keys ...string) bool {
		for _, k := range keys {
			if strings.Contains(s, k) {
				return true
			}
		}
		return false
	}

	energy := contains("energy", "oil", "gas")
	trade := contains("industrial", "basic", "materials", "metal", "mining",
		"consumer cyclical", "transport", "infra", "port", "shipping")
	defensive := contains("consumer defensive", "fmcg", "healthcare", "pharma",
		"utilities", "telecom")
	cyclical := energy || trade || contains("auto", "automobile", "bank", "financial services")

	return exposure{
		treated: !defensive && cyclical,
		energy:  energy,
		risk:    contains("financial", "bank", "nbfc", "broker"),
		fx:      s == "it" || contains("software", "technology", "tech"),
	}
}
