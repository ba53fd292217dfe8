package eventstudy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// pairedEstimationReturns collects the (market, ticker) return pairs
// across the estimation window, keeping only dates where both series
// observed a return.
func pairedEstimationReturns(ticker, market *marketdata.ReturnSeries, a *Anchored) (x, y []float64) {
	for i := a.EstLo; i <= a.EstHi; i++ {
		date := a.Cal.Date(i)
		rt, okT := ticker.At(date)
		rm, okM := market.At(date)
		if !okT || !okM {
			continue
		}
		x = append(x, rm)
		y = append(y, rt)
	}
	return x, y
}

// FitMarketModel estimates r_i = alpha + beta*r_m by OLS over the
// estimation window. Fewer paired observations than the configured
// minimum, or a benchmark with zero variance in the window, cannot
// identify the model and exclude the ticker.
func FitMarketModel(symbol string, ticker, market *marketdata.ReturnSeries, a *Anchored) (domain.MarketModel, error) {
	x, y := pairedEstimationReturns(ticker, market, a)

	if len(x) < a.Spec.MinObservations {
		return domain.MarketModel{}, apperrors.NewInsufficientDataError(symbol, len(x), a.Spec.MinObservations)
	}
	if stat.Variance(x, nil) == 0 {
		return domain.MarketModel{}, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
			fmt.Sprintf("%s: benchmark variance is zero over the estimation window", symbol), nil).
			WithContext("symbol", symbol)
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	var rss float64
	for i := range x {
		resid := y[i] - (alpha + beta*x[i])
		rss += resid * resid
	}
	residStd := 0.0
	if len(x) > 2 {
		residStd = math.Sqrt(rss / float64(len(x)-2))
	}

	return domain.MarketModel{
		Symbol:      symbol,
		Alpha:       alpha,
		Beta:        beta,
		ResidualStd: residStd,
		NObs:        len(x),
	}, nil
}
