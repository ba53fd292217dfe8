package volatility

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// garchScale stabilizes the optimizer: returns are fit on the percent
// scale and the fitted volatility path is mapped back.
const garchScale = 100.0

// minGARCHObs is the smallest segment a fit is attempted on.
const minGARCHObs = 5

// GARCHModel is a fitted GARCH(1,1) with constant mean and normal
// innovations:
//
//	r_t = mu + e_t
//	h_t = omega + alpha*e_{t-1}^2 + beta*h_{t-1}
//
// Parameters are on the percent return scale the optimizer sees;
// CondVol is mapped back to the raw return scale.
type GARCHModel struct {
	Mu    float64
	Omega float64
	Alpha float64
	Beta  float64
	// CondVol is the fitted conditional volatility path, one entry per
	// input observation.
	CondVol       []float64
	LogLikelihood float64
}

// MeanConditionalVol averages the fitted conditional volatility path.
func (m *GARCHModel) MeanConditionalVol() float64 {
	return stat.Mean(m.CondVol, nil)
}

// FitGARCH fits GARCH(1,1) by maximum likelihood with Nelder-Mead.
// The likelihood is infinite outside the stationarity region
// (omega > 0, alpha >= 0, beta >= 0, alpha+beta < 1), so the best
// point found is always admissible. Degenerate inputs (too few
// observations, zero variance) fail rather than fit.
func FitGARCH(returns []float64) (*GARCHModel, error) {
	if len(returns) < minGARCHObs {
		return nil, fmt.Errorf("garch: need at least %d observations, have %d",
			minGARCHObs, len(returns))
	}

	scaled := make([]float64, len(returns))
	for i, r := range returns {
		scaled[i] = r * garchScale
	}

	mean := stat.Mean(scaled, nil)
	variance := stat.Variance(scaled, nil)
	if variance <= 0 || math.IsNaN(variance) || math.IsInf(variance, 0) {
		return nil, fmt.Errorf("garch: degenerate return variance")
	}

	nll := func(x []float64) float64 {
		return negLogLikelihood(scaled, x[0], x[1], x[2], x[3])
	}

	// Mildly reactive, highly persistent start with the unconditional
	// variance matched to the sample.
	alpha0, beta0 := 0.05, 0.90
	x0 := []float64{mean, variance * (1 - alpha0 - beta0), alpha0, beta0}

	result, err := optimize.Minimize(optimize.Problem{Func: nll}, x0, nil, &optimize.NelderMead{})
	if result == nil || len(result.X) != 4 {
		return nil, fmt.Errorf("garch: optimizer returned no solution: %v", err)
	}

	// Iteration-limit statuses still carry the best admissible point;
	// only an inadmissible or non-finite optimum is a failed fit.
	mu, omega, alpha, beta := result.X[0], result.X[1], result.X[2], result.X[3]
	if !admissible(omega, alpha, beta) || math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, fmt.Errorf("garch: fit left the stationarity region")
	}

	h := variancePath(scaled, mu, omega, alpha, beta)
	vol := make([]float64, len(h))
	for i, v := range h {
		vol[i] = math.Sqrt(v) / garchScale
	}
	return &GARCHModel{
		Mu:            mu,
		Omega:         omega,
		Alpha:         alpha,
		Beta:          beta,
		CondVol:       vol,
		LogLikelihood: -result.F,
	}, nil
}

func admissible(omega, alpha, beta float64) bool {
	return omega > 0 && alpha >= 0 && beta >= 0 && alpha+beta < 1
}

func negLogLikelihood(r []float64, mu, omega, alpha, beta float64) float64 {
	if !admissible(omega, alpha, beta) {
		return math.Inf(1)
	}
	h := variancePath(r, mu, omega, alpha, beta)
	sum := 0.0
	for i, hi := range h {
		if hi <= 0 {
			return math.Inf(1)
		}
		e := r[i] - mu
		sum += math.Log(hi) + e*e/hi
	}
	return 0.5 * (float64(len(r))*math.Log(2*math.Pi) + sum)
}

// variancePath runs the GARCH recursion, backcasting the initial
// variance with the mean squared residual of the whole segment. The
// backcast is strictly positive whenever the series is not constant.
func variancePath(r []float64, mu, omega, alpha, beta float64) []float64 {
	resid2 := make([]float64, len(r))
	backcast := 0.0
	for i, ri := range r {
		e := ri - mu
		resid2[i] = e * e
		backcast += resid2[i]
	}
	backcast /= float64(len(r))

	h := make([]float64, len(r))
	h[0] = backcast
	for t := 1; t < len(r); t++ {
		h[t] = omega + alpha*resid2[t-1] + beta*h[t-1]
	}
	return h
}
