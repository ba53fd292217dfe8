package regress

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// epsilon is the float64 machine epsilon, used to scale the singular
// value cutoff.
const epsilon = 2.220446049250313e-16

// olsFit is one solved least squares problem with the pieces needed
// for sandwich covariances. Singular values below the cutoff are
// truncated, so a rank-deficient design yields the minimum-norm
// solution and the dropped directions carry zero coefficients and
// zero variance.
type olsFit struct {
	coef  []float64
	resid []float64
	n     int
	rank  int
	x     *mat.Dense
	bread *mat.Dense // pseudo-inverse of X'X
}

// solveLeastSquares fits y on the columns of x by thin SVD.
func solveLeastSquares(x *mat.Dense, y []float64) (*olsFit, error) {
	n, p := x.Dims()
	if n == 0 || p == 0 || n != len(y) {
		return nil, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
			"regression design is empty or misaligned with the outcome", nil)
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
			"singular value decomposition did not converge", nil)
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Singular values come back in descending order.
	cutoff := math.Max(float64(n), float64(p)) * epsilon * s[0]
	k := len(s)
	kept := make([]bool, k)
	rank := 0
	yv := mat.NewVecDense(n, y)
	w := make([]float64, k)
	for j := 0; j < k; j++ {
		if s[j] <= cutoff {
			break
		}
		kept[j] = true
		rank++
		w[j] = mat.Dot(u.ColView(j), yv) / s[j]
	}

	coef := make([]float64, p)
	for i := 0; i < p; i++ {
		var c float64
		for j := 0; j < k; j++ {
			if kept[j] {
				c += v.At(i, j) * w[j]
			}
		}
		coef[i] = c
	}

	bread := mat.NewDense(p, p, nil)
	for a := 0; a < p; a++ {
		for b := a; b < p; b++ {
			var c float64
			for j := 0; j < k; j++ {
				if kept[j] {
					c += v.At(a, j) * v.At(b, j) / (s[j] * s[j])
				}
			}
			bread.Set(a, b, c)
			bread.Set(b, a, c)
		}
	}

	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(x, mat.NewVecDense(p, coef))
	resid := make([]float64, n)
	for i := range resid {
		resid[i] = y[i] - fitted.AtVec(i)
	}

	return &olsFit{coef: coef, resid: resid, n: n, rank: rank, x: x, bread: bread}, nil
}

// hc1 returns White heteroskedasticity-robust standard errors with the
// n/(n-rank) finite-sample scaling, and the degrees of freedom for the
// t distribution of the resulting statistics.
func (f *olsFit) hc1() (se []float64, df float64) {
	_, p := f.x.Dims()
	scored := mat.NewDense(f.n, p, nil)
	for i := 0; i < f.n; i++ {
		for a := 0; a < p; a++ {
			scored.Set(i, a, f.x.At(i, a)*f.resid[i])
		}
	}
	var meat mat.Dense
	meat.Mul(scored.T(), scored)

	df = float64(f.n - f.rank)
	scale := 1.0
	if f.n > f.rank {
		scale = float64(f.n) / df
	}
	return f.sandwich(&meat, scale), df
}

// clusterRobust returns one-way cluster-robust standard errors with
// the G/(G-1) * (N-1)/(N-rank) correction, and G-1 degrees of freedom.
// groups holds a cluster index in [0, nGroups) for every observation.
func (f *olsFit) clusterRobust(groups []int, nGroups int) (se []float64, df float64) {
	_, p := f.x.Dims()
	scores := mat.NewDense(nGroups, p, nil)
	for i := 0; i < f.n; i++ {
		g := groups[i]
		for a := 0; a < p; a++ {
			scores.Set(g, a, scores.At(g, a)+f.x.At(i, a)*f.resid[i])
		}
	}
	var meat mat.Dense
	meat.Mul(scores.T(), scores)

	scale := 1.0
	if nGroups > 1 && f.n > f.rank {
		scale = float64(nGroups) / float64(nGroups-1) *
			float64(f.n-1) / float64(f.n-f.rank)
	}
	return f.sandwich(&meat, scale), float64(nGroups - 1)
}

func (f *olsFit) sandwich(meat *mat.Dense, scale float64) []float64 {
	var bm, cov mat.Dense
	bm.Mul(f.bread, meat)
	cov.Mul(&bm, f.bread)

	se := make([]float64, len(f.coef))
	for i := range se {
		se[i] = math.Sqrt(math.Max(cov.At(i, i)*scale, 0))
	}
	return se
}

// termTable pairs coefficient names with their estimates and two-sided
// t statistics. A zero standard error leaves the statistic and p-value
// missing.
func termTable(names []string, coef, se []float64, df float64) []domain.RegressionTerm {
	out := make([]domain.RegressionTerm, len(names))
	for i, name := range names {
		t := domain.Missing()
		if se[i] > 0 {
			t = coef[i] / se[i]
		}
		out[i] = domain.RegressionTerm{
			Term:   name,
			Coef:   coef[i],
			StdErr: se[i],
			TStat:  t,
			PValue: twoSidedP(t, df),
		}
	}
	return out
}

func twoSidedP(t, df float64) float64 {
	if math.IsNaN(t) || df <= 0 {
		return domain.Missing()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.CDF(-math.Abs(t))
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
