package inference

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// TTest is the numeric core of one significance row. Diff is the
// tested quantity: the sample mean for a one-sample test, the
// difference of means for a two-sample test. StdErr is Diff's
// standard error.
type TTest struct {
	Statistic float64
	PValue    float64
	DF        float64
	Diff      float64
	StdErr    float64
	N, N2     int
}

func missingTTest(n, n2 int) TTest {
	return TTest{
		Statistic: domain.Missing(),
		PValue:    domain.Missing(),
		DF:        domain.Missing(),
		Diff:      domain.Missing(),
		StdErr:    domain.Missing(),
		N:         n,
		N2:        n2,
	}
}

// OneSampleT tests the sample mean against zero, two-sided. Missing
// values are dropped first; fewer than two remaining observations
// leave every statistic missing.
func OneSampleT(data []float64) TTest {
	clean := dropMissing(data)
	n := len(clean)
	if n < 2 {
		return missingTTest(n, 0)
	}

	mean := stat.Mean(clean, nil)
	se := math.Sqrt(stat.Variance(clean, nil) / float64(n))
	t := mean / se
	df := float64(n - 1)
	return TTest{
		Statistic: t,
		PValue:    twoSidedP(t, df),
		DF:        df,
		Diff:      mean,
		StdErr:    se,
		N:         n,
	}
}

// WelchT contrasts two sample means without assuming equal variances,
// with Welch-Satterthwaite degrees of freedom. Two-sided. Either
// sample below two observations leaves every statistic missing.
func WelchT(a, b []float64) TTest {
	ca, cb := dropMissing(a), dropMissing(b)
	na, nb := len(ca), len(cb)
	if na < 2 || nb < 2 {
		return missingTTest(na, nb)
	}

	meanA, meanB := stat.Mean(ca, nil), stat.Mean(cb, nil)
	seA := stat.Variance(ca, nil) / float64(na)
	seB := stat.Variance(cb, nil) / float64(nb)
	se := math.Sqrt(seA + seB)
	t := (meanA - meanB) / se
	df := (seA + seB) * (seA + seB) /
		(seA*seA/float64(na-1) + seB*seB/float64(nb-1))
	return TTest{
		Statistic: t,
		PValue:    twoSidedP(t, df),
		DF:        df,
		Diff:      meanA - meanB,
		StdErr:    se,
		N:         na,
		N2:        nb,
	}
}

// ConfidenceInterval bounds Diff at the given confidence level using
// the test's own degrees of freedom.
func (t TTest) ConfidenceInterval(confidence float64) (lower, upper float64) {
	if domain.IsMissing(t.DF) || t.DF <= 0 || domain.IsMissing(t.StdErr) {
		return domain.Missing(), domain.Missing()
	}
	q := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: t.DF}.Quantile(1 - (1-confidence)/2)
	return t.Diff - q*t.StdErr, t.Diff + q*t.StdErr
}

func twoSidedP(t, df float64) float64 {
	if math.IsNaN(t) || math.IsNaN(df) || df <= 0 {
		return domain.Missing()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.CDF(-math.Abs(t))
}
