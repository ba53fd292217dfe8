package inference

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// dropMissing filters the missing sentinel out of a sample.
func dropMissing(data []float64) []float64 {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if !domain.IsMissing(v) {
			clean = append(clean, v)
		}
	}
	return clean
}

// Percentile returns the q-th percentile (q in 0..100) of data sorted
// ascending, interpolating linearly between the two closest ranks at
// position q/100*(n-1).
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return domain.Missing()
	}
	pos := q / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

// Median returns the median of data with missing values dropped, or
// the missing sentinel when nothing remains.
func Median(data []float64) float64 {
	clean := dropMissing(data)
	if len(clean) == 0 {
		return domain.Missing()
	}
	sort.Float64s(clean)
	return Percentile(clean, 50)
}

// BootstrapCI is one percentile interval around a sample mean. Mean is
// the plain sample mean, not the mean of the resample means.
type BootstrapCI struct {
	Mean  float64
	Lower float64
	Upper float64
}

// Bootstrap resamples data with replacement, takes the mean of each
// resample, and bounds the central confidence mass by the empirical
// percentiles of those means. Each call builds a fresh PCG generator
// from seed, so identical input and seed reproduce the bounds exactly.
// Missing values are dropped first; an empty sample yields missing
// bounds.
func Bootstrap(data []float64, resamples int, confidence float64, seed uint64) BootstrapCI {
	clean := dropMissing(data)
	if len(clean) == 0 {
		return BootstrapCI{Mean: domain.Missing(), Lower: domain.Missing(), Upper: domain.Missing()}
	}

	rng := rand.New(rand.NewPCG(seed, 0))
	means := make([]float64, 0, resamples)
	for b := 0; b < resamples; b++ {
		var sum float64
		for range clean {
			sum += clean[rng.IntN(len(clean))]
		}
		means = append(means, sum/float64(len(clean)))
	}
	sort.Float64s(means)

	tail := (1 - confidence) / 2 * 100
	return BootstrapCI{
		Mean:  stat.Mean(clean, nil),
		Lower: Percentile(means, tail),
		Upper: Percentile(means, 100-tail),
	}
}

// ExcludesZero reports whether the interval lies strictly on one side
// of zero. Missing bounds never exclude.
func (ci BootstrapCI) ExcludesZero() bool {
	if domain.IsMissing(ci.Lower) || domain.IsMissing(ci.Upper) {
		return false
	}
	return ci.Lower > 0 || ci.Upper < 0
}
