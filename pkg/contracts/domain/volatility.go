package domain

// VolMethod records how a ticker's conditional volatility was
// estimated.
type VolMethod string

const (
	// VolMethodGARCH is a converged GARCH(1,1) maximum-likelihood fit.
	VolMethodGARCH VolMethod = "garch"
	// VolMethodStdDev is the sample standard-deviation fallback used
	// when the GARCH fit fails to converge.
	VolMethodStdDev VolMethod = "stddev"
)

// VolatilityRecord is one row of the volatility summary: mean
// conditional volatility before and after the event and their
// difference. PreVol and PostVol are daily volatilities on the return
// scale (not percent).
type VolatilityRecord struct {
	Ticker       string    `json:"ticker" csv:"ticker" validate:"required"`
	Sector       string    `json:"sector" csv:"sector"`
	Group        string    `json:"group" csv:"group"`
	HighExposure bool      `json:"high_exposure" csv:"high_exposure"`
	PreVol       float64   `json:"pre_vol" csv:"pre_mean_sigma"`
	PostVol      float64   `json:"post_vol" csv:"post_mean_sigma"`
	DeltaVol     float64   `json:"delta_vol" csv:"delta_sigma"`
	Method       VolMethod `json:"method" csv:"method" validate:"oneof=garch stddev"`
}

// VolatilitySectorStat aggregates DeltaVol per sector.
type VolatilitySectorStat struct {
	Sector      string  `json:"sector" csv:"sector" validate:"required"`
	MeanDelta   float64 `json:"mean_delta" csv:"mean_delta"`
	MedianDelta float64 `json:"median_delta" csv:"median_delta"`
	Count       int     `json:"count" csv:"count" validate:"min=0"`
}

// VolatilityGroupStat aggregates DeltaVol per treatment group, with a
// seeded bootstrap interval around the group mean. The
// treated-vs-defensive contrast itself is reported as a Welch
// TestResult alongside these rows.
type VolatilityGroupStat struct {
	Group     string  `json:"group" csv:"group" validate:"required"`
	MeanDelta float64 `json:"mean_delta" csv:"mean_delta"`
	StdDelta  float64 `json:"std_delta" csv:"std_delta"`
	CILow     float64 `json:"ci_low" csv:"low_ci"`
	CIHigh    float64 `json:"ci_high" csv:"high_ci"`
	Count     int     `json:"count" csv:"count" validate:"min=0"`
}
