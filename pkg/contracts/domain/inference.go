package domain

import "time"

// AggregationScope distinguishes the two grouping dimensions used by
// the aggregator.
type AggregationScope string

const (
	// ScopeSector groups tickers by their sector label.
	ScopeSector AggregationScope = "sector"
	// ScopeGroup groups tickers by treatment group (treated,
	// defensive, other).
	ScopeGroup AggregationScope = "group"
)

// SectorSummary is one aggregated cell: a sector or treatment group
// at one horizon. Mean is the sample mean of the group's CARs;
// CILow/CIHigh bound the seeded bootstrap percentile interval. N
// counts the group's tickers including those whose CAR is missing;
// missing values are dropped before any statistic is computed.
type SectorSummary struct {
	Scope     AggregationScope `json:"scope" csv:"scope"`
	Label     string           `json:"label" csv:"label" validate:"required"`
	EventDate time.Time        `json:"event_date" csv:"event_date"`
	Horizon   int              `json:"horizon" csv:"horizon" validate:"min=0"`
	Mean      float64          `json:"mean" csv:"mean"`
	Median    float64          `json:"median" csv:"median"`
	CILow     float64          `json:"ci_low" csv:"ci_low"`
	CIHigh    float64          `json:"ci_high" csv:"ci_high"`
	N         int              `json:"n" csv:"n" validate:"min=0"`
}

// TestKind identifies the hypothesis test behind a TestResult.
type TestKind string

const (
	// TestKindOneSample is a one-sample t test of the group mean
	// against zero.
	TestKindOneSample TestKind = "one_sample"
	// TestKindWelch is a two-sample Welch t test with unequal
	// variances and Welch-Satterthwaite degrees of freedom.
	TestKindWelch TestKind = "welch"
)

// TestResult is one row of the significance table. For Welch rows
// Label names the contrast (e.g. "treated_vs_defensive") and N2
// carries the second sample size; one-sample rows leave N2 zero.
// Significant is true when p < alpha or the bootstrap interval
// excludes zero; the statistic, p-value, and interval are always
// reported regardless.
type TestResult struct {
	Label       string    `json:"label" csv:"label" validate:"required"`
	EventDate   time.Time `json:"event_date" csv:"event_date"`
	Horizon     int       `json:"horizon" csv:"horizon"`
	Kind        TestKind  `json:"kind" csv:"kind" validate:"oneof=one_sample welch"`
	Statistic   float64   `json:"statistic" csv:"statistic"`
	PValue      float64   `json:"p_value" csv:"p_value"`
	DF          float64   `json:"df" csv:"df"`
	CILow       float64   `json:"ci_low" csv:"ci_low"`
	CIHigh      float64   `json:"ci_high" csv:"ci_high"`
	N           int       `json:"n" csv:"n"`
	N2          int       `json:"n2,omitempty" csv:"n2,omitempty"`
	Significant bool      `json:"significant" csv:"significant"`
}
