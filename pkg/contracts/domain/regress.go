package domain

// CovType identifies the covariance estimator behind a regression's
// standard errors.
type CovType string

const (
	// CovTypeHC1 is the heteroskedasticity-robust White estimator
	// with the n/(n-k) small-sample scaling.
	CovTypeHC1 CovType = "hc1"
	// CovTypeCluster is the one-way cluster-robust estimator with the
	// usual G/(G-1) * (N-1)/(N-K) correction.
	CovTypeCluster CovType = "cluster"
)

// RegressionTerm is one estimated coefficient row.
type RegressionTerm struct {
	Term   string  `json:"term" csv:"term" validate:"required"`
	Coef   float64 `json:"coef" csv:"coef"`
	StdErr float64 `json:"std_err" csv:"std_err"`
	TStat  float64 `json:"t_stat" csv:"t_stat"`
	PValue float64 `json:"p_value" csv:"p_value"`
}

// RegressionResult is a fitted panel or cross-section regression.
// KeyTerm names the coefficient of interest (for the difference
// designs, the interaction term); it is always present in Terms.
type RegressionResult struct {
	Name      string           `json:"name" validate:"required"`
	KeyTerm   string           `json:"key_term,omitempty"`
	CovType   CovType          `json:"cov_type" validate:"oneof=hc1 cluster"`
	N         int              `json:"n" validate:"min=1"`
	NClusters int              `json:"n_clusters,omitempty"`
	Terms     []RegressionTerm `json:"terms" validate:"required,dive"`
}

// Term returns the named coefficient and whether it was estimated.
func (r RegressionResult) Term(name string) (RegressionTerm, bool) {
	for _, t := range r.Terms {
		if t.Term == name {
			return t, true
		}
	}
	return RegressionTerm{}, false
}

// MacroShock is the event shock of one macro series: the relative
// change of its post-event mean level against its pre-event mean
// level.
type MacroShock struct {
	Symbol   string  `json:"symbol" csv:"symbol" validate:"required"`
	Label    string  `json:"label" csv:"label" validate:"required"`
	PreMean  float64 `json:"pre_mean" csv:"pre_mean"`
	PostMean float64 `json:"post_mean" csv:"post_mean"`
	Shock    float64 `json:"shock" csv:"shock"`
}
