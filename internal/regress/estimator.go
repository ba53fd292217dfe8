package regress

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// Result names carried into run reports and output file names.
const (
	NameDiD      = "did"
	NameDDD      = "ddd"
	NameLinkages = "global_linkages"
)

// Key interaction terms of the two difference designs.
const (
	KeyTermDiD = "TreatedFlag:Post"
	KeyTermDDD = "TreatedFlag:HighExposure:Post"
)

const (
	termIntercept    = "Intercept"
	termTreatedFlag  = "TreatedFlag"
	termHighExposure = "HighExposure"
	termPost         = "Post"
)

// Estimator runs the panel and cross-section regressions for one
// event. The universe supplies group and exposure assignments; the
// panel and linkage configs bound the estimation windows.
type Estimator struct {
	uni   *config.Universe
	panel config.PanelConfig
	links config.LinkagesConfig
	log   *slog.Logger
}

// NewEstimator wires an estimator. A nil logger falls back to the
// default logger.
func NewEstimator(uni *config.Universe, panel config.PanelConfig, links config.LinkagesConfig, log *slog.Logger) *Estimator {
	if log == nil {
		log = slog.Default()
	}
	return &Estimator{uni: uni, panel: panel, links: links, log: log}
}

// DiD estimates the difference-in-differences design on the event
// panel: abnormal returns of treated against defensive tickers, before
// against on-and-after the event date, with ticker and date fixed
// effects. Standard errors are clustered by ticker and the window is
// [-DiDPreDays, +DiDPostDays] calendar days around the event.
func (e *Estimator) DiD(panel []domain.AbnormalReturn, event time.Time) (domain.RegressionResult, error) {
	rows, err := e.panelRows(panel, event, e.panel.DiDPreDays, e.panel.DiDPostDays, false)
	if err != nil {
		return domain.RegressionResult{}, err
	}
	return e.estimatePanel(rows, NameDiD, KeyTermDiD, false)
}

// DDD estimates the triple-difference design, adding the high-exposure
// dimension to the DiD contrast. The window is [-DDDPreDays,
// +DDDPostDays] calendar days and a configured donut range is excluded
// before estimation.
func (e *Estimator) DDD(panel []domain.AbnormalReturn, event time.Time) (domain.RegressionResult, error) {
	rows, err := e.panelRows(panel, event, e.panel.DDDPreDays, e.panel.DDDPostDays, true)
	if err != nil {
		return domain.RegressionResult{}, err
	}
	return e.estimatePanel(rows, NameDDD, KeyTermDDD, true)
}

func (e *Estimator) estimatePanel(rows []panelRow, name, keyTerm string, triple bool) (domain.RegressionResult, error) {
	d, err := buildPanelDesign(rows, triple)
	if err != nil {
		return domain.RegressionResult{}, err
	}

	fit, err := solveLeastSquares(d.x, d.y)
	if err != nil {
		return domain.RegressionResult{}, err
	}
	se, df := fit.clusterRobust(d.groups, d.nGroups)

	res := domain.RegressionResult{
		Name:      name,
		KeyTerm:   keyTerm,
		CovType:   domain.CovTypeCluster,
		N:         len(d.y),
		NClusters: d.nGroups,
		Terms:     termTable(d.terms, fit.coef, se, df),
	}
	key, _ := res.Term(keyTerm)
	e.log.Info("panel regression estimated",
		slog.String("design", name),
		slog.Int("rows", res.N),
		slog.Int("clusters", res.NClusters),
		slog.Float64("key_coef", key.Coef),
		slog.Float64("key_p", key.PValue))
	return res, nil
}

// panelRow is one usable panel observation after group, window, and
// donut filtering.
type panelRow struct {
	ticker  string
	date    time.Time
	rel     int
	y       float64
	treated bool
	exposed bool
}

// panelRows filters the event panel down to treated and defensive
// tickers inside the calendar-day window. Rows without an abnormal
// return and tickers outside both groups are dropped; the donut
// exclusion applies only when requested.
func (e *Estimator) panelRows(panel []domain.AbnormalReturn, event time.Time, preDays, postDays int, donut bool) ([]panelRow, error) {
	ev := marketdata.Normalize(event)

	var donutStart, donutEnd time.Time
	var hasDonut bool
	if donut {
		var err error
		donutStart, donutEnd, hasDonut, err = e.panel.Donut()
		if err != nil {
			return nil, apperrors.NewConfigurationError("invalid donut window", err)
		}
	}

	rows := make([]panelRow, 0, len(panel))
	for _, ar := range panel {
		if domain.IsMissing(ar.AR) {
			continue
		}
		group := e.uni.GroupOf(ar.Symbol)
		if group != config.GroupTreated && group != config.GroupDefensive {
			continue
		}
		d := marketdata.Normalize(ar.Date)
		rel := int((d.Unix() - ev.Unix()) / 86400)
		if rel < -preDays || rel > postDays {
			continue
		}
		if hasDonut && !d.Before(donutStart) && !d.After(donutEnd) {
			continue
		}
		rows = append(rows, panelRow{
			ticker:  ar.Symbol,
			date:    d,
			rel:     rel,
			y:       ar.AR,
			treated: group == config.GroupTreated,
			exposed: e.uni.IsHighExposure(ar.Symbol),
		})
	}
	if len(rows) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
			fmt.Sprintf("no usable panel rows within %d days before and %d days after %s",
				preDays, postDays, ev.Format(config.DateLayout)), nil)
	}
	return rows, nil
}

// design is a fully materialized regression problem: named columns,
// the outcome, and a cluster index per row.
type design struct {
	terms   []string
	x       *mat.Dense
	y       []float64
	groups  []int
	nGroups int
}

// buildPanelDesign lays out the two-way fixed effects design: the
// intercept, the group and period indicators with their interactions,
// then ticker and date dummies with the first level of each dropped.
// The indicators are linear combinations of the dummies, so the design
// is rank deficient on purpose; the truncated-SVD solve keeps the
// interaction coefficients identified.
func buildPanelDesign(rows []panelRow, triple bool) (*design, error) {
	tickerIndex := make(map[string]int)
	dateIndex := make(map[int64]int)
	var tickers []string
	var dates []time.Time
	var hasTreated, hasDefensive, hasPre, hasPost bool
	for _, r := range rows {
		if _, ok := tickerIndex[r.ticker]; !ok {
			tickerIndex[r.ticker] = 0
			tickers = append(tickers, r.ticker)
		}
		if _, ok := dateIndex[r.date.Unix()]; !ok {
			dateIndex[r.date.Unix()] = 0
			dates = append(dates, r.date)
		}
		if r.treated {
			hasTreated = true
		} else {
			hasDefensive = true
		}
		if r.rel < 0 {
			hasPre = true
		} else {
			hasPost = true
		}
	}
	switch {
	case !hasTreated || !hasDefensive:
		return nil, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
			"panel window does not cover both treated and defensive tickers", nil)
	case !hasPre || !hasPost:
		return nil, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
			"panel window does not cover both sides of the event date", nil)
	case len(tickers) < 2 || len(dates) < 2:
		return nil, apperrors.NewAppError(apperrors.ErrTypeInsufficientData,
			fmt.Sprintf("panel window spans %d tickers and %d dates, need at least 2 of each",
				len(tickers), len(dates)), nil)
	}

	sort.Strings(tickers)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for i, t := range tickers {
		tickerIndex[t] = i
	}
	for i, d := range dates {
		dateIndex[d.Unix()] = i
	}

	terms := []string{termIntercept, termTreatedFlag, termPost, KeyTermDiD}
	if triple {
		terms = []string{
			termIntercept, termTreatedFlag, termHighExposure, termPost,
			"TreatedFlag:HighExposure", KeyTermDiD, "HighExposure:Post", KeyTermDDD,
		}
	}
	base := len(terms)
	for _, t := range tickers[1:] {
		terms = append(terms, "ticker["+t+"]")
	}
	for _, d := range dates[1:] {
		terms = append(terms, "date["+d.Format(config.DateLayout)+"]")
	}

	x := mat.NewDense(len(rows), len(terms), nil)
	y := make([]float64, len(rows))
	groups := make([]int, len(rows))
	for i, r := range rows {
		t := flag(r.treated)
		h := flag(r.exposed)
		post := flag(r.rel >= 0)

		vals := []float64{1, t, post, t * post}
		if triple {
			vals = []float64{1, t, h, post, t * h, t * post, h * post, t * h * post}
		}
		for j, v := range vals {
			x.Set(i, j, v)
		}
		if ti := tickerIndex[r.ticker]; ti > 0 {
			x.Set(i, base+ti-1, 1)
		}
		if di := dateIndex[r.date.Unix()]; di > 0 {
			x.Set(i, base+len(tickers)-1+di-1, 1)
		}
		y[i] = r.y
		groups[i] = tickerIndex[r.ticker]
	}

	return &design{terms: terms, x: x, y: y, groups: groups, nGroups: len(tickers)}, nil
}
