// Package volatility contrasts conditional volatility before and
// after the event day. Each ticker's event-panel abnormal returns are
// split at offset zero, a GARCH(1,1) model is fit to each segment by
// maximum likelihood, and the mean conditional volatility difference
// (post minus pre) feeds sector tables and a treated-vs-defensive
// Welch contrast with bootstrap intervals on the group means.
//
// A segment whose fit fails, or leaves the stationarity region, falls
// back to the sample standard deviation; the record's Method field
// says which estimator produced it.
package volatility
