// Package regress estimates the difference designs behind the study's
// transmission claims: a two-way fixed effects DiD contrasting treated
// against defensive tickers around the event, a triple difference
// adding the high-exposure dimension, and a cross-section linking
// post-minus-pre volatility changes to macro shocks.
//
// Every design is solved by thin-SVD least squares with small singular
// values truncated, so the deliberately collinear indicator-plus-dummy
// layouts degrade to the minimum-norm solution instead of failing
// while the interaction coefficients of interest stay identified.
// Panel standard errors are cluster robust by ticker with G-1 degrees
// of freedom; the cross-section uses HC1 with N-rank.
package regress
