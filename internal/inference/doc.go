// Package inference aggregates per-ticker CARs into sector- and
// group-level statistics: mean and median summaries with seeded
// bootstrap confidence intervals, one-sample t tests against zero, and
// the Welch contrast between the treated and defensive groups.
//
// Every bootstrap builds a fresh PCG generator from the configured
// seed and resamples symbol-sorted values, so interval bounds are
// bit-for-bit reproducible given the same input set and seed, in any
// input order. Missing CARs are dropped from every statistic but still
// counted in each cell's N.
package inference
