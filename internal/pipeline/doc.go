// Package pipeline orchestrates one study run per configured event.
//
// A run walks a fixed set of stages in dependency order: load prices,
// fit the market models, then fan out into aggregation, significance
// tests, the volatility contrast, and the panel regressions before a
// final export stage publishes every table that was produced. Stage
// statuses and timings land on the run report, so a published
// run_report JSON names exactly which branches completed. A failed
// stage skips its dependents but never the independent branches.
//
// Events are independent: the runner gives each its own dataset,
// manager, and report, and runs them concurrently.
package pipeline
