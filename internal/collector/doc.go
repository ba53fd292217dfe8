// Package collector downloads daily price history for the study
// universe from the Yahoo Finance chart API and writes the raw data
// layout the loader consumes: one Yahoo-format CSV per symbol, a wide
// merged close matrix, and the ticker sector table.
//
// Collection is gap-preserving. Sessions the API reports as null are
// dropped, and the merged matrix leaves them as empty cells rather
// than carrying the previous close forward, so downstream return
// calculations see real gaps.
package collector
