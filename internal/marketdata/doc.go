// Package marketdata loads daily price files and turns them into the
// aligned series the study runs on.
//
// The benchmark's trading dates define the TradingCalendar; every
// estimation and event window is a pair of inclusive index offsets on
// that calendar. Returns are simple returns on the adjusted close,
// computed only between consecutive calendar dates where both closes
// exist. Gaps stay gaps: nothing is forward-filled, zero-filled, or
// interpolated, and tickers whose coverage of a required window falls
// below the configured floor are excluded with a reported error.
//
// Two input layouts are accepted: the wide merged CSV (one date
// column, one close column per symbol) and per-symbol Yahoo-layout
// files written by the fetch command. Per-symbol files take
// precedence.
package marketdata
