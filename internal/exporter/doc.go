// Package exporter persists the study's published outputs for one
// event run: the per-ticker summary and daily AR/CAR panel, the sector
// and group aggregation tables, the hypothesis-test and regression
// coefficient tables, the volatility tables, a machine-readable run
// report, and a four-sheet Excel workbook.
//
// All CSV files share one writer that creates a temporary sibling and
// renames it into place, writes a UTF-8 BOM for Excel, and renders the
// missing sentinel as an empty cell. Row order is deterministic: every
// table is sorted before it is written.
package exporter
