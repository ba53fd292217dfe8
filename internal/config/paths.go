package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the resolved directory layout for a run. It is the
// single source of truth for file placement: raw downloads under
// RawDataDir, result tables under TablesDir, reports and the run
// report under ReportsDir.
type Paths struct {
	BaseDir    string
	RawDataDir string
	TablesDir  string
	ReportsDir string
	CacheDir   string
	LogsDir    string
}

// ResolvePaths resolves the configured directories against the base
// directory and returns the absolute layout.
func ResolvePaths(pc PathsConfig) (*Paths, error) {
	base := pc.BaseDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}

	return &Paths{
		BaseDir:    base,
		RawDataDir: resolve(pc.RawDataDir),
		TablesDir:  resolve(pc.TablesDir),
		ReportsDir: resolve(pc.ReportsDir),
		CacheDir:   resolve(pc.CacheDir),
		LogsDir:    resolve(pc.LogsDir),
	}, nil
}

// EnsureDirectories creates all run directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.RawDataDir,
		p.TablesDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// RawDataPath returns the path for a raw data file.
func (p *Paths) RawDataPath(filename string) string {
	return filepath.Join(p.RawDataDir, filename)
}

// TablePath returns the path for a result table file.
func (p *Paths) TablePath(filename string) string {
	return filepath.Join(p.TablesDir, filename)
}

// ReportPath returns the path for a report file.
func (p *Paths) ReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// CachePath returns the path for a cache file.
func (p *Paths) CachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// LogPath returns the path for a log file.
func (p *Paths) LogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// MergedDailyCSV returns the path of the wide daily close matrix
// produced by the price download.
func (p *Paths) MergedDailyCSV() string {
	return p.RawDataPath(FileMergedDailyCSV)
}

// TickerSectorsCSV returns the path of the ticker metadata table.
func (p *Paths) TickerSectorsCSV() string {
	return p.RawDataPath(FileTickerSectorsCSV)
}

// SummaryCSV returns the per-ticker event study summary path for an event date.
func (p *Paths) SummaryCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternSummaryCSV, eventDate))
}

// PanelCSV returns the daily AR/CAR panel path for an event date.
func (p *Paths) PanelCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternPanelCSV, eventDate))
}

// SectorMeanCSV returns the sector mean-CAR table path for an event date.
func (p *Paths) SectorMeanCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternSectorMeanCSV, eventDate))
}

// SectorMedianCSV returns the sector median-CAR table path for an event date.
func (p *Paths) SectorMedianCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternSectorMedianCSV, eventDate))
}

// BootstrapCSV returns the group bootstrap-interval table path for an event date.
func (p *Paths) BootstrapCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternBootstrapCSV, eventDate))
}

// SignificanceCSV returns the hypothesis-test table path for an event date.
func (p *Paths) SignificanceCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternSignificanceCSV, eventDate))
}

// VolSummaryCSV returns the per-ticker volatility table path for an event date.
func (p *Paths) VolSummaryCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternVolSummaryCSV, eventDate))
}

// VolSectorCSV returns the sector volatility table path for an event date.
func (p *Paths) VolSectorCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternVolSectorCSV, eventDate))
}

// VolGroupsCSV returns the group volatility-contrast table path for an event date.
func (p *Paths) VolGroupsCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternVolGroupsCSV, eventDate))
}

// DiDCSV returns the difference-in-differences coefficient table path
// for an event date.
func (p *Paths) DiDCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternDiDCSV, eventDate))
}

// DDDCSV returns the triple-difference coefficient table path for an
// event date.
func (p *Paths) DDDCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternDDDCSV, eventDate))
}

// LinkagesCSV returns the macro-linkage coefficient table path for an
// event date.
func (p *Paths) LinkagesCSV(eventDate string) string {
	return p.TablePath(fmt.Sprintf(PatternLinkagesCSV, eventDate))
}

// RunReportJSON returns the run report path for an event date.
func (p *Paths) RunReportJSON(eventDate string) string {
	return p.ReportPath(fmt.Sprintf(PatternRunReportJSON, eventDate))
}

// WorkbookXLSX returns the Excel workbook path for an event date.
func (p *Paths) WorkbookXLSX(eventDate string) string {
	return p.ReportPath(fmt.Sprintf(PatternWorkbookXLSX, eventDate))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
