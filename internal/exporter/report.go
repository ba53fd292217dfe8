package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// WriteRunReport persists the machine-readable run record. The file is
// stamped with the requested event date so the name is stable even
// when the event aligned forward to the next trading day.
func (e *Exporter) WriteRunReport(report *domain.RunReport) error {
	path := e.paths.RunReportJSON(stamp(report.RequestedDate))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("encode run report", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create directory for %s", path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError(fmt.Sprintf("write %s", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError(fmt.Sprintf("replace %s", path), err)
	}

	e.log.Info("run report written",
		slog.String("path", path),
		slog.String("run_id", report.RunID),
		slog.Int("included", report.Counts.Included),
		slog.Int("excluded", report.Counts.Excluded))
	return nil
}
