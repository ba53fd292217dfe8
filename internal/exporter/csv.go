package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
)

// CSVWriter persists result tables. Each table is written to a
// temporary sibling and renamed into place, so an interrupted run never
// leaves a truncated table under the published name.
type CSVWriter struct {
	paths *config.Paths
	log   *slog.Logger
}

// NewCSVWriter creates a CSV writer over the run's directory layout.
func NewCSVWriter(paths *config.Paths, log *slog.Logger) *CSVWriter {
	if log == nil {
		log = slog.Default()
	}
	return &CSVWriter{paths: paths, log: log}
}

// WriteOptions configures one table write.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM so Excel opens the file as UTF-8
}

// WriteCSV writes one table. Relative paths land in the tables
// directory; absolute paths are used as given.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.log.Info("writing table",
		slog.String("path", fullPath),
		slog.Int("rows", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create directory for %s", fullPath), err)
	}

	tmp := fullPath + ".tmp"
	if err := writeCSVFile(tmp, options); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError(fmt.Sprintf("replace %s", fullPath), err)
	}
	return nil
}

// WriteSimpleCSV writes a table with headers and the BOM prefix.
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// writeCSVFile writes and closes one file. The file must be fully
// closed before the caller renames it into place.
func writeCSVFile(path string, options WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create %s", path), err)
	}

	if err := writeTable(f, options); err != nil {
		f.Close()
		return apperrors.NewStorageError(fmt.Sprintf("write %s", path), err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("close %s", path), err)
	}
	return nil
}

func writeTable(f *os.File, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return err
		}
	}

	writer := csv.NewWriter(f)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return err
		}
	}
	for _, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// resolvePath routes relative table names into the tables directory.
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return w.paths.TablePath(filePath)
}
