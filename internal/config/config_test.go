package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
)

// TestDefault verifies the built-in study defaults.
func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/study.log", cfg.Logging.FilePath)

	assert.Equal(t, "none", cfg.Tracing.Exporter)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)

	assert.Equal(t, ".", cfg.Paths.BaseDir)
	assert.Equal(t, "data/raw", cfg.Paths.RawDataDir)
	assert.Equal(t, "results/tables", cfg.Paths.TablesDir)
	assert.Equal(t, "results/reports", cfg.Paths.ReportsDir)

	assert.Equal(t, "2020-06-01", cfg.Fetch.Start)
	assert.Equal(t, "2021-06-30", cfg.Fetch.End)
	assert.Equal(t, "1d", cfg.Fetch.Interval)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 2.0, cfg.Fetch.RatePerSec)
	assert.Equal(t, 4, cfg.Fetch.Concurrency)

	assert.Equal(t, "2021-03-23", cfg.Study.EventDate)
	assert.Equal(t, "2021-03-29", cfg.Study.RefloatDate)
	assert.Equal(t, 120, cfg.Study.EstimationDays)
	assert.Equal(t, 21, cfg.Study.GapDays)
	assert.Equal(t, 5, cfg.Study.EventPreDays)
	assert.Equal(t, 20, cfg.Study.EventPostDays)
	assert.Equal(t, []int{5, 10}, cfg.Study.Horizons)
	assert.Equal(t, 30, cfg.Study.MinObservations)
	assert.Equal(t, 0.5, cfg.Study.MaxMissingShare)

	assert.Equal(t, 3000, cfg.Inference.Resamples)
	assert.Equal(t, 0.95, cfg.Inference.Confidence)
	assert.Equal(t, uint64(42), cfg.Inference.Seed)

	assert.Equal(t, 5, cfg.Volatility.MinSegmentObs)

	assert.Equal(t, 10, cfg.Panel.DiDPreDays)
	assert.Equal(t, 20, cfg.Panel.DiDPostDays)
	assert.Equal(t, 10, cfg.Panel.DDDPreDays)
	assert.Equal(t, 40, cfg.Panel.DDDPostDays)

	assert.Equal(t, 5, cfg.Linkages.PreDays)
	assert.Equal(t, 5, cfg.Linkages.PostDays)
}

// TestLoad tests precedence and validation across sources.
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		fileContent string
		wantErr     bool
		errType     apperrors.ErrorType
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "2021-03-23", cfg.Study.EventDate)
				assert.Equal(t, 120, cfg.Study.EstimationDays)
				assert.Equal(t, 3000, cfg.Inference.Resamples)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"SUEZ_STUDY_EVENT_DATE":      "2021-04-03",
				"SUEZ_STUDY_ESTIMATION_DAYS": "90",
				"SUEZ_STUDY_HORIZONS":        "3,7",
				"SUEZ_INFERENCE_RESAMPLES":   "500",
				"SUEZ_FETCH_TIMEOUT":         "45s",
				"SUEZ_LOGGING_LEVEL":         "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "2021-04-03", cfg.Study.EventDate)
				assert.Equal(t, 90, cfg.Study.EstimationDays)
				assert.Equal(t, []int{3, 7}, cfg.Study.Horizons)
				assert.Equal(t, 500, cfg.Inference.Resamples)
				assert.Equal(t, 45*time.Second, cfg.Fetch.Timeout)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "file overlay keeps defaults for absent keys",
			fileContent: `
study:
  event_date: 2021-04-03
  event_post_days: 40
inference:
  resamples: 1000
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "2021-04-03", cfg.Study.EventDate)
				assert.Equal(t, 40, cfg.Study.EventPostDays)
				assert.Equal(t, 1000, cfg.Inference.Resamples)
				// untouched by the file
				assert.Equal(t, 120, cfg.Study.EstimationDays)
				assert.Equal(t, 0.95, cfg.Inference.Confidence)
			},
		},
		{
			name: "environment overrides file",
			env: map[string]string{
				"SUEZ_INFERENCE_RESAMPLES": "2000",
			},
			fileContent: `
inference:
  resamples: 1000
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2000, cfg.Inference.Resamples)
			},
		},
		{
			name:    "malformed event date",
			env:     map[string]string{"SUEZ_STUDY_EVENT_DATE": "23-03-2021"},
			wantErr: true,
			errType: apperrors.ErrTypeConfiguration,
		},
		{
			name:    "horizon beyond event window",
			env:     map[string]string{"SUEZ_STUDY_HORIZONS": "5,25"},
			wantErr: true,
			errType: apperrors.ErrTypeConfiguration,
		},
		{
			name:    "confidence out of range",
			env:     map[string]string{"SUEZ_INFERENCE_CONFIDENCE": "1.5"},
			wantErr: true,
			errType: apperrors.ErrTypeConfiguration,
		},
		{
			name:    "missing share must stay below one",
			env:     map[string]string{"SUEZ_STUDY_MAX_MISSING_SHARE": "1.0"},
			wantErr: true,
			errType: apperrors.ErrTypeConfiguration,
		},
		{
			name: "fetch start after end",
			env: map[string]string{
				"SUEZ_FETCH_START": "2021-07-01",
				"SUEZ_FETCH_END":   "2021-06-30",
			},
			wantErr: true,
			errType: apperrors.ErrTypeConfiguration,
		},
		{
			name:    "one-sided donut window",
			env:     map[string]string{"SUEZ_PANEL_DONUT_START": "2021-03-20"},
			wantErr: true,
			errType: apperrors.ErrTypeConfiguration,
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"SUEZ_LOGGING_LEVEL": "verbose"},
			wantErr: true,
			errType: apperrors.ErrTypeConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			configFile := ""
			if tt.fileContent != "" {
				configFile = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.fileContent), 0644))
			}

			cfg, err := Load(configFile)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errType != "" {
					assert.True(t, apperrors.IsType(err, tt.errType),
						"expected %s, got: %v", tt.errType, err)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

// TestLoadFileErrors tests file loading failure modes.
func TestLoadFileErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.True(t, apperrors.IsConfiguration(err))
	})

	t.Run("invalid YAML syntax", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("study: [unclosed"), 0644))

		_, err := Load(configFile)
		require.Error(t, err)
		assert.True(t, apperrors.IsConfiguration(err))
	})

	t.Run("wrong scalar type", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("study:\n  estimation_days: many\n"), 0644))

		_, err := Load(configFile)
		require.Error(t, err)
	})
}

// TestFindConfigFile tests the default search locations.
func TestFindConfigFile(t *testing.T) {
	chdir := func(t *testing.T, dir string) {
		original, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { os.Chdir(original) })
	}

	t.Run("no config file exists", func(t *testing.T) {
		chdir(t, t.TempDir())
		assert.Empty(t, findConfigFile())
	})

	t.Run("config file in current directory", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{}"), 0644))

		assert.Equal(t, "config.yaml", findConfigFile())
	})

	t.Run("config file in configs directory", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), []byte("{}"), 0644))

		assert.Equal(t, "configs/config.yaml", findConfigFile())
	})
}

// TestStudyConfigDate tests event date parsing.
func TestStudyConfigDate(t *testing.T) {
	s := StudyConfig{EventDate: "2021-03-23"}
	d, err := s.Date()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 3, 23, 0, 0, 0, 0, time.UTC), d)

	s.EventDate = "not-a-date"
	_, err = s.Date()
	assert.Error(t, err)
}

// TestStudyConfigEvents tests the labelled event list.
func TestStudyConfigEvents(t *testing.T) {
	s := StudyConfig{EventDate: "2021-03-23", RefloatDate: "2021-03-29"}
	events, err := s.Events()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventLabelBlockage, events[0].Label)
	assert.Equal(t, time.Date(2021, 3, 23, 0, 0, 0, 0, time.UTC), events[0].Date)
	assert.Equal(t, EventLabelRefloat, events[1].Label)
	assert.Equal(t, time.Date(2021, 3, 29, 0, 0, 0, 0, time.UTC), events[1].Date)

	s.RefloatDate = ""
	events, err = s.Events()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventLabelBlockage, events[0].Label)

	s.RefloatDate = "29-03-2021"
	_, err = s.Events()
	assert.Error(t, err)
}

// TestFetchConfigWindow tests fetch range parsing.
func TestFetchConfigWindow(t *testing.T) {
	f := FetchConfig{Start: "2020-06-01", End: "2021-06-30"}
	start, end, err := f.Window()
	require.NoError(t, err)
	assert.True(t, start.Before(end))
	assert.Equal(t, 2020, start.Year())
	assert.Equal(t, time.June, end.Month())
}

// TestValidateEdgeCases tests boundary values the tags allow.
func TestValidateEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:   "horizon equal to window end",
			mutate: func(c *Config) { c.Study.Horizons = []int{20} },
		},
		{
			name:    "empty horizons",
			mutate:  func(c *Config) { c.Study.Horizons = nil },
			wantErr: true,
		},
		{
			name:    "negative horizon",
			mutate:  func(c *Config) { c.Study.Horizons = []int{-1} },
			wantErr: true,
		},
		{
			name:    "min observations below two",
			mutate:  func(c *Config) { c.Study.MinObservations = 1 },
			wantErr: true,
		},
		{
			name:   "zero missing share allowed",
			mutate: func(c *Config) { c.Study.MaxMissingShare = 0 },
		},
		{
			name: "complete donut window",
			mutate: func(c *Config) {
				c.Panel.DonutStart = "2021-03-20"
				c.Panel.DonutEnd = "2021-03-26"
			},
		},
		{
			name: "inverted donut window",
			mutate: func(c *Config) {
				c.Panel.DonutStart = "2021-03-26"
				c.Panel.DonutEnd = "2021-03-20"
			},
			wantErr: true,
		},
		{
			name:    "zero fetch rate",
			mutate:  func(c *Config) { c.Fetch.RatePerSec = 0 },
			wantErr: true,
		},
		{
			name:    "bad tracing exporter",
			mutate:  func(c *Config) { c.Tracing.Exporter = "jaeger" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsConfiguration(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestResolvePaths tests directory resolution against the base dir.
func TestResolvePaths(t *testing.T) {
	t.Run("relative dirs join the base", func(t *testing.T) {
		base := t.TempDir()
		paths, err := ResolvePaths(PathsConfig{
			BaseDir:    base,
			RawDataDir: "data/raw",
			TablesDir:  "results/tables",
			ReportsDir: "results/reports",
			CacheDir:   "data/cache",
			LogsDir:    "logs",
		})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(base, "data", "raw"), paths.RawDataDir)
		assert.Equal(t, filepath.Join(base, "results", "tables"), paths.TablesDir)
		assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)
	})

	t.Run("absolute dirs pass through", func(t *testing.T) {
		abs := t.TempDir()
		paths, err := ResolvePaths(PathsConfig{
			BaseDir:    ".",
			RawDataDir: abs,
			TablesDir:  "results/tables",
			ReportsDir: "results/reports",
			CacheDir:   "data/cache",
			LogsDir:    "logs",
		})
		require.NoError(t, err)
		assert.Equal(t, abs, paths.RawDataDir)
	})

	t.Run("empty base dir falls back to cwd", func(t *testing.T) {
		paths, err := ResolvePaths(PathsConfig{
			RawDataDir: "data/raw",
			TablesDir:  "t",
			ReportsDir: "r",
			CacheDir:   "c",
			LogsDir:    "l",
		})
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(paths.RawDataDir))
	})
}

// TestEnsureDirectories tests directory creation.
func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths, err := ResolvePaths(PathsConfig{
		BaseDir:    base,
		RawDataDir: "data/raw",
		TablesDir:  "results/tables",
		ReportsDir: "results/reports",
		CacheDir:   "data/cache",
		LogsDir:    "logs",
	})
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.RawDataDir, paths.TablesDir, paths.ReportsDir, paths.CacheDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

// TestPathHelpers tests the well-known file locations.
func TestPathHelpers(t *testing.T) {
	paths := &Paths{
		RawDataDir: "/base/data/raw",
		TablesDir:  "/base/results/tables",
		ReportsDir: "/base/results/reports",
		CacheDir:   "/base/data/cache",
		LogsDir:    "/base/logs",
	}

	assert.Equal(t, "/base/data/raw/merged_market_daily.csv", paths.MergedDailyCSV())
	assert.Equal(t, "/base/data/raw/ticker_sectors.csv", paths.TickerSectorsCSV())
	assert.Equal(t, "/base/results/tables/event_study_summary_2021-03-23.csv",
		paths.SummaryCSV("2021-03-23"))
	assert.Equal(t, "/base/results/tables/event_study_panel_2021-03-23.csv",
		paths.PanelCSV("2021-03-23"))
	assert.Equal(t, "/base/results/reports/run_report_2021-03-23.json",
		paths.RunReportJSON("2021-03-23"))
	assert.Equal(t, "/base/results/reports/event_study_2021-03-23.xlsx",
		paths.WorkbookXLSX("2021-03-23"))
	assert.Equal(t, "/base/data/cache/chart.json", paths.CachePath("chart.json"))
	assert.Equal(t, "/base/logs/study.log", paths.LogPath("study.log"))
}

// TestFileExists tests the existence helper.
func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "absent.csv")))
}
