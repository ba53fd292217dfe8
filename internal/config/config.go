package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Tracing    TracingConfig    `yaml:"tracing" envconfig:"TRACING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Fetch      FetchConfig      `yaml:"fetch" envconfig:"FETCH"`
	Study      StudyConfig      `yaml:"study" envconfig:"STUDY"`
	Inference  InferenceConfig  `yaml:"inference" envconfig:"INFERENCE"`
	Volatility VolatilityConfig `yaml:"volatility" envconfig:"VOLATILITY"`
	Panel      PanelConfig      `yaml:"panel" envconfig:"PANEL"`
	Linkages   LinkagesConfig   `yaml:"linkages" envconfig:"LINKAGES"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TracingConfig contains OpenTelemetry tracing configuration
type TracingConfig struct {
	Exporter    string  `yaml:"exporter" envconfig:"EXPORTER" validate:"oneof=stdout none"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	Environment string  `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// PathsConfig contains file system paths configuration.
// Relative directories are resolved against BaseDir.
type PathsConfig struct {
	BaseDir      string `yaml:"base_dir" envconfig:"BASE_DIR"`
	RawDataDir   string `yaml:"raw_data_dir" envconfig:"RAW_DATA_DIR" validate:"required"`
	TablesDir    string `yaml:"tables_dir" envconfig:"TABLES_DIR" validate:"required"`
	ReportsDir   string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	CacheDir     string `yaml:"cache_dir" envconfig:"CACHE_DIR" validate:"required"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	UniverseFile string `yaml:"universe_file" envconfig:"UNIVERSE_FILE"`
}

// FetchConfig controls the Yahoo Finance price download.
type FetchConfig struct {
	Start       string        `yaml:"start" envconfig:"START" validate:"required,datetime=2006-01-02"`
	End         string        `yaml:"end" envconfig:"END" validate:"required,datetime=2006-01-02"`
	Interval    string        `yaml:"interval" envconfig:"INTERVAL" validate:"oneof=1d 1wk 1mo"`
	BaseURL     string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	UserAgent   string        `yaml:"user_agent" envconfig:"USER_AGENT" validate:"required"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	RatePerSec  float64       `yaml:"rate_per_sec" envconfig:"RATE_PER_SEC" validate:"gt=0"`
	Burst       int           `yaml:"burst" envconfig:"BURST" validate:"min=1"`
	Concurrency int           `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1"`
}

// Window returns the parsed fetch date range.
func (f FetchConfig) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, f.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(DateLayout, f.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// StudyConfig defines the event window geometry and data quality gates.
// All day counts are trading-day offsets on the benchmark calendar.
type StudyConfig struct {
	EventDate       string  `yaml:"event_date" envconfig:"EVENT_DATE" validate:"required,datetime=2006-01-02"`
	RefloatDate     string  `yaml:"refloat_date" envconfig:"REFLOAT_DATE" validate:"omitempty,datetime=2006-01-02"`
	EstimationDays  int     `yaml:"estimation_days" envconfig:"ESTIMATION_DAYS" validate:"min=2"`
	GapDays         int     `yaml:"gap_days" envconfig:"GAP_DAYS" validate:"min=0"`
	EventPreDays    int     `yaml:"event_pre_days" envconfig:"EVENT_PRE_DAYS" validate:"min=0"`
	EventPostDays   int     `yaml:"event_post_days" envconfig:"EVENT_POST_DAYS" validate:"min=1"`
	Horizons        []int   `yaml:"horizons" envconfig:"HORIZONS" validate:"min=1,dive,min=0"`
	MinObservations int     `yaml:"min_observations" envconfig:"MIN_OBSERVATIONS" validate:"min=2"`
	MaxMissingShare float64 `yaml:"max_missing_share" envconfig:"MAX_MISSING_SHARE" validate:"gte=0,lt=1"`
}

// Date returns the parsed requested event date.
func (s StudyConfig) Date() (time.Time, error) {
	return time.Parse(DateLayout, s.EventDate)
}

// StudyEvent is one labelled event date the study runs for.
type StudyEvent struct {
	Label string
	Date  time.Time
}

// Events returns the blockage event and, when a refloat date is
// configured, the refloat event. Each runs as an independent study.
func (s StudyConfig) Events() ([]StudyEvent, error) {
	date, err := s.Date()
	if err != nil {
		return nil, err
	}
	events := []StudyEvent{{Label: EventLabelBlockage, Date: date}}
	if s.RefloatDate != "" {
		refloat, err := time.Parse(DateLayout, s.RefloatDate)
		if err != nil {
			return nil, err
		}
		events = append(events, StudyEvent{Label: EventLabelRefloat, Date: refloat})
	}
	return events, nil
}

// InferenceConfig controls group aggregation and bootstrap inference.
type InferenceConfig struct {
	Resamples  int     `yaml:"resamples" envconfig:"RESAMPLES" validate:"min=1"`
	Confidence float64 `yaml:"confidence" envconfig:"CONFIDENCE" validate:"gt=0,lt=1"`
	Seed       uint64  `yaml:"seed" envconfig:"SEED"`
}

// VolatilityConfig controls the pre/post conditional volatility contrast.
type VolatilityConfig struct {
	MinSegmentObs int `yaml:"min_segment_obs" envconfig:"MIN_SEGMENT_OBS" validate:"min=2"`
}

// PanelConfig controls the DiD and triple-difference panel regressions.
// Pre/post spans are calendar days relative to the event date; the donut,
// when set, excludes rows with dates inside [DonutStart, DonutEnd].
type PanelConfig struct {
	DiDPreDays  int    `yaml:"did_pre_days" envconfig:"DID_PRE_DAYS" validate:"min=0"`
	DiDPostDays int    `yaml:"did_post_days" envconfig:"DID_POST_DAYS" validate:"min=0"`
	DDDPreDays  int    `yaml:"ddd_pre_days" envconfig:"DDD_PRE_DAYS" validate:"min=0"`
	DDDPostDays int    `yaml:"ddd_post_days" envconfig:"DDD_POST_DAYS" validate:"min=0"`
	DonutStart  string `yaml:"donut_start" envconfig:"DONUT_START" validate:"omitempty,datetime=2006-01-02"`
	DonutEnd    string `yaml:"donut_end" envconfig:"DONUT_END" validate:"omitempty,datetime=2006-01-02"`
}

// Donut returns the parsed exclusion range. ok reports whether a
// donut is configured at all; a half-configured or unparseable range
// is an error.
func (p PanelConfig) Donut() (start, end time.Time, ok bool, err error) {
	if p.DonutStart == "" && p.DonutEnd == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	start, err = time.Parse(DateLayout, p.DonutStart)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	end, err = time.Parse(DateLayout, p.DonutEnd)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return start, end, true, nil
}

// LinkagesConfig controls the macro shock windows for the global
// linkages cross-section (trading days averaged before and on/after
// the event date).
type LinkagesConfig struct {
	PreDays  int `yaml:"pre_days" envconfig:"PRE_DAYS" validate:"min=1"`
	PostDays int `yaml:"post_days" envconfig:"POST_DAYS" validate:"min=1"`
}

// Load loads configuration from defaults, an optional YAML file, and
// environment variables, in increasing order of precedence. An empty
// configFile falls back to searching the usual locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("failed to load config file %s", configFile), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to parse environment", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays YAML file values onto cfg. Absent keys leave
// the existing values untouched.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the first config file found in the usual locations.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // no config file, defaults plus env vars only
}

// newValidator builds the struct validator with yaml tag names so
// validation errors reference the keys users actually write.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate checks tag constraints plus the cross-field rules the tags
// cannot express.
func (c *Config) validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, ve := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", ve.Field(), ve.Tag()))
			}
			return apperrors.NewConfigurationError(
				fmt.Sprintf("invalid configuration: %s", strings.Join(fields, ", ")), nil)
		}
		return apperrors.NewConfigurationError("invalid configuration", err)
	}

	start, end, err := c.Fetch.Window()
	if err != nil {
		return apperrors.NewConfigurationError("invalid fetch window", err)
	}
	if !start.Before(end) {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("fetch start %s must precede end %s", c.Fetch.Start, c.Fetch.End), nil)
	}

	for _, k := range c.Study.Horizons {
		if k > c.Study.EventPostDays {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("horizon %d exceeds event window end +%d", k, c.Study.EventPostDays), nil)
		}
	}

	if (c.Panel.DonutStart == "") != (c.Panel.DonutEnd == "") {
		return apperrors.NewConfigurationError("donut window requires both start and end", nil)
	}
	if c.Panel.DonutStart != "" {
		ds, _ := time.Parse(DateLayout, c.Panel.DonutStart)
		de, _ := time.Parse(DateLayout, c.Panel.DonutEnd)
		if de.Before(ds) {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("donut end %s precedes start %s", c.Panel.DonutEnd, c.Panel.DonutStart), nil)
		}
	}

	return nil
}

// Default returns the configuration that reproduces the March 2021
// Suez blockage study out of the box.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFilePath,
		},
		Tracing: TracingConfig{
			Exporter:    DefaultTraceExporter,
			SampleRatio: 1.0,
			Environment: DefaultEnvironment,
		},
		Paths: PathsConfig{
			BaseDir:    ".",
			RawDataDir: DefaultRawDataDir,
			TablesDir:  DefaultTablesDir,
			ReportsDir: DefaultReportsDir,
			CacheDir:   DefaultCacheDir,
			LogsDir:    DefaultLogsDir,
		},
		Fetch: FetchConfig{
			Start:       DefaultFetchStart,
			End:         DefaultFetchEnd,
			Interval:    DefaultFetchInterval,
			BaseURL:     YahooChartBaseURL,
			UserAgent:   DefaultUserAgent,
			Timeout:     DefaultFetchTimeout,
			RatePerSec:  DefaultFetchRatePerSec,
			Burst:       DefaultFetchBurst,
			Concurrency: DefaultFetchConcurrency,
		},
		Study: StudyConfig{
			EventDate:       DefaultEventDate,
			RefloatDate:     DefaultRefloatDate,
			EstimationDays:  DefaultEstimationDays,
			GapDays:         DefaultGapDays,
			EventPreDays:    DefaultEventPreDays,
			EventPostDays:   DefaultEventPostDays,
			Horizons:        []int{DefaultHorizonShort, DefaultHorizonLong},
			MinObservations: DefaultMinObservations,
			MaxMissingShare: DefaultMaxMissingShare,
		},
		Inference: InferenceConfig{
			Resamples:  DefaultBootstrapResamples,
			Confidence: DefaultConfidenceLevel,
			Seed:       DefaultBootstrapSeed,
		},
		Volatility: VolatilityConfig{
			MinSegmentObs: DefaultMinSegmentObs,
		},
		Panel: PanelConfig{
			DiDPreDays:  DefaultDiDPreDays,
			DiDPostDays: DefaultDiDPostDays,
			DDDPreDays:  DefaultDDDPreDays,
			DDDPostDays: DefaultDDDPostDays,
		},
		Linkages: LinkagesConfig{
			PreDays:  DefaultLinkagePreDays,
			PostDays: DefaultLinkagePostDays,
		},
	}
}
