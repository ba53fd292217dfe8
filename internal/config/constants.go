package config

import "time"

// Application constants shared across the pipeline binaries
const (
	// Application Info
	AppName    = "suez-event-study"
	AppVersion = "1.0.0"

	// Environment variable namespace (SUEZ_STUDY_EVENT_DATE and friends)
	EnvPrefix = "SUEZ"

	// Date format for all user-facing dates and file suffixes
	DateLayout = "2006-01-02"
)

// Event window defaults. Trading-day counts on the benchmark calendar;
// the estimation window ends GapDays before the event to keep run-up
// noise out of the market model fit.
const (
	DefaultEventDate       = "2021-03-23"
	DefaultRefloatDate     = "2021-03-29"
	DefaultEstimationDays  = 120
	DefaultGapDays         = 21
	DefaultEventPreDays    = 5
	DefaultEventPostDays   = 20
	DefaultHorizonShort    = 5
	DefaultHorizonLong     = 10
	DefaultMinObservations = 30
	DefaultMaxMissingShare = 0.5
)

// Event labels used in logs, run reports, and output file names
const (
	EventLabelBlockage = "blockage"
	EventLabelRefloat  = "refloat"
)

// Inference defaults
const (
	DefaultBootstrapResamples = 3000
	DefaultConfidenceLevel    = 0.95
	DefaultBootstrapSeed      = 42
)

// Volatility contrast defaults
const (
	DefaultMinSegmentObs = 5
)

// Panel regression defaults (calendar days around the event date)
const (
	DefaultDiDPreDays  = 10
	DefaultDiDPostDays = 20
	DefaultDDDPreDays  = 10
	DefaultDDDPostDays = 40
)

// Global linkages defaults (trading days averaged per side of the event)
const (
	DefaultLinkagePreDays  = 5
	DefaultLinkagePostDays = 5
)

// Price download defaults. The fetch window starts well before the
// event so the full estimation window exists on the calendar.
const (
	DefaultFetchStart       = "2020-06-01"
	DefaultFetchEnd         = "2021-06-30"
	DefaultFetchInterval    = "1d"
	DefaultFetchTimeout     = 30 * time.Second
	DefaultFetchRatePerSec  = 2.0
	DefaultFetchBurst       = 1
	DefaultFetchConcurrency = 4

	YahooChartBaseURL = "https://query1.finance.yahoo.com"
	DefaultUserAgent  = "Mozilla/5.0"
)

// Market symbols
const (
	BenchmarkSymbol = "^NSEI" // NIFTY 50 index

	MacroBrent    = "BZ=F"      // Brent crude front-month future
	MacroUSDINR   = "INR=X"     // USD/INR spot
	MacroIndiaVIX = "^INDIAVIX" // NSE India VIX
	MacroVIX      = "^VIX"      // CBOE VIX
)

// File Paths (relative to the base directory)
const (
	DefaultRawDataDir = "data/raw"
	DefaultCacheDir   = "data/cache"
	DefaultTablesDir  = "results/tables"
	DefaultReportsDir = "results/reports"
	DefaultLogsDir    = "logs"
)

// Raw data file names
const (
	FileMergedDailyCSV   = "merged_market_daily.csv"
	FileTickerSectorsCSV = "ticker_sectors.csv"
	PatternSymbolCSV     = "prices_%s.csv" // per-symbol raw download
)

// Result table file names, keyed by event date
const (
	PatternSummaryCSV      = "event_study_summary_%s.csv"
	PatternPanelCSV        = "event_study_panel_%s.csv"
	PatternSectorMeanCSV   = "sector_avg_mean_%s.csv"
	PatternSectorMedianCSV = "sector_avg_median_%s.csv"
	PatternBootstrapCSV    = "bootstrap_ci_%s.csv"
	PatternSignificanceCSV = "significance_tests_%s.csv"
	PatternVolSummaryCSV   = "volatility_summary_%s.csv"
	PatternVolSectorCSV    = "volatility_sector_%s.csv"
	PatternVolGroupsCSV    = "volatility_groups_%s.csv"
	PatternDiDCSV          = "did_summary_%s.csv"
	PatternDDDCSV          = "ddd_summary_%s.csv"
	PatternLinkagesCSV     = "global_linkages_%s.csv"
	PatternRunReportJSON   = "run_report_%s.json"
	PatternWorkbookXLSX    = "event_study_%s.xlsx"
)

// Log Settings
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultLogOutput   = "both"
	DefaultLogFilePath = "logs/study.log"
)

// Tracing Settings
const (
	DefaultTraceExporter = "none"
	DefaultEnvironment   = "research"
)
