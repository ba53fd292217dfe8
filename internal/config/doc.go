// Package config provides centralized configuration management for the
// event study pipeline. It handles loading configuration from multiple
// sources, validation, and a type-safe API for accessing configuration
// values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Built-in study defaults (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SUEZ_* for namespacing:
//
//	SUEZ_STUDY_EVENT_DATE=2021-03-23
//	SUEZ_STUDY_ESTIMATION_DAYS=120
//	SUEZ_INFERENCE_RESAMPLES=3000
//	SUEZ_FETCH_START=2020-06-01
//	SUEZ_LOGGING_LEVEL=info
//
// # Path Management
//
// The package provides centralized path management through the Paths
// type, which resolves the run layout against a configurable base
// directory:
//
//	paths, err := config.ResolvePaths(cfg.Paths)
//	summary := paths.SummaryCSV("2021-03-23")
//	raw := paths.RawDataPath("merged_market_daily.csv")
//
// # Universe
//
// The instrument universe (benchmark, macro series, equity tickers,
// sector assignments, exposure buckets) ships with a built-in NIFTY 50
// definition and can be replaced with a YAML file:
//
//	universe, err := config.LoadUniverse(cfg.Paths.UniverseFile)
//	group := universe.GroupOf("TATASTEEL.NS") // Treated
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
