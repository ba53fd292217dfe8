package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/collector"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "path to config file (defaults to config.yaml search)")
	start := flag.String("start", "", "override fetch start date (YYYY-MM-DD)")
	end := flag.String("end", "", "override fetch end date (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFetchOverrides(&cfg.Fetch, *start, *end)

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create run directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	universe, err := config.LoadUniverse(cfg.Paths.UniverseFile)
	if err != nil {
		logger.Error("Failed to load universe", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := collector.NewClient(cfg.Fetch)
	c := collector.New(client, universe, cfg.Fetch, paths, logger)

	result, err := c.Run(ctx)
	if err != nil {
		logger.Error("Price collection failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("fetched %d of %d symbols into %s\n",
		len(result.Bars), len(universe.AllSymbols()), paths.RawDataDir)
	for _, symbol := range failedSymbols(result) {
		fmt.Printf("  failed %-14s %v\n", symbol, result.Failed[symbol])
	}
	if len(result.Failed) > 0 {
		os.Exit(1)
	}
}

// applyFetchOverrides folds the CLI date flags into the fetch config.
func applyFetchOverrides(fetch *config.FetchConfig, start, end string) {
	if start != "" {
		fetch.Start = start
	}
	if end != "" {
		fetch.End = end
	}
}

// failedSymbols returns the failed symbols in sorted order so the
// operator summary is stable across runs.
func failedSymbols(result *collector.Result) []string {
	symbols := make([]string, 0, len(result.Failed))
	for symbol := range result.Failed {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
