package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
)

// Group classifies a sector's expected exposure to the canal blockage.
type Group string

const (
	GroupTreated   Group = "Treated"
	GroupDefensive Group = "Defensive"
	GroupOther     Group = "Other"
)

// Universe describes the instruments a run operates on: the benchmark
// index, the macro series, and the equity tickers with their curated
// sector assignments and exposure buckets.
type Universe struct {
	Benchmark        string            `yaml:"benchmark"`
	Macros           []string          `yaml:"macros"`
	Sectors          map[string]string `yaml:"sectors"`
	TreatedSectors   []string          `yaml:"treated_sectors"`
	DefensiveSectors []string          `yaml:"defensive_sectors"`
	HighExposure     []string          `yaml:"high_exposure"`

	treated   map[string]bool
	defensive map[string]bool
	exposed   map[string]bool
}

// LoadUniverse reads a universe definition from a YAML file, or
// returns the built-in NIFTY 50 universe when path is empty.
func LoadUniverse(path string) (*Universe, error) {
	if path == "" {
		return DefaultUniverse(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("failed to read universe file %s", path), err)
	}

	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("failed to parse universe file %s", path), err)
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &u, nil
}

// Validate checks the universe for internal consistency.
func (u *Universe) Validate() error {
	if u.Benchmark == "" {
		return apperrors.NewConfigurationError("universe benchmark symbol is required", nil)
	}
	if len(u.Sectors) == 0 {
		return apperrors.NewConfigurationError("universe has no equity tickers", nil)
	}

	u.buildIndexes()
	for sector := range u.treated {
		if u.defensive[sector] {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("sector %s is both treated and defensive", sector), nil)
		}
	}
	return nil
}

func (u *Universe) buildIndexes() {
	u.treated = make(map[string]bool, len(u.TreatedSectors))
	for _, s := range u.TreatedSectors {
		u.treated[s] = true
	}
	u.defensive = make(map[string]bool, len(u.DefensiveSectors))
	for _, s := range u.DefensiveSectors {
		u.defensive[s] = true
	}
	u.exposed = make(map[string]bool, len(u.HighExposure))
	for _, t := range u.HighExposure {
		u.exposed[t] = true
	}
}

// EquitySymbols returns the equity tickers in sorted order.
func (u *Universe) EquitySymbols() []string {
	symbols := make([]string, 0, len(u.Sectors))
	for symbol := range u.Sectors {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// AllSymbols returns the benchmark, macros, and equities, in fetch order.
func (u *Universe) AllSymbols() []string {
	symbols := make([]string, 0, 1+len(u.Macros)+len(u.Sectors))
	symbols = append(symbols, u.Benchmark)
	symbols = append(symbols, u.Macros...)
	symbols = append(symbols, u.EquitySymbols()...)
	return symbols
}

// SectorOf returns the curated sector for a ticker.
func (u *Universe) SectorOf(symbol string) (string, bool) {
	sector, ok := u.Sectors[symbol]
	return sector, ok
}

// GroupOfSector maps a sector name to its exposure group.
func (u *Universe) GroupOfSector(sector string) Group {
	if u.treated == nil {
		u.buildIndexes()
	}
	switch {
	case sector == "":
		return GroupOther
	case u.treated[sector]:
		return GroupTreated
	case u.defensive[sector]:
		return GroupDefensive
	default:
		return GroupOther
	}
}

// GroupOf maps a ticker to its exposure group via its sector.
func (u *Universe) GroupOf(symbol string) Group {
	sector, ok := u.SectorOf(symbol)
	if !ok {
		return GroupOther
	}
	return u.GroupOfSector(sector)
}

// IsHighExposure reports whether the ticker carries direct shipping,
// oil import, or agri-chemical exposure to the canal route.
func (u *Universe) IsHighExposure(symbol string) bool {
	if u.exposed == nil {
		u.buildIndexes()
	}
	return u.exposed[symbol]
}

// DefaultUniverse returns the NIFTY 50 universe used for the March
// 2021 blockage study. Sector assignments are curated for the study:
// banks and NBFCs fold into Finance, TITAN is treated as defensive
// consumer, and L&T is classified with the infrastructure names.
func DefaultUniverse() *Universe {
	u := &Universe{
		Benchmark: BenchmarkSymbol,
		Macros:    []string{MacroBrent, MacroUSDINR, MacroIndiaVIX, MacroVIX},
		Sectors: map[string]string{
			// Energy / Oil & Gas
			"RELIANCE.NS": "Energy",
			"ONGC.NS":     "Energy",
			"IOC.NS":      "Energy",
			"BPCL.NS":     "Energy",

			// Metals / Mining
			"TATASTEEL.NS": "Metals",
			"JSWSTEEL.NS":  "Metals",
			"HINDALCO.NS":  "Metals",
			"COALINDIA.NS": "Metals",

			// Autos
			"MARUTI.NS":     "Autos",
			"M&M.NS":        "Autos",
			"TATAMOTORS.NS": "Autos",
			"BAJAJ-AUTO.NS": "Autos",
			"EICHERMOT.NS":  "Autos",
			"HEROMOTOCO.NS": "Autos",

			// Pharma
			"SUNPHARMA.NS": "Pharma",
			"DRREDDY.NS":   "Pharma",
			"CIPLA.NS":     "Pharma",
			"DIVISLAB.NS":  "Pharma",

			// FMCG / Consumer Staples
			"HINDUNILVR.NS": "FMCG",
			"ITC.NS":        "FMCG",
			"NESTLEIND.NS":  "FMCG",
			"BRITANNIA.NS":  "FMCG",
			"TATACONSUM.NS": "FMCG",
			"ASIANPAINT.NS": "FMCG",
			"TITAN.NS":      "Consumer",

			// IT
			"TCS.NS":     "IT",
			"INFY.NS":    "IT",
			"WIPRO.NS":   "IT",
			"HCLTECH.NS": "IT",
			"TECHM.NS":   "IT",

			// Telecom
			"BHARTIARTL.NS": "Telecom",

			// Cement / Building Materials
			"ULTRACEMCO.NS": "Cement",
			"SHREECEM.NS":   "Cement",
			"GRASIM.NS":     "Cement",

			// Chemicals / Agri
			"UPL.NS": "Chemicals",

			// Infrastructure / Ports / Capital Goods
			"ADANIPORTS.NS": "Infrastructure",
			"LT.NS":         "Infrastructure",

			// Utilities / Power
			"NTPC.NS":      "Utilities",
			"POWERGRID.NS": "Utilities",

			// Finance / Banks / NBFCs
			"HDFCBANK.NS":   "Finance",
			"ICICIBANK.NS":  "Finance",
			"KOTAKBANK.NS":  "Finance",
			"AXISBANK.NS":   "Finance",
			"SBIN.NS":       "Finance",
			"INDUSINDBK.NS": "Finance",
			"BAJFINANCE.NS": "Finance",
			"BAJAJFINSV.NS": "Finance",
		},
		TreatedSectors: []string{
			"Metals", "Energy", "Autos", "Infrastructure", "Chemicals",
		},
		DefensiveSectors: []string{
			"FMCG", "Pharma", "Utilities", "Telecom", "IT", "Cement",
			"Finance", "Banks", "Consumer",
		},
		HighExposure: []string{
			"SCI.NS", "PETRONET.NS", "BPCL.NS", "ONGC.NS", "IOC.NS",
			"CHAMBLFERT.NS", "GODREJAGRO.NS", "COROMANDEL.NS", "ADANIPORTS.NS",
		},
	}
	u.buildIndexes()
	return u
}
