package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/collector"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
)

func TestApplyFetchOverrides(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantStart string
		wantEnd   string
	}{
		{
			name:      "no flags keep config",
			wantStart: config.Default().Fetch.Start,
			wantEnd:   config.Default().Fetch.End,
		},
		{
			name:      "start only",
			start:     "2021-01-04",
			wantStart: "2021-01-04",
			wantEnd:   config.Default().Fetch.End,
		},
		{
			name:      "both ends",
			start:     "2021-01-04",
			end:       "2021-06-30",
			wantStart: "2021-01-04",
			wantEnd:   "2021-06-30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetch := config.Default().Fetch
			applyFetchOverrides(&fetch, tt.start, tt.end)
			assert.Equal(t, tt.wantStart, fetch.Start)
			assert.Equal(t, tt.wantEnd, fetch.End)
		})
	}
}

func TestFailedSymbolsSorted(t *testing.T) {
	result := &collector.Result{
		Failed: map[string]error{
			"TCS.NS":      errors.New("status 404"),
			"ADANIPORTS.NS": errors.New("timeout"),
			"BZ=F":        errors.New("empty result"),
		},
	}

	assert.Equal(t, []string{"ADANIPORTS.NS", "BZ=F", "TCS.NS"}, failedSymbols(result))
}
