package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunReport(t *testing.T) {
	requested := time.Date(2021, 3, 23, 0, 0, 0, 0, time.UTC)
	r := NewRunReport("blockage", requested)

	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err, "run ID must be a valid UUID")
	assert.Equal(t, "blockage", r.Label)
	assert.Equal(t, requested, r.RequestedDate)
	assert.False(t, r.StartedAt.IsZero())
	assert.True(t, r.CompletedAt.IsZero())
}

func TestRunReportOutcomes(t *testing.T) {
	r := NewRunReport("blockage", time.Date(2021, 3, 23, 0, 0, 0, 0, time.UTC))

	r.Include("RELIANCE.NS", "Energy")
	r.Exclude("UPL.NS", "Chemicals", "DATA_GAP", "covers 53 of 120 window observations")
	r.Include("TCS.NS", "IT")
	r.Exclude("SBIN.NS", "Finance", "INSUFFICIENT_DATA", "only 12 paired observations")
	r.Finish(4)

	assert.Equal(t, RunCounts{Universe: 4, Included: 2, Excluded: 2}, r.Counts)
	assert.Equal(t, []string{"UPL.NS", "SBIN.NS"}, r.ExcludedSymbols())
	assert.False(t, r.CompletedAt.IsZero())

	require.Len(t, r.Outcomes, 4)
	assert.Equal(t, TickerStatusIncluded, r.Outcomes[0].Status)
	assert.Equal(t, "DATA_GAP", r.Outcomes[1].ErrorType)
	assert.Empty(t, r.Outcomes[0].ErrorType, "included tickers carry no error")
}

func TestRunReportJSONRoundTrip(t *testing.T) {
	r := NewRunReport("refloat", time.Date(2021, 3, 29, 0, 0, 0, 0, time.UTC))
	r.AlignedDate = time.Date(2021, 3, 29, 0, 0, 0, 0, time.UTC)
	r.Exclude("UPL.NS", "Chemicals", "ALIGNMENT", "no overlap with benchmark calendar")
	r.Finish(1)

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var back RunReport
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, r.RunID, back.RunID)
	assert.Equal(t, r.Counts, back.Counts)
	require.Len(t, back.Outcomes, 1)
	assert.Equal(t, TickerStatusExcluded, back.Outcomes[0].Status)
}
