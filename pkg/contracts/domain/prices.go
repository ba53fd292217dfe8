package domain

import (
	"math"
	"time"
)

// PriceBar represents one daily observation for a symbol. Only the
// adjusted close participates in return calculations; the remaining
// fields are kept for raw-data exports.
type PriceBar struct {
	Symbol   string    `json:"symbol" validate:"required"`
	Date     time.Time `json:"date"`
	Open     float64   `json:"open,omitempty"`
	High     float64   `json:"high,omitempty"`
	Low      float64   `json:"low,omitempty"`
	Close    float64   `json:"close" validate:"required,gt=0"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume,omitempty"`
}

// EffectiveClose returns the adjusted close when present, otherwise
// the raw close.
func (b PriceBar) EffectiveClose() float64 {
	if b.AdjClose > 0 {
		return b.AdjClose
	}
	return b.Close
}

// Instrument describes one row of the ticker metadata table.
type Instrument struct {
	Symbol        string `json:"ticker" validate:"required"`
	Sector        string `json:"sector" validate:"required"`
	Industry      string `json:"industry,omitempty"`
	ExposureGroup string `json:"exposure_group,omitempty"`
}

// Missing is the sentinel for absent observations in return and
// abnormal-return series. CSV exports render it as an empty cell.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether the value is the missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }
