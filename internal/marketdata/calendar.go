package marketdata

import (
	"fmt"
	"sort"
	"time"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
)

// Normalize truncates a timestamp to its UTC calendar date. All date
// arithmetic in the package runs on normalized values.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey returns the map key for a calendar date.
func DateKey(t time.Time) int64 {
	return Normalize(t).Unix()
}

// TradingCalendar is the sorted set of benchmark trading dates. Every
// window in the study is expressed as inclusive index offsets on this
// calendar, never as calendar-day arithmetic.
type TradingCalendar struct {
	dates []time.Time
	index map[int64]int
}

// NewTradingCalendar builds a calendar from benchmark trading dates.
// Input order does not matter; duplicates collapse.
func NewTradingCalendar(dates []time.Time) (*TradingCalendar, error) {
	if len(dates) == 0 {
		return nil, apperrors.NewConfigurationError("trading calendar has no dates", nil)
	}

	seen := make(map[int64]struct{}, len(dates))
	unique := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		n := Normalize(d)
		k := n.Unix()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, n)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].Before(unique[j]) })

	index := make(map[int64]int, len(unique))
	for i, d := range unique {
		index[d.Unix()] = i
	}
	return &TradingCalendar{dates: unique, index: index}, nil
}

// Len returns the number of trading dates.
func (c *TradingCalendar) Len() int { return len(c.dates) }

// Date returns the trading date at position i.
func (c *TradingCalendar) Date(i int) time.Time { return c.dates[i] }

// Dates returns a copy of all trading dates in ascending order.
func (c *TradingCalendar) Dates() []time.Time {
	out := make([]time.Time, len(c.dates))
	copy(out, c.dates)
	return out
}

// Index returns the position of an exact trading date.
func (c *TradingCalendar) Index(d time.Time) (int, bool) {
	i, ok := c.index[DateKey(d)]
	return i, ok
}

// Contains reports whether d is a trading date.
func (c *TradingCalendar) Contains(d time.Time) bool {
	_, ok := c.index[DateKey(d)]
	return ok
}

// Bounds returns the first and last trading dates.
func (c *TradingCalendar) Bounds() (time.Time, time.Time) {
	return c.dates[0], c.dates[len(c.dates)-1]
}

// AlignForward maps a requested date to the first trading date at or
// after it and returns that date's index. A request past the end of
// the calendar cannot anchor any window and is fatal for the run.
func (c *TradingCalendar) AlignForward(requested time.Time) (int, error) {
	want := Normalize(requested)
	i := sort.Search(len(c.dates), func(i int) bool {
		return !c.dates[i].Before(want)
	})
	if i == len(c.dates) {
		return 0, apperrors.NewConfigurationError(
			fmt.Sprintf("event date %s is after the last trading date %s",
				want.Format("2006-01-02"), c.dates[len(c.dates)-1].Format("2006-01-02")), nil)
	}
	return i, nil
}

// OffsetDate resolves an inclusive trading-day offset relative to an
// anchor index. Offsets that leave the calendar are rejected rather
// than clamped.
func (c *TradingCalendar) OffsetDate(anchor, offset int) (time.Time, error) {
	i := anchor + offset
	if i < 0 || i >= len(c.dates) {
		return time.Time{}, apperrors.NewConfigurationError(
			fmt.Sprintf("offset %+d from index %d leaves the calendar (0..%d)",
				offset, anchor, len(c.dates)-1), nil)
	}
	return c.dates[i], nil
}

// WindowDates returns the trading dates covering inclusive offsets
// [from, to] around the anchor index, in ascending order. Windows
// that extend beyond the calendar are a configuration failure; no
// silent truncation happens.
func (c *TradingCalendar) WindowDates(anchor, from, to int) ([]time.Time, error) {
	if from > to {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("window start offset %+d is after end offset %+d", from, to), nil)
	}
	lo := anchor + from
	hi := anchor + to
	if lo < 0 || hi >= len(c.dates) {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("window offsets [%+d, %+d] from index %d leave the calendar (0..%d)",
				from, to, anchor, len(c.dates)-1), nil)
	}
	out := make([]time.Time, 0, hi-lo+1)
	out = append(out, c.dates[lo:hi+1]...)
	return out, nil
}
