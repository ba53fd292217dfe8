package eventstudy

import (
	"fmt"
	"sort"
	"time"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
)

// EventSpec is the complete geometry of one event study: the
// requested event date plus the estimation and event windows as
// inclusive trading-day offsets relative to the aligned event index.
// With the default 120/21/5/20 configuration the estimation window is
// [-141, -22] and the event window [-5, +20].
type EventSpec struct {
	Label           string
	EventDate       time.Time
	EstFrom, EstTo  int
	EvtFrom, EvtTo  int
	Horizons        []int
	MinObservations int
	MaxMissingShare float64
}

// NewEventSpec derives the window offsets for one labelled event and
// validates the geometry. Invalid geometry is a configuration failure
// raised before any data is touched.
func NewEventSpec(event config.StudyEvent, cfg config.StudyConfig) (*EventSpec, error) {
	spec := &EventSpec{
		Label:           event.Label,
		EventDate:       marketdata.Normalize(event.Date),
		EstFrom:         -(cfg.EstimationDays + cfg.GapDays),
		EstTo:           -(cfg.GapDays + 1),
		EvtFrom:         -cfg.EventPreDays,
		EvtTo:           cfg.EventPostDays,
		Horizons:        append([]int(nil), cfg.Horizons...),
		MinObservations: cfg.MinObservations,
		MaxMissingShare: cfg.MaxMissingShare,
	}
	sort.Ints(spec.Horizons)

	if cfg.EstimationDays < 2 {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("estimation window of %d days cannot identify alpha and beta", cfg.EstimationDays), nil)
	}
	if spec.EstTo >= spec.EvtFrom {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("estimation window ends at offset %+d, inside the event window starting at %+d; increase gap_days",
				spec.EstTo, spec.EvtFrom), nil)
	}
	if len(spec.Horizons) == 0 {
		return nil, apperrors.NewConfigurationError("no CAR horizons configured", nil)
	}
	for i, k := range spec.Horizons {
		if k < 0 {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("negative CAR horizon %d", k), nil)
		}
		if k > spec.EvtTo {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("CAR horizon %d exceeds the event window end %+d", k, spec.EvtTo), nil)
		}
		if i > 0 && spec.Horizons[i-1] == k {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("duplicate CAR horizon %d", k), nil)
		}
	}
	if spec.MaxMissingShare < 0 || spec.MaxMissingShare >= 1 {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("max missing share %.2f must be in [0, 1)", spec.MaxMissingShare), nil)
	}
	return spec, nil
}

// MaxHorizon returns the longest configured horizon; the summary
// table sorts on it.
func (s *EventSpec) MaxHorizon() int {
	return s.Horizons[len(s.Horizons)-1]
}

// Anchored is an EventSpec resolved against a trading calendar: the
// requested event date aligned forward to the first trading date at
// or equal to it, and both windows as absolute calendar indices.
type Anchored struct {
	Spec         *EventSpec
	Cal          *marketdata.TradingCalendar
	EventIndex   int
	AlignedDate  time.Time
	EstLo, EstHi int
	EvtLo, EvtHi int
}

// Anchor aligns the event date on the calendar and verifies both
// windows fit inside it. Windows that leave the calendar abort the
// run; they are never clamped to the available data.
func (s *EventSpec) Anchor(cal *marketdata.TradingCalendar) (*Anchored, error) {
	idx, err := cal.AlignForward(s.EventDate)
	if err != nil {
		return nil, err
	}
	// The estimation start is the earliest offset and the event end
	// the latest; if both resolve, every offset between them does.
	if _, err := cal.OffsetDate(idx, s.EstFrom); err != nil {
		return nil, err
	}
	if _, err := cal.OffsetDate(idx, s.EvtTo); err != nil {
		return nil, err
	}
	return &Anchored{
		Spec:        s,
		Cal:         cal,
		EventIndex:  idx,
		AlignedDate: cal.Date(idx),
		EstLo:       idx + s.EstFrom,
		EstHi:       idx + s.EstTo,
		EvtLo:       idx + s.EvtFrom,
		EvtHi:       idx + s.EvtTo,
	}, nil
}
