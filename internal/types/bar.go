package types

import (
	"time"

	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// Bar is one OHLCV observation for a fixed time interval.
type Bar struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// BarSeries is an immutable, time-ordered OHLCV sequence for one symbol.
// Timestamps are strictly increasing. Gaps are opaque to the series: the
// upstream data provider owns the gap policy and the series never
// interpolates.
type BarSeries struct {
	symbol string
	bars   []Bar
}

// NewBarSeries validates ordering and returns an immutable series.
// Returns ErrCodeInvalidBarSeries when timestamps are not strictly
// increasing, and ErrCodeNoData for an empty slice.
func NewBarSeries(symbol string, bars []Bar) (*BarSeries, error) {
	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoData, "empty bar series for symbol %s", symbol)
	}

	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeInvalidBarSeries,
				"bar series for %s is not strictly increasing at index %d (%s >= %s)",
				symbol, i, bars[i-1].Time.Format(time.RFC3339), bars[i].Time.Format(time.RFC3339))
		}
	}

	copied := make([]Bar, len(bars))
	copy(copied, bars)

	return &BarSeries{symbol: symbol, bars: copied}, nil
}

// Symbol returns the symbol this series belongs to.
func (s *BarSeries) Symbol() string {
	return s.symbol
}

// Len returns the number of bars in the series.
func (s *BarSeries) Len() int {
	return len(s.bars)
}

// At returns the bar at index i. Panics on out-of-range access, matching
// slice semantics.
func (s *BarSeries) At(i int) Bar {
	return s.bars[i]
}

// Last returns the most recent bar in the series.
func (s *BarSeries) Last() Bar {
	return s.bars[len(s.bars)-1]
}

// First returns the oldest bar in the series.
func (s *BarSeries) First() Bar {
	return s.bars[0]
}

// Prefix returns the sub-series containing bars [0, end). The returned
// series shares the backing array; it is safe because bars are never
// mutated after construction.
func (s *BarSeries) Prefix(end int) *BarSeries {
	return &BarSeries{symbol: s.symbol, bars: s.bars[:end]}
}

// Slice returns the sub-series containing bars [start, end).
func (s *BarSeries) Slice(start, end int) *BarSeries {
	return &BarSeries{symbol: s.symbol, bars: s.bars[start:end]}
}

// Bars returns a copy of the underlying bars.
func (s *BarSeries) Bars() []Bar {
	copied := make([]Bar, len(s.bars))
	copy(copied, s.bars)

	return copied
}

// Closes returns the close prices of all bars in order.
func (s *BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		closes[i] = b.Close
	}

	return closes
}

// Volumes returns the volumes of all bars in order.
func (s *BarSeries) Volumes() []float64 {
	volumes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		volumes[i] = b.Volume
	}

	return volumes
}
