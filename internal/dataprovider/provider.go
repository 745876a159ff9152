// Package dataprovider supplies historical bar series and symbol metadata
// from pluggable backends: a DuckDB file store, the Polygon REST API, or a
// static in-memory fixture.
package dataprovider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// Interval identifies the bar aggregation window.
type Interval string

const (
	Interval1Min  Interval = "1m"
	Interval1Hour Interval = "1h"
	Interval1Day  Interval = "1d"
)

// ParseInterval validates an interval string from user input.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case Interval1Min, Interval1Hour, Interval1Day:
		return Interval(s), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter,
			"unknown interval %q, expected one of %s, %s, %s", s, Interval1Min, Interval1Hour, Interval1Day)
	}
}

// Metadata describes a symbol for screening: sector classification and the
// liquidity figures the market filters run on.
type Metadata struct {
	Symbol    string  `json:"symbol"    yaml:"symbol"`
	Name      string  `json:"name"      yaml:"name"`
	Sector    string  `json:"sector"    yaml:"sector"`
	MarketCap float64 `json:"market_cap" yaml:"market_cap"`
	AvgVolume float64 `json:"avg_volume" yaml:"avg_volume"`
}

// Provider serves historical bars and symbol metadata. Implementations
// return typed NoData errors when the requested range is empty so callers
// can distinguish missing data from backend faults.
type Provider interface {
	// GetBars returns the bar series for the symbol over [start, end),
	// ordered by strictly increasing timestamp.
	GetBars(ctx context.Context, symbol string, start, end time.Time, interval Interval) (*types.BarSeries, error)
	// GetMetadata returns screening metadata for the symbol.
	GetMetadata(ctx context.Context, symbol string) (Metadata, error)
}
