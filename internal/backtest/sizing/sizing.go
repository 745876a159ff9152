// Package sizing converts signals into order quantities. Sizers see the
// portfolio's equity and free cash plus the bar history, and return a share
// count; they never mutate portfolio state.
package sizing

import (
	"math"

	"github.com/rxtech-lab/argo-advisor/internal/indicator"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// Sizer decides how many shares an entry order should request.
type Sizer interface {
	// Size returns the share quantity for an entry at the given price.
	// A zero quantity means the entry is skipped.
	Size(equity, cash, price float64, series *types.BarSeries) (int64, error)
}

// FixedFraction invests a fixed fraction of current equity per entry,
// capped by free cash.
type FixedFraction struct {
	Fraction float64
}

// NewFixedFraction creates a fixed-fraction sizer. The fraction must be in
// (0, 1].
func NewFixedFraction(fraction float64) (*FixedFraction, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid sizer configuration",
			errors.NewParameterErrorf("fraction", fraction, "must be in (0, 1]"))
	}

	return &FixedFraction{Fraction: fraction}, nil
}

// Size implements Sizer.
func (s *FixedFraction) Size(equity, cash, price float64, series *types.BarSeries) (int64, error) {
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeSizingFailed, "non-positive price %v", price)
	}

	budget := equity * s.Fraction
	if cash < budget {
		budget = cash
	}

	return int64(math.Floor(budget / price)), nil
}

// ATRSizer risks a fixed fraction of equity per entry, with the per-share
// risk estimated as a multiple of the Average True Range:
//
//	quantity = (equity * risk_pct) / (ATR * multiplier)
//
// Volatile symbols therefore get smaller positions for the same equity.
type ATRSizer struct {
	Period     int
	RiskPct    float64
	Multiplier float64
}

// NewATRSizer creates an ATR-risk sizer with the given period, per-trade
// risk fraction and ATR stop multiplier.
func NewATRSizer(period int, riskPct, multiplier float64) (*ATRSizer, error) {
	if period <= 0 {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid sizer configuration",
			errors.NewParameterErrorf("period", period, "must be a positive integer"))
	}

	if riskPct <= 0 || riskPct > 1 {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid sizer configuration",
			errors.NewParameterErrorf("risk_pct", riskPct, "must be in (0, 1]"))
	}

	if multiplier <= 0 {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid sizer configuration",
			errors.NewParameterErrorf("multiplier", multiplier, "must be positive"))
	}

	return &ATRSizer{Period: period, RiskPct: riskPct, Multiplier: multiplier}, nil
}

// Size implements Sizer. When the series is too short for the ATR window it
// falls back to a zero quantity rather than failing the run.
func (s *ATRSizer) Size(equity, cash, price float64, series *types.BarSeries) (int64, error) {
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeSizingFailed, "non-positive price %v", price)
	}

	atr, err := indicator.ATR(series.Bars(), s.Period)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeInsufficientBars) {
			return 0, nil
		}

		return 0, errors.Wrap(errors.ErrCodeSizingFailed, "ATR computation failed", err)
	}

	if atr <= 0 {
		return 0, nil
	}

	quantity := int64(math.Floor((equity * s.RiskPct) / (atr * s.Multiplier)))

	affordable := int64(math.Floor(cash / price))
	if quantity > affordable {
		quantity = affordable
	}

	return quantity, nil
}
