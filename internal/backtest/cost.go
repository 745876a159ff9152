package backtest

import (
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// SlippageModel adjusts an execution price adversely to the trade side.
type SlippageModel interface {
	// Adjust returns the effective execution price for the given side.
	Adjust(price float64, buy bool) float64
}

// CommissionModel charges a fee on a fill's gross notional.
type CommissionModel interface {
	// Fee returns the commission charged for the given notional.
	Fee(notional float64) float64
}

// PercentSlippage moves the price a fixed fraction against the trade: buys
// pay more, sells receive less.
type PercentSlippage struct {
	Pct float64
}

// NewPercentSlippage creates a fixed-percentage slippage model.
func NewPercentSlippage(pct float64) (*PercentSlippage, error) {
	if pct < 0 || pct >= 1 {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid slippage configuration",
			errors.NewParameterErrorf("slippage_pct", pct, "must be in [0, 1)"))
	}

	return &PercentSlippage{Pct: pct}, nil
}

// Adjust implements SlippageModel.
func (s *PercentSlippage) Adjust(price float64, buy bool) float64 {
	if buy {
		return price * (1 + s.Pct)
	}

	return price * (1 - s.Pct)
}

// PercentCommission charges a fixed fraction of notional per fill.
type PercentCommission struct {
	Rate float64
}

// NewPercentCommission creates a fixed-rate commission model.
func NewPercentCommission(rate float64) (*PercentCommission, error) {
	if rate < 0 || rate >= 1 {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid commission configuration",
			errors.NewParameterErrorf("commission_rate", rate, "must be in [0, 1)"))
	}

	return &PercentCommission{Rate: rate}, nil
}

// Fee implements CommissionModel.
func (c *PercentCommission) Fee(notional float64) float64 {
	return notional * c.Rate
}
