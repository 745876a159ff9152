package indicator

import "github.com/rxtech-lab/argo-advisor/pkg/errors"

func errInvalidPeriod(name string, period int) error {
	return errors.Newf(errors.ErrCodeInvalidParameter,
		"%s period must be a positive integer, got %d", name, period)
}

// EMA returns the exponential moving average of the values, seeded with the
// SMA of the first period values and smoothed with alpha = 2/(period+1).
func EMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errInvalidPeriod("EMA", period)
	}

	if err := requireBars("EMA", len(values), period); err != nil {
		return 0, err
	}

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}

	ema := seed / float64(period)
	alpha := 2.0 / (float64(period) + 1.0)

	for _, v := range values[period:] {
		ema = alpha*v + (1-alpha)*ema
	}

	return ema, nil
}
