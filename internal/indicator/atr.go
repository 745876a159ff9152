package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-advisor/internal/types"
)

// TrueRange returns the true range of bar relative to the previous close.
func TrueRange(bar types.Bar, prevClose float64) float64 {
	return math.Max(
		math.Max(
			bar.High-bar.Low,
			math.Abs(bar.High-prevClose),
		),
		math.Abs(bar.Low-prevClose),
	)
}

// ATR returns the Average True Range over the last period bars as the
// simple mean of true ranges. Requires period+1 bars for the first
// previous close.
func ATR(bars []types.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, errInvalidPeriod("ATR", period)
	}

	if err := requireBars("ATR", len(bars), period+1); err != nil {
		return 0, err
	}

	var sum float64

	start := len(bars) - period
	for i := start; i < len(bars); i++ {
		sum += TrueRange(bars[i], bars[i-1].Close)
	}

	return sum / float64(period), nil
}
