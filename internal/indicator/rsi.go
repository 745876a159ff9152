package indicator

// RSI returns the Relative Strength Index of the closes using Wilder's
// smoothing. Values are in [0, 100]; 100 when there are no losses in the
// window, 50 when there are neither gains nor losses.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errInvalidPeriod("RSI", period)
	}

	if err := requireBars("RSI", len(closes), period+1); err != nil {
		return 0, err
	}

	var avgGain, avgLoss float64

	// Seed with the simple average of the first period deltas.
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remainder of the window.
	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]

		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}

		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs)), nil
}
