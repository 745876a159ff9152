package indicator

// SMA returns the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if err := requireBars("SMA", len(values), period); err != nil {
		return 0, err
	}

	if period <= 0 {
		return 0, errInvalidPeriod("SMA", period)
	}

	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}

	return sum / float64(period), nil
}
