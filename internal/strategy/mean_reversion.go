package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-advisor/internal/indicator"
	"github.com/rxtech-lab/argo-advisor/internal/types"
)

// MeanReversion enters when RSI is deeply oversold, price sits more than a
// configurable multiple of ATR below the EMA, and volume spikes. It exits
// when price reverts back to the EMA. Designed for short 3-7 day bounce
// trades in beaten-down names without requiring an intact uptrend.
type MeanReversion struct {
	rsiPeriod         int
	rsiThreshold      float64
	emaPeriod         int
	atrPeriod         int
	atrMultiplier     float64
	volumeAvgPeriod   int
	volumeSpikeFactor float64
}

// MeanReversionDefinition returns the registry definition for the mean
// reversion strategy.
func MeanReversionDefinition() Definition {
	return Definition{
		Key:     "mean_reversion",
		Family:  FamilyEquity,
		Version: "1.0.0",
		Description: "Mean reversion strategy that enters when RSI(14) is deeply oversold " +
			"(<25), price is more than 2*ATR(14) below the 20 EMA, and volume " +
			"spikes above 1.5x the 20-day average. Exits when price reverts back " +
			"to the 20 EMA.",
		Params: []ParamSpec{
			{Name: "rsi_period", Default: 14, Min: 2, Max: 100, Integer: true},
			{Name: "rsi_threshold", Default: 25, Min: 1, Max: 50},
			{Name: "ema_period", Default: 20, Min: 2, Max: 200, Integer: true},
			{Name: "atr_period", Default: 14, Min: 2, Max: 100, Integer: true},
			{Name: "atr_multiplier", Default: 2.0, Min: 0.1, Max: 10.0},
			{Name: "volume_avg_period", Default: 20, Min: 2, Max: 200, Integer: true},
			{Name: "volume_spike_factor", Default: 1.5, Min: 1.0, Max: 10.0},
		},
		New: func(params Params) (Strategy, error) {
			return &MeanReversion{
				rsiPeriod:         params.Int("rsi_period", 14),
				rsiThreshold:      params.Get("rsi_threshold", 25),
				emaPeriod:         params.Int("ema_period", 20),
				atrPeriod:         params.Int("atr_period", 14),
				atrMultiplier:     params.Get("atr_multiplier", 2.0),
				volumeAvgPeriod:   params.Int("volume_avg_period", 20),
				volumeSpikeFactor: params.Get("volume_spike_factor", 1.5),
			}, nil
		},
	}
}

func (s *MeanReversion) Key() string    { return "mean_reversion" }
func (s *MeanReversion) Family() Family { return FamilyEquity }

func (s *MeanReversion) Warmup() int {
	warmup := s.rsiPeriod + 1
	if s.emaPeriod > warmup {
		warmup = s.emaPeriod
	}

	if s.atrPeriod+1 > warmup {
		warmup = s.atrPeriod + 1
	}

	if s.volumeAvgPeriod > warmup {
		warmup = s.volumeAvgPeriod
	}

	return warmup
}

func (s *MeanReversion) Next(series *types.BarSeries) (types.Signal, error) {
	closes := series.Closes()
	bar := series.Last()

	rsi, err := indicator.RSI(closes, s.rsiPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	ema, err := indicator.EMA(closes, s.emaPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	atr, err := indicator.ATR(series.Bars(), s.atrPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	volAvg, err := indicator.SMA(series.Volumes(), s.volumeAvgPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	metadata := map[string]float64{
		"rsi": rsi,
		"ema": ema,
		"atr": atr,
	}

	priceBelowEMA := ema - bar.Close
	oversoldStretch := atr > 0 && priceBelowEMA > s.atrMultiplier*atr
	volumeSpike := volAvg > 0 && bar.Volume > s.volumeSpikeFactor*volAvg

	switch {
	case rsi < s.rsiThreshold && oversoldStretch && volumeSpike:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionLong,
			Strength:  1.0,
			Reason: fmt.Sprintf("oversold bounce setup: RSI %.1f, %.2f below EMA(%d) on volume spike",
				rsi, priceBelowEMA, s.emaPeriod),
			Metadata: metadata,
		}, nil
	case bar.Close >= ema:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionExit,
			Strength:  1.0,
			Reason:    fmt.Sprintf("price %.2f reverted to EMA(%d) %.2f", bar.Close, s.emaPeriod, ema),
			Metadata:  metadata,
		}, nil
	default:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionFlat,
			Reason:    "no reversion setup",
			Metadata:  metadata,
		}, nil
	}
}
