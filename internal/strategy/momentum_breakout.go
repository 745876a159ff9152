package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-advisor/internal/indicator"
	"github.com/rxtech-lab/argo-advisor/internal/types"
)

// MomentumBreakout buys when price breaks above the SMA with above-average
// volume confirmation and exits when price falls back below the SMA.
type MomentumBreakout struct {
	smaPeriod    int
	volumeFactor float64
}

// MomentumBreakoutDefinition returns the registry definition for the
// momentum breakout strategy.
func MomentumBreakoutDefinition() Definition {
	return Definition{
		Key:     "momentum_breakout",
		Family:  FamilyEquity,
		Version: "1.0.0",
		Description: "Momentum breakout strategy that buys when price breaks above " +
			"the 20-day SMA with above-average volume confirmation. " +
			"Exits when price falls back below the 20-day SMA.",
		Params: []ParamSpec{
			{Name: "sma_period", Default: 20, Min: 2, Max: 200, Integer: true},
			{Name: "volume_factor", Default: 1.5, Min: 1.0, Max: 10.0},
		},
		New: func(params Params) (Strategy, error) {
			return &MomentumBreakout{
				smaPeriod:    params.Int("sma_period", 20),
				volumeFactor: params.Get("volume_factor", 1.5),
			}, nil
		},
	}
}

func (s *MomentumBreakout) Key() string    { return "momentum_breakout" }
func (s *MomentumBreakout) Family() Family { return FamilyEquity }
func (s *MomentumBreakout) Warmup() int    { return s.smaPeriod + 1 }

func (s *MomentumBreakout) Next(series *types.BarSeries) (types.Signal, error) {
	closes := series.Closes()
	volumes := series.Volumes()
	bar := series.Last()

	sma, err := indicator.SMA(closes, s.smaPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	avgVolume, err := indicator.SMA(volumes, s.smaPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	volumeRatio := 0.0
	if avgVolume > 0 {
		volumeRatio = bar.Volume / avgVolume
	}

	metadata := map[string]float64{
		"sma":          sma,
		"volume_ratio": volumeRatio,
	}

	switch {
	case bar.Close > sma && volumeRatio > s.volumeFactor:
		// Scale conviction by how far the volume exceeds the threshold.
		strength := min(volumeRatio/(s.volumeFactor*2), 1.0)

		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionLong,
			Strength:  strength,
			Reason:    fmt.Sprintf("breakout above SMA(%d) %.2f with %.1fx volume", s.smaPeriod, sma, volumeRatio),
			Metadata:  metadata,
		}, nil
	case bar.Close < sma:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionExit,
			Strength:  1.0,
			Reason:    fmt.Sprintf("price %.2f dropped below SMA(%d) %.2f", bar.Close, s.smaPeriod, sma),
			Metadata:  metadata,
		}, nil
	default:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionFlat,
			Reason:    "no breakout",
			Metadata:  metadata,
		}, nil
	}
}
