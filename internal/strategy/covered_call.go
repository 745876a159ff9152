package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-advisor/internal/indicator"
	"github.com/rxtech-lab/argo-advisor/internal/types"
)

// CoveredCall approximates a covered-call income cycle on daily bars. It
// buys the underlying in an uptrend and models call assignment by exiting
// once price rallies a fixed percentage above the entry reference, i.e. the
// short call's strike was reached. Trend loss closes the position early.
type CoveredCall struct {
	smaPeriod int
	otmPct    float64

	refPrice float64
}

// CoveredCallDefinition returns the registry definition for the covered
// call strategy.
func CoveredCallDefinition() Definition {
	return Definition{
		Key:     "covered_call",
		Family:  FamilyOptions,
		Version: "1.0.0",
		Description: "Covered call income strategy: buys 100-share lots of the " +
			"underlying in an uptrend and sells out-of-the-money calls 5% above " +
			"the entry price. Assignment is modeled as an exit when price reaches " +
			"the strike; a close below the trend SMA exits early.",
		Params: []ParamSpec{
			{Name: "sma_period", Default: 50, Min: 3, Max: 300, Integer: true},
			{Name: "otm_pct", Default: 0.05, Min: 0.01, Max: 0.5},
		},
		New: func(params Params) (Strategy, error) {
			return &CoveredCall{
				smaPeriod: params.Int("sma_period", 50),
				otmPct:    params.Get("otm_pct", 0.05),
			}, nil
		},
	}
}

func (s *CoveredCall) Key() string    { return "covered_call" }
func (s *CoveredCall) Family() Family { return FamilyOptions }
func (s *CoveredCall) Warmup() int    { return s.smaPeriod }

func (s *CoveredCall) Next(series *types.BarSeries) (types.Signal, error) {
	closes := series.Closes()
	bar := series.Last()

	sma, err := indicator.SMA(closes, s.smaPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	metadata := map[string]float64{
		"sma":       sma,
		"ref_price": s.refPrice,
	}

	if s.refPrice > 0 {
		strike := s.refPrice * (1 + s.otmPct)
		metadata["strike"] = strike

		switch {
		case bar.Close >= strike:
			s.refPrice = 0

			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionExit,
				Strength:  1.0,
				Reason:    fmt.Sprintf("call assigned: price %.2f reached strike %.2f", bar.Close, strike),
				Metadata:  metadata,
			}, nil
		case bar.Close < sma:
			s.refPrice = 0

			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionExit,
				Strength:  1.0,
				Reason:    fmt.Sprintf("trend lost: price %.2f below SMA(%d) %.2f", bar.Close, s.smaPeriod, sma),
				Metadata:  metadata,
			}, nil
		default:
			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionFlat,
				Reason:    "holding shares against short call",
				Metadata:  metadata,
			}, nil
		}
	}

	if bar.Close > sma {
		s.refPrice = bar.Close

		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionLong,
			Strength:  1.0,
			Reason:    fmt.Sprintf("uptrend entry at %.2f, selling %.0f%% OTM call", bar.Close, s.otmPct*100),
			Metadata:  metadata,
		}, nil
	}

	return types.Signal{
		Time:      bar.Time,
		Direction: types.DirectionFlat,
		Reason:    "waiting for uptrend",
		Metadata:  metadata,
	}, nil
}
