package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-advisor/internal/indicator"
	"github.com/rxtech-lab/argo-advisor/internal/types"
)

type wheelPhase int

const (
	wheelPhasePut wheelPhase = iota
	wheelPhaseCall
)

// Wheel approximates the cash-secured-put / covered-call wheel on daily
// bars. In the put phase it anchors a reference price and models put
// assignment as buying 100-share lots once price dips a fixed percentage
// below the anchor. In the call phase it models call assignment as selling
// once price rallies the same percentage above cost.
type Wheel struct {
	smaPeriod int
	otmPct    float64

	phase    wheelPhase
	refPrice float64
}

// WheelDefinition returns the registry definition for the wheel strategy.
func WheelDefinition() Definition {
	return Definition{
		Key:     "wheel",
		Family:  FamilyOptions,
		Version: "1.0.0",
		Description: "Wheel strategy cycling cash-secured puts and covered calls: " +
			"sells puts 5% below the market and takes assignment of 100-share " +
			"lots on a dip, then sells calls 5% above cost and lets the shares " +
			"get called away on a rally.",
		Params: []ParamSpec{
			{Name: "sma_period", Default: 50, Min: 3, Max: 300, Integer: true},
			{Name: "otm_pct", Default: 0.05, Min: 0.01, Max: 0.5},
		},
		New: func(params Params) (Strategy, error) {
			return &Wheel{
				smaPeriod: params.Int("sma_period", 50),
				otmPct:    params.Get("otm_pct", 0.05),
			}, nil
		},
	}
}

func (s *Wheel) Key() string    { return "wheel" }
func (s *Wheel) Family() Family { return FamilyOptions }
func (s *Wheel) Warmup() int    { return s.smaPeriod }

func (s *Wheel) Next(series *types.BarSeries) (types.Signal, error) {
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

	if s.phase == wheelPhasePut {
		// Anchor the put strike to the most recent close while waiting;
		// assignment triggers once price dips to the strike.
		if s.refPrice == 0 || bar.Close > s.refPrice {
			s.refPrice = bar.Close
		}

		strike := s.refPrice * (1 - s.otmPct)
		metadata["strike"] = strike

		if bar.Close <= strike && bar.Close > sma*(1-2*s.otmPct) {
			s.phase = wheelPhaseCall
			s.refPrice = bar.Close

			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionLong,
				Strength:  1.0,
				Reason:    fmt.Sprintf("put assigned: price %.2f dipped to strike %.2f, taking shares", bar.Close, strike),
				Metadata:  metadata,
			}, nil
		}

		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionFlat,
			Reason:    "collecting put premium, waiting for assignment",
			Metadata:  metadata,
		}, nil
	}

	strike := s.refPrice * (1 + s.otmPct)
	metadata["strike"] = strike

	if bar.Close >= strike {
		s.phase = wheelPhasePut
		s.refPrice = 0

		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionExit,
			Strength:  1.0,
			Reason:    fmt.Sprintf("call assigned: price %.2f reached strike %.2f, shares called away", bar.Close, strike),
			Metadata:  metadata,
		}, nil
	}

	return types.Signal{
		Time:      bar.Time,
		Direction: types.DirectionFlat,
		Reason:    "holding assigned shares against short call",
		Metadata:  metadata,
	}, nil
}
