package strategy

import (
	"github.com/rxtech-lab/argo-advisor/internal/types"
)

// BuyAndHold enters on the first bar and never exits. It doubles as the
// passive benchmark other strategies are measured against.
type BuyAndHold struct {
	entered bool
}

// BuyAndHoldDefinition returns the registry definition for the buy-and-hold
// strategy.
func BuyAndHoldDefinition() Definition {
	return Definition{
		Key:         "buy_hold",
		Family:      FamilyEquity,
		Version:     "1.0.0",
		Description: "Passive benchmark that buys on the first bar and holds to the end.",
		New: func(params Params) (Strategy, error) {
			return &BuyAndHold{}, nil
		},
	}
}

func (s *BuyAndHold) Key() string    { return "buy_hold" }
func (s *BuyAndHold) Family() Family { return FamilyEquity }
func (s *BuyAndHold) Warmup() int    { return 1 }

func (s *BuyAndHold) Next(series *types.BarSeries) (types.Signal, error) {
	bar := series.Last()

	if s.entered {
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionFlat,
			Reason:    "holding",
		}, nil
	}

	s.entered = true

	return types.Signal{
		Time:      bar.Time,
		Direction: types.DirectionLong,
		Strength:  1.0,
		Reason:    "initial buy and hold entry",
	}, nil
}
