package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-advisor/internal/indicator"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// SMACrossover buys on the golden cross (short SMA crossing above long SMA)
// and exits on the death cross.
type SMACrossover struct {
	shortPeriod int
	longPeriod  int
}

// SMACrossoverDefinition returns the registry definition for the SMA
// crossover strategy.
func SMACrossoverDefinition() Definition {
	return Definition{
		Key:     "sma_crossover",
		Family:  FamilyEquity,
		Version: "1.0.0",
		Description: "Momentum strategy using Simple Moving Average crossovers. " +
			"Buys on golden cross (short SMA crosses above long SMA) " +
			"and exits on death cross (short SMA crosses below long SMA).",
		Params: []ParamSpec{
			{Name: "short_period", Default: 20, Min: 2, Max: 200, Integer: true},
			{Name: "long_period", Default: 50, Min: 3, Max: 500, Integer: true},
		},
		New: func(params Params) (Strategy, error) {
			short := params.Int("short_period", 20)
			long := params.Int("long_period", 50)

			if short >= long {
				return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid crossover periods",
					errors.NewParameterErrorf("short_period", short, "must be less than long_period %d", long))
			}

			return &SMACrossover{shortPeriod: short, longPeriod: long}, nil
		},
	}
}

func (s *SMACrossover) Key() string    { return "sma_crossover" }
func (s *SMACrossover) Family() Family { return FamilyEquity }

// Warmup needs one extra bar so the previous-bar SMA pair exists for cross
// detection.
func (s *SMACrossover) Warmup() int { return s.longPeriod + 1 }

func (s *SMACrossover) Next(series *types.BarSeries) (types.Signal, error) {
	closes := series.Closes()
	bar := series.Last()

	shortNow, err := indicator.SMA(closes, s.shortPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	longNow, err := indicator.SMA(closes, s.longPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	prev := closes[:len(closes)-1]

	shortPrev, err := indicator.SMA(prev, s.shortPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	longPrev, err := indicator.SMA(prev, s.longPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	metadata := map[string]float64{
		"sma_short": shortNow,
		"sma_long":  longNow,
	}

	switch {
	case shortPrev <= longPrev && shortNow > longNow:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionLong,
			Strength:  1.0,
			Reason:    fmt.Sprintf("golden cross: SMA(%d) %.2f crossed above SMA(%d) %.2f", s.shortPeriod, shortNow, s.longPeriod, longNow),
			Metadata:  metadata,
		}, nil
	case shortPrev >= longPrev && shortNow < longNow:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionExit,
			Strength:  1.0,
			Reason:    fmt.Sprintf("death cross: SMA(%d) %.2f crossed below SMA(%d) %.2f", s.shortPeriod, shortNow, s.longPeriod, longNow),
			Metadata:  metadata,
		}, nil
	default:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionFlat,
			Reason:    "no crossover",
			Metadata:  metadata,
		}, nil
	}
}
