package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-advisor/internal/indicator"
	"github.com/rxtech-lab/argo-advisor/internal/types"
)

// BuyTheDip buys oversold pullbacks inside an intact long-term uptrend:
// RSI below threshold, price below the medium SMA but still above the long
// SMA. Exits when RSI recovers into overbought territory or the long-term
// trend breaks.
type BuyTheDip struct {
	rsiPeriod    int
	rsiEntry     float64
	rsiExit      float64
	mediumPeriod int
	longPeriod   int
}

// BuyTheDipDefinition returns the registry definition for the buy-the-dip
// strategy.
func BuyTheDipDefinition() Definition {
	return Definition{
		Key:     "buy_the_dip",
		Family:  FamilyEquity,
		Version: "1.0.0",
		Description: "Dip-buying strategy that enters when RSI(14) drops below 30 while " +
			"price sits below the 50-day SMA but above the 200-day SMA, keeping " +
			"the long-term uptrend intact. Exits when RSI recovers above 70 or " +
			"price breaks below the 200-day SMA.",
		Params: []ParamSpec{
			{Name: "rsi_period", Default: 14, Min: 2, Max: 100, Integer: true},
			{Name: "rsi_entry", Default: 30, Min: 1, Max: 50},
			{Name: "rsi_exit", Default: 70, Min: 50, Max: 99},
			{Name: "medium_period", Default: 50, Min: 3, Max: 300, Integer: true},
			{Name: "long_period", Default: 200, Min: 10, Max: 500, Integer: true},
		},
		New: func(params Params) (Strategy, error) {
			return &BuyTheDip{
				rsiPeriod:    params.Int("rsi_period", 14),
				rsiEntry:     params.Get("rsi_entry", 30),
				rsiExit:      params.Get("rsi_exit", 70),
				mediumPeriod: params.Int("medium_period", 50),
				longPeriod:   params.Int("long_period", 200),
			}, nil
		},
	}
}

func (s *BuyTheDip) Key() string    { return "buy_the_dip" }
func (s *BuyTheDip) Family() Family { return FamilyEquity }

func (s *BuyTheDip) Warmup() int {
	warmup := s.longPeriod
	if s.rsiPeriod+1 > warmup {
		warmup = s.rsiPeriod + 1
	}

	return warmup
}

func (s *BuyTheDip) Next(series *types.BarSeries) (types.Signal, error) {
	closes := series.Closes()
	bar := series.Last()

	rsi, err := indicator.RSI(closes, s.rsiPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	smaMedium, err := indicator.SMA(closes, s.mediumPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	smaLong, err := indicator.SMA(closes, s.longPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	metadata := map[string]float64{
		"rsi":        rsi,
		"sma_medium": smaMedium,
		"sma_long":   smaLong,
	}

	switch {
	case rsi < s.rsiEntry && bar.Close < smaMedium && bar.Close > smaLong:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionLong,
			Strength:  1.0,
			Reason: fmt.Sprintf("dip in uptrend: RSI %.1f below %.0f, price between SMA(%d) and SMA(%d)",
				rsi, s.rsiEntry, s.longPeriod, s.mediumPeriod),
			Metadata: metadata,
		}, nil
	case rsi > s.rsiExit:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionExit,
			Strength:  1.0,
			Reason:    fmt.Sprintf("RSI %.1f recovered above %.0f", rsi, s.rsiExit),
			Metadata:  metadata,
		}, nil
	case bar.Close < smaLong:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionExit,
			Strength:  1.0,
			Reason:    fmt.Sprintf("trend break: price %.2f below SMA(%d) %.2f", bar.Close, s.longPeriod, smaLong),
			Metadata:  metadata,
		}, nil
	default:
		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionFlat,
			Reason:    "no dip setup",
			Metadata:  metadata,
		}, nil
	}
}
