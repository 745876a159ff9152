package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-advisor/internal/indicator"
	"github.com/rxtech-lab/argo-advisor/internal/types"
)

// PutCreditSpread approximates selling defined-risk put spreads on oversold
// stocks. An oversold close opens a bullish position anchored to the entry
// price; the short strike sits a fixed percentage below the anchor and the
// long strike one spread width further down. The position closes for a win
// once the oversold condition clears, or at max loss when price breaches
// the long put floor.
type PutCreditSpread struct {
	rsiPeriod int
	rsiEntry  float64
	rsiExit   float64
	otmPct    float64
	widthPct  float64

	refPrice float64
}

// PutCreditSpreadDefinition returns the registry definition for the put
// credit spread strategy.
func PutCreditSpreadDefinition() Definition {
	return Definition{
		Key:     "put_credit_spread",
		Family:  FamilyOptions,
		Version: "1.0.0",
		Description: "Put credit spread strategy: sells defined-risk put spreads " +
			"on oversold stocks, short strike 5% below the market with a 5% wide " +
			"wing. The spread expires worthless once the oversold condition " +
			"clears; a close through the long put floor closes at max loss.",
		Params: []ParamSpec{
			{Name: "rsi_period", Default: 14, Min: 2, Max: 100, Integer: true},
			{Name: "rsi_entry", Default: 35, Min: 5, Max: 95},
			{Name: "rsi_exit", Default: 55, Min: 5, Max: 95},
			{Name: "otm_pct", Default: 0.05, Min: 0.01, Max: 0.5},
			{Name: "width_pct", Default: 0.05, Min: 0.01, Max: 0.5},
		},
		New: func(params Params) (Strategy, error) {
			return &PutCreditSpread{
				rsiPeriod: params.Int("rsi_period", 14),
				rsiEntry:  params.Get("rsi_entry", 35),
				rsiExit:   params.Get("rsi_exit", 55),
				otmPct:    params.Get("otm_pct", 0.05),
				widthPct:  params.Get("width_pct", 0.05),
			}, nil
		},
	}
}

func (s *PutCreditSpread) Key() string    { return "put_credit_spread" }
func (s *PutCreditSpread) Family() Family { return FamilyOptions }
func (s *PutCreditSpread) Warmup() int    { return s.rsiPeriod + 1 }

func (s *PutCreditSpread) Next(series *types.BarSeries) (types.Signal, error) {
	closes := series.Closes()
	bar := series.Last()

	rsi, err := indicator.RSI(closes, s.rsiPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	metadata := map[string]float64{
		"rsi":       rsi,
		"ref_price": s.refPrice,
	}

	if s.refPrice > 0 {
		shortStrike := s.refPrice * (1 - s.otmPct)
		floor := s.refPrice * (1 - s.otmPct - s.widthPct)
		metadata["short_strike"] = shortStrike
		metadata["long_strike"] = floor

		switch {
		case bar.Close <= floor:
			s.refPrice = 0

			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionExit,
				Strength:  1.0,
				Reason:    fmt.Sprintf("max loss: price %.2f breached the long put floor %.2f", bar.Close, floor),
				Metadata:  metadata,
			}, nil
		case rsi >= s.rsiExit:
			s.refPrice = 0

			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionExit,
				Strength:  1.0,
				Reason:    fmt.Sprintf("spread expires worthless: RSI %.1f cleared the oversold zone", rsi),
				Metadata:  metadata,
			}, nil
		default:
			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionFlat,
				Reason:    "spread open, collecting premium",
				Metadata:  metadata,
			}, nil
		}
	}

	if rsi < s.rsiEntry {
		s.refPrice = bar.Close
		shortStrike := s.refPrice * (1 - s.otmPct)
		floor := s.refPrice * (1 - s.otmPct - s.widthPct)
		metadata["short_strike"] = shortStrike
		metadata["long_strike"] = floor

		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionLong,
			Strength:  1.0,
			Reason: fmt.Sprintf("selling put credit spread: RSI %.1f oversold, short strike %.2f, long strike %.2f",
				rsi, shortStrike, floor),
			Metadata: metadata,
		}, nil
	}

	return types.Signal{
		Time:      bar.Time,
		Direction: types.DirectionFlat,
		Reason:    "waiting for an oversold entry",
		Metadata:  metadata,
	}, nil
}
