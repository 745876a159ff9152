package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-advisor/internal/indicator"
	"github.com/rxtech-lab/argo-advisor/internal/types"
)

type nakedPutPhase int

const (
	nakedPutPhaseIdle nakedPutPhase = iota
	nakedPutPhaseShort
	nakedPutPhaseAssigned
)

// NakedPut approximates selling cash-secured puts on weakness. On an
// oversold red day it anchors a reference price and models a short put a
// fixed percentage below it. A dip to the strike is treated as assignment:
// the strategy takes 100-share lots and holds until price recovers past the
// strike distance above cost. A recovery before the dip lets the put expire
// worthless.
type NakedPut struct {
	rsiPeriod int
	rsiEntry  float64
	otmPct    float64

	phase    nakedPutPhase
	refPrice float64
}

// NakedPutDefinition returns the registry definition for the naked put
// strategy.
func NakedPutDefinition() Definition {
	return Definition{
		Key:     "naked_put",
		Family:  FamilyOptions,
		Version: "1.0.0",
		Description: "Naked put income strategy: sells out-of-the-money puts 5% " +
			"below the market on oversold red days. Assignment is modeled as " +
			"buying 100-share lots when price dips to the strike; assigned " +
			"shares are released once price recovers the strike distance.",
		Params: []ParamSpec{
			{Name: "rsi_period", Default: 14, Min: 2, Max: 100, Integer: true},
			{Name: "rsi_entry", Default: 40, Min: 5, Max: 95},
			{Name: "otm_pct", Default: 0.05, Min: 0.01, Max: 0.5},
		},
		New: func(params Params) (Strategy, error) {
			return &NakedPut{
				rsiPeriod: params.Int("rsi_period", 14),
				rsiEntry:  params.Get("rsi_entry", 40),
				otmPct:    params.Get("otm_pct", 0.05),
			}, nil
		},
	}
}

func (s *NakedPut) Key() string    { return "naked_put" }
func (s *NakedPut) Family() Family { return FamilyOptions }
func (s *NakedPut) Warmup() int    { return s.rsiPeriod + 1 }

func (s *NakedPut) Next(series *types.BarSeries) (types.Signal, error) {
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

	switch s.phase {
	case nakedPutPhaseShort:
		strike := s.refPrice * (1 - s.otmPct)
		metadata["strike"] = strike

		switch {
		case bar.Close <= strike:
			s.phase = nakedPutPhaseAssigned
			s.refPrice = bar.Close

			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionLong,
				Strength:  1.0,
				Reason:    fmt.Sprintf("put assigned: price %.2f dipped to strike %.2f, taking shares", bar.Close, strike),
				Metadata:  metadata,
			}, nil
		case rsi >= s.rsiEntry && bar.Close >= s.refPrice:
			s.phase = nakedPutPhaseIdle
			s.refPrice = 0

			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionFlat,
				Reason:    fmt.Sprintf("put expired worthless: price %.2f recovered above %.2f", bar.Close, strike),
				Metadata:  metadata,
			}, nil
		default:
			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionFlat,
				Reason:    "short put open, waiting for expiry or assignment",
				Metadata:  metadata,
			}, nil
		}

	case nakedPutPhaseAssigned:
		target := s.refPrice * (1 + s.otmPct)
		metadata["target"] = target

		if bar.Close >= target {
			s.phase = nakedPutPhaseIdle
			s.refPrice = 0

			return types.Signal{
				Time:      bar.Time,
				Direction: types.DirectionExit,
				Strength:  1.0,
				Reason:    fmt.Sprintf("recovery target %.2f reached, releasing assigned shares", target),
				Metadata:  metadata,
			}, nil
		}

		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionFlat,
			Reason:    "holding assigned shares, waiting for recovery",
			Metadata:  metadata,
		}, nil
	}

	if rsi < s.rsiEntry && bar.Close < bar.Open {
		s.phase = nakedPutPhaseShort
		s.refPrice = bar.Close

		return types.Signal{
			Time:      bar.Time,
			Direction: types.DirectionFlat,
			Reason:    fmt.Sprintf("selling %.0f%% OTM put: RSI %.1f on a red day", s.otmPct*100, rsi),
			Metadata:  metadata,
		}, nil
	}

	return types.Signal{
		Time:      bar.Time,
		Direction: types.DirectionFlat,
		Reason:    "waiting for an oversold red day",
		Metadata:  metadata,
	}, nil
}
