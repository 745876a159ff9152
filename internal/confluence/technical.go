package confluence

import (
	"context"
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-advisor/internal/indicator"
	"github.com/rxtech-lab/argo-advisor/internal/strategy"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

const (
	technicalTrendShortPeriod = 20
	technicalTrendLongPeriod  = 50

	// Component weights inside the technical score.
	technicalSignalWeight = 0.6
	technicalTrendWeight  = 0.2
)

// TechnicalScorer derives the technical layer score from the strategy's
// own signal plus trend alignment against the short and long SMAs. It is
// fully deterministic over the bar series.
type TechnicalScorer struct {
	registry *strategy.Registry
}

// NewTechnicalScorer creates the technical layer scorer.
func NewTechnicalScorer(registry *strategy.Registry) *TechnicalScorer {
	return &TechnicalScorer{registry: registry}
}

// Layer implements Scorer.
func (s *TechnicalScorer) Layer() types.Layer {
	return types.LayerTechnical
}

// Score implements Scorer. The strategy is rebuilt per call so replaying
// its signal over the series never leaks state between evaluations.
func (s *TechnicalScorer) Score(ctx context.Context, input ScoreInput) (types.ConfluenceScore, error) {
	series := input.Series
	if series == nil || series.Len() < technicalTrendLongPeriod {
		return types.ConfluenceScore{}, errors.Wrapf(errors.ErrCodeLayerUnavailable,
			errors.Newf(errors.ErrCodeInsufficientBars, "need at least %d bars", technicalTrendLongPeriod),
			"technical layer unavailable for %s", input.Symbol)
	}

	strat, _, err := s.registry.Build(input.StrategyName, nil)
	if err != nil {
		return types.ConfluenceScore{}, err
	}

	signal, err := s.latestSignal(ctx, strat, series)
	if err != nil {
		return types.ConfluenceScore{}, err
	}

	var (
		score     float64
		rationale []string
	)

	switch signal.Direction {
	case types.DirectionLong:
		score += technicalSignalWeight * signal.Strength
		rationale = append(rationale, fmt.Sprintf("entry signal: %s", signal.Reason))
	case types.DirectionExit, types.DirectionShort:
		score -= technicalSignalWeight
		rationale = append(rationale, fmt.Sprintf("exit signal: %s", signal.Reason))
	default:
		rationale = append(rationale, "no active signal")
	}

	closes := series.Closes()
	lastClose := series.Last().Close

	shortSMA, err := indicator.SMA(closes, technicalTrendShortPeriod)
	if err != nil {
		return types.ConfluenceScore{}, err
	}

	longSMA, err := indicator.SMA(closes, technicalTrendLongPeriod)
	if err != nil {
		return types.ConfluenceScore{}, err
	}

	if lastClose > shortSMA {
		score += technicalTrendWeight

		rationale = append(rationale, fmt.Sprintf("above SMA%d", technicalTrendShortPeriod))
	} else {
		score -= technicalTrendWeight

		rationale = append(rationale, fmt.Sprintf("below SMA%d", technicalTrendShortPeriod))
	}

	if lastClose > longSMA {
		score += technicalTrendWeight

		rationale = append(rationale, fmt.Sprintf("above SMA%d", technicalTrendLongPeriod))
	} else {
		score -= technicalTrendWeight

		rationale = append(rationale, fmt.Sprintf("below SMA%d", technicalTrendLongPeriod))
	}

	return types.ConfluenceScore{
		Layer:     types.LayerTechnical,
		Score:     clamp(score),
		Rationale: strings.Join(rationale, ", "),
	}, nil
}

// latestSignal replays the strategy over the series and returns the most
// recent actionable signal, or the final signal when none acted.
func (s *TechnicalScorer) latestSignal(ctx context.Context, strat strategy.Strategy, series *types.BarSeries) (types.Signal, error) {
	var last types.Signal

	for i := strat.Warmup(); i <= series.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return types.Signal{}, errors.Wrap(errors.ErrCodeLayerFailure, "technical scoring canceled", err)
		}

		signal, err := strat.Next(series.Prefix(i))
		if err != nil {
			return types.Signal{}, errors.Wrapf(errors.ErrCodeStrategySignal, err,
				"strategy %s failed during technical scoring", strat.Key())
		}

		if signal.ImpliesChange() || i == series.Len() && last.Direction == "" {
			last = signal
		}
	}

	return last, nil
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
