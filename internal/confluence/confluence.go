// Package confluence combines technical, sentiment and fundamental layer
// scores into a single ENTER / CAUTION / PASS verdict. Layers that are not
// wired degrade to a neutral score; layers that fault fail the evaluation
// with the partial scores attached.
package confluence

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// Verdict thresholds on the composite score.
const (
	EnterThreshold = 0.5
	PassThreshold  = -0.2
)

// Weights distributes the composite score across the three layers. The
// weights must sum to 1.
type Weights struct {
	Technical   float64 `yaml:"technical" json:"technical" validate:"gte=0,lte=1"`
	Sentiment   float64 `yaml:"sentiment" json:"sentiment" validate:"gte=0,lte=1"`
	Fundamental float64 `yaml:"fundamental" json:"fundamental" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the default layer weighting: every layer counts
// equally.
func DefaultWeights() Weights {
	return Weights{Technical: 1.0 / 3, Sentiment: 1.0 / 3, Fundamental: 1.0 / 3}
}

// Validate checks that the weights sum to 1.
func (w Weights) Validate() error {
	if math.Abs(w.Technical+w.Sentiment+w.Fundamental-1) > 1e-9 {
		return errors.Newf(errors.ErrCodeInvalidWeights,
			"layer weights must sum to 1, got %v", w.Technical+w.Sentiment+w.Fundamental)
	}

	return nil
}

// ScoreInput is what every layer scorer sees.
type ScoreInput struct {
	Symbol       string
	StrategyName string
	Series       *types.BarSeries
}

// Scorer produces one layer's score in [-1, 1].
type Scorer interface {
	Layer() types.Layer
	Score(ctx context.Context, input ScoreInput) (types.ConfluenceScore, error)
}

// LayerError carries the layer that faulted and the scores computed before
// the fault, so callers can still inspect the partial evaluation.
type LayerError struct {
	Layer   types.Layer
	Partial []types.ConfluenceScore
	Cause   error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("layer %s failed: %v", e.Layer, e.Cause)
}

func (e *LayerError) Unwrap() error {
	return e.Cause
}

// Pipeline evaluates the three layers in order and derives the verdict.
type Pipeline struct {
	technical   Scorer
	sentiment   Scorer
	fundamental Scorer
	weights     Weights
	logger      *logger.Logger
}

// NewPipeline creates a confluence pipeline. A nil scorer marks that layer
// permanently unavailable; it scores neutral instead of failing.
func NewPipeline(technical, sentiment, fundamental Scorer, weights Weights, l *logger.Logger) (*Pipeline, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		technical:   technical,
		sentiment:   sentiment,
		fundamental: fundamental,
		weights:     weights,
		logger:      l,
	}, nil
}

// Evaluate scores every layer and combines them into a verdict. An
// unavailable layer contributes a neutral score and is flagged; a faulting
// layer aborts the evaluation with a LayerError carrying partial scores.
func (p *Pipeline) Evaluate(ctx context.Context, input ScoreInput) (*types.Verdict, error) {
	layers := []struct {
		layer  types.Layer
		scorer Scorer
		weight float64
	}{
		{types.LayerTechnical, p.technical, p.weights.Technical},
		{types.LayerSentiment, p.sentiment, p.weights.Sentiment},
		{types.LayerFundamental, p.fundamental, p.weights.Fundamental},
	}

	var (
		scores    []types.ConfluenceScore
		composite float64
	)

	for _, l := range layers {
		score, err := p.score(ctx, l.layer, l.scorer, input)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeLayerFailure,
				&LayerError{Layer: l.layer, Partial: scores, Cause: err},
				"confluence evaluation of %s aborted", input.Symbol)
		}

		scores = append(scores, score)
		composite += l.weight * score.Score
	}

	verdict := &types.Verdict{
		Symbol:            input.Symbol,
		StrategyName:      input.StrategyName,
		Label:             labelFor(composite),
		CompositeScore:    composite,
		Scores:            scores,
		Reasoning:         reasoning(scores),
		SuggestedHoldDays: holdDaysFor(input.StrategyName, composite),
		ScannedAt:         time.Now().UTC(),
	}

	p.logger.Debug("Confluence verdict",
		zap.String("symbol", input.Symbol),
		zap.String("label", string(verdict.Label)),
		zap.Float64("composite", composite),
	)

	return verdict, nil
}

func (p *Pipeline) score(ctx context.Context, layer types.Layer, scorer Scorer, input ScoreInput) (types.ConfluenceScore, error) {
	if scorer == nil {
		return types.ConfluenceScore{
			Layer:       layer,
			Score:       0,
			Rationale:   "layer not configured",
			Unavailable: true,
		}, nil
	}

	score, err := scorer.Score(ctx, input)
	if err != nil {
		// An unavailable layer is a degradation, not a fault: it scores
		// neutral so the remaining layers still decide.
		if errors.HasCode(err, errors.ErrCodeLayerUnavailable) {
			return types.ConfluenceScore{
				Layer:       layer,
				Score:       0,
				Rationale:   err.Error(),
				Unavailable: true,
			}, nil
		}

		return types.ConfluenceScore{}, err
	}

	if score.Score < -1 || score.Score > 1 {
		return types.ConfluenceScore{}, errors.Newf(errors.ErrCodeLayerFailure,
			"layer %s returned score %v outside [-1, 1]", layer, score.Score)
	}

	return score, nil
}

func labelFor(composite float64) types.VerdictLabel {
	switch {
	case composite >= EnterThreshold:
		return types.VerdictEnter
	case composite <= PassThreshold:
		return types.VerdictPass
	default:
		return types.VerdictCaution
	}
}

func reasoning(scores []types.ConfluenceScore) string {
	var out string

	for i, score := range scores {
		if i > 0 {
			out += "; "
		}

		out += fmt.Sprintf("%s %+.2f: %s", score.Layer, score.Score, score.Rationale)
	}

	return out
}

// holdDaysFor maps the strategy's typical trade horizon to a suggested
// holding period, stretched a little when conviction is high.
func holdDaysFor(strategyName string, composite float64) int {
	var base int

	switch strategyName {
	case "mean_reversion":
		base = 5
	case "momentum_breakout":
		base = 10
	case "buy_the_dip":
		base = 20
	case "sma_crossover":
		base = 30
	case "covered_call", "wheel", "naked_put", "put_credit_spread":
		base = 30
	case "buy_hold":
		return 0
	default:
		base = 10
	}

	if composite >= EnterThreshold {
		base += base / 2
	}

	return base
}
