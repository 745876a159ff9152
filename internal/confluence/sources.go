package confluence

import (
	"context"
	"sync"

	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// Source supplies an externally derived score in [-1, 1] for a symbol.
// Sentiment and fundamental layers are both fed by sources, so any feed
// (news API, earnings database, hand-curated file) plugs in the same way.
type Source interface {
	Score(ctx context.Context, symbol string) (score float64, rationale string, err error)
}

// SourceScorer adapts a Source into a layer Scorer.
type SourceScorer struct {
	layer  types.Layer
	source Source
}

// NewSentimentScorer wraps a source as the sentiment layer.
func NewSentimentScorer(source Source) *SourceScorer {
	return &SourceScorer{layer: types.LayerSentiment, source: source}
}

// NewFundamentalScorer wraps a source as the fundamental layer.
func NewFundamentalScorer(source Source) *SourceScorer {
	return &SourceScorer{layer: types.LayerFundamental, source: source}
}

// Layer implements Scorer.
func (s *SourceScorer) Layer() types.Layer {
	return s.layer
}

// Score implements Scorer.
func (s *SourceScorer) Score(ctx context.Context, input ScoreInput) (types.ConfluenceScore, error) {
	score, rationale, err := s.source.Score(ctx, input.Symbol)
	if err != nil {
		return types.ConfluenceScore{}, err
	}

	return types.ConfluenceScore{
		Layer:     s.layer,
		Score:     score,
		Rationale: rationale,
	}, nil
}

// StaticSource serves fixed scores from memory. Symbols without an entry
// report the layer as unavailable. It backs tests and offline runs.
type StaticSource struct {
	mu     sync.RWMutex
	scores map[string]staticScore
}

type staticScore struct {
	score     float64
	rationale string
}

// NewStaticSource creates an empty static source.
func NewStaticSource() *StaticSource {
	return &StaticSource{scores: make(map[string]staticScore)}
}

// Set installs the score served for the symbol.
func (s *StaticSource) Set(symbol string, score float64, rationale string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scores[symbol] = staticScore{score: score, rationale: rationale}
}

// Score implements Source.
func (s *StaticSource) Score(ctx context.Context, symbol string) (float64, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", errors.Wrap(errors.ErrCodeLayerFailure, "static source canceled", err)
	}

	s.mu.RLock()
	entry, ok := s.scores[symbol]
	s.mu.RUnlock()

	if !ok {
		return 0, "", errors.Newf(errors.ErrCodeLayerUnavailable, "no score recorded for %s", symbol)
	}

	return entry.score, entry.rationale, nil
}
