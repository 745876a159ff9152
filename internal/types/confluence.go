package types

import "time"

// Layer identifies one of the three independent confluence evidence layers.
type Layer string

const (
	LayerTechnical   Layer = "TECHNICAL"
	LayerSentiment   Layer = "SENTIMENT"
	LayerFundamental Layer = "FUNDAMENTAL"
)

// ConfluenceScore is one layer's contribution to a verdict. Score is in
// [-1, 1]; an unavailable layer reports score 0 with Unavailable set,
// which is a degraded state, not a failure.
type ConfluenceScore struct {
	Layer       Layer   `json:"layer"`
	Score       float64 `json:"score"`
	Rationale   string  `json:"rationale"`
	Unavailable bool    `json:"unavailable,omitempty"`
}

// VerdictLabel is the final actionable classification of a symbol.
type VerdictLabel string

const (
	VerdictEnter   VerdictLabel = "ENTER"
	VerdictCaution VerdictLabel = "CAUTION"
	VerdictPass    VerdictLabel = "PASS"
)

// Verdict merges the three layer scores into a single actionable result.
// A verdict is derived from its contributing scores and never persisted
// independently of them.
type Verdict struct {
	Symbol         string            `json:"symbol"`
	StrategyName   string            `json:"strategy_name"`
	Label          VerdictLabel      `json:"label"`
	CompositeScore float64           `json:"composite_score"`
	Scores         []ConfluenceScore `json:"contributing_scores"`
	Reasoning      string            `json:"reasoning"`
	// SuggestedHoldDays is advisory: how long an ENTER position would
	// typically be held before re-evaluation.
	SuggestedHoldDays int       `json:"suggested_hold_days"`
	ScannedAt         time.Time `json:"scanned_at"`
}

// ScoreFor returns the contributing score for the given layer, if present.
func (v Verdict) ScoreFor(layer Layer) (ConfluenceScore, bool) {
	for _, s := range v.Scores {
		if s.Layer == layer {
			return s, true
		}
	}

	return ConfluenceScore{}, false
}
