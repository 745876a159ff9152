package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// DateRange is a half-open [Start, End) time interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// WalkForwardWindow is one rolling train/test split. The train range always
// strictly precedes its own test range; test ranges across windows never
// overlap and are strictly time-ordered.
type WalkForwardWindow struct {
	Index      int       `json:"index"`
	TrainRange DateRange `json:"train_range"`
	TestRange  DateRange `json:"test_range"`
	// InSample is the backtest over the train range. Nil when the window
	// failed before the in-sample run completed.
	InSample *BacktestResult `json:"in_sample,omitempty"`
	// OutOfSample is the backtest over the test range.
	OutOfSample *BacktestResult `json:"out_of_sample,omitempty"`
	// Error records a per-window failure. Window failures are isolated:
	// they never abort the remaining windows.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the window recorded a failure.
func (w WalkForwardWindow) Failed() bool {
	return w.Error != ""
}

// WalkForwardResult aggregates per-window and overall statistics from a
// walk-forward run.
type WalkForwardResult struct {
	RunID        string              `json:"run_id"`
	StrategyName string              `json:"strategy_name"`
	Symbol       string              `json:"symbol"`
	Start        time.Time           `json:"start"`
	End          time.Time           `json:"end"`
	WindowCount  int                 `json:"window_count"`
	TrainFrac    float64             `json:"train_fraction"`
	Windows      []WalkForwardWindow `json:"windows"`

	// Aggregate out-of-sample statistics across succeeded windows.
	OOSMeanReturnPct float64                  `json:"oos_mean_return_pct"`
	OOSVarReturnPct  float64                  `json:"oos_var_return_pct"`
	OOSMeanSharpe    optional.Option[float64] `json:"oos_mean_sharpe"`
	OOSVarSharpe     optional.Option[float64] `json:"oos_var_sharpe"`
	ISMeanReturnPct  float64                  `json:"is_mean_return_pct"`

	// OverfitRatio is (mean IS return - mean OOS return) normalized by the
	// IS return magnitude. Overfit is set when the ratio exceeds the
	// configured threshold.
	OverfitRatio float64 `json:"overfit_ratio"`
	Overfit      bool    `json:"overfit"`

	CreatedAt time.Time `json:"created_at"`
}
