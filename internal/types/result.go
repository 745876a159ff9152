package types

import (
	"encoding/json"
	"time"

	"github.com/moznion/go-optional"
)

// Metrics holds the performance statistics of one backtest run. All values
// are computed once, after the run, from the equity curve and trade list.
type Metrics struct {
	// TotalReturn is the absolute return: final equity minus initial cash.
	TotalReturn float64 `json:"total_return"`
	// TotalReturnPct is the return as a percentage of initial cash.
	TotalReturnPct float64 `json:"total_return_pct"`
	// Sharpe is the annualized Sharpe ratio over the configured risk-free
	// rate. None when the equity curve has too few points or zero variance.
	Sharpe optional.Option[float64] `json:"sharpe"`
	// MaxDrawdown is the largest peak-to-trough equity decline in cash terms.
	MaxDrawdown float64 `json:"max_drawdown"`
	// MaxDrawdownPct is the drawdown as a percentage of the peak.
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	// WinRate is the fraction of closed trades with positive PnL, as a
	// percentage. None when no trades closed.
	WinRate optional.Option[float64] `json:"win_rate"`
	// AvgTradePnL is the mean net PnL across closed trades. None when no
	// trades closed.
	AvgTradePnL optional.Option[float64] `json:"avg_trade_pnl"`
	// TotalTrades counts closed round-trips.
	TotalTrades int `json:"total_trades"`
	// WinningTrades counts closed trades with positive PnL.
	WinningTrades int `json:"winning_trades"`
	// LosingTrades counts closed trades with negative PnL.
	LosingTrades int `json:"losing_trades"`
	// TotalCommission is the sum of commission across all fills.
	TotalCommission float64 `json:"total_commission"`
	// BuyAndHoldPnL is the PnL a buy-and-hold position over the same range
	// would have produced, as a benchmark delta.
	BuyAndHoldPnL float64 `json:"buy_and_hold_pnl"`
}

// BacktestResult is the immutable output of one engine run.
type BacktestResult struct {
	// RunID is a deterministic hash of strategy key + params + symbol +
	// date range, so identical runs share an identifier.
	RunID        string             `json:"run_id"`
	StrategyName string             `json:"strategy_name"`
	Symbol       string             `json:"symbol"`
	Start        time.Time          `json:"start"`
	End          time.Time          `json:"end"`
	Interval     string             `json:"interval"`
	InitialCash  float64            `json:"initial_cash"`
	FinalValue   float64            `json:"final_value"`
	Params       map[string]float64 `json:"params"`
	EquityCurve  []EquityPoint      `json:"equity_curve"`
	Trades       []Trade            `json:"trades"`
	Skipped      []SkippedOrder     `json:"skipped_orders"`
	Metrics      Metrics            `json:"metrics"`
	CreatedAt    time.Time          `json:"created_at"`
}

// MarshalBacktestResult encodes a result into the canonical payload used
// by the results store.
func MarshalBacktestResult(r *BacktestResult) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalBacktestResult decodes a stored result payload.
func UnmarshalBacktestResult(data []byte) (*BacktestResult, error) {
	var result BacktestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
