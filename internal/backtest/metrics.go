package backtest

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-advisor/internal/types"
)

// tradingDaysPerYear annualizes per-bar statistics for daily bars.
const tradingDaysPerYear = 252

// MetricsInput bundles everything metric computation needs. Metrics are
// derived once, after the run; nothing here is mutated.
type MetricsInput struct {
	InitialCash     float64
	FinalValue      float64
	EquityCurve     []types.EquityPoint
	Trades          []types.Trade
	TotalCommission float64
	RiskFreeRate    float64
	FirstClose      float64
	LastClose       float64
}

// ComputeMetrics derives the performance statistics of a completed run.
func ComputeMetrics(input MetricsInput) types.Metrics {
	metrics := types.Metrics{
		TotalReturn:     input.FinalValue - input.InitialCash,
		TotalCommission: input.TotalCommission,
	}

	if input.InitialCash > 0 {
		metrics.TotalReturnPct = (input.FinalValue - input.InitialCash) / input.InitialCash * 100
	}

	metrics.Sharpe = sharpe(input.EquityCurve, input.RiskFreeRate)
	metrics.MaxDrawdown, metrics.MaxDrawdownPct = maxDrawdown(input.EquityCurve)

	metrics.TotalTrades = len(input.Trades)

	var pnlSum float64

	for _, trade := range input.Trades {
		pnlSum += trade.PnL

		switch {
		case trade.PnL > 0:
			metrics.WinningTrades++
		case trade.PnL < 0:
			metrics.LosingTrades++
		}
	}

	if len(input.Trades) > 0 {
		metrics.WinRate = optional.Some(float64(metrics.WinningTrades) / float64(len(input.Trades)) * 100)
		metrics.AvgTradePnL = optional.Some(pnlSum / float64(len(input.Trades)))
	}

	if input.FirstClose > 0 {
		metrics.BuyAndHoldPnL = (input.LastClose/input.FirstClose - 1) * input.InitialCash
	}

	return metrics
}

// sharpe returns the annualized Sharpe ratio of the per-bar equity returns
// over the risk-free rate, or None when the curve is too short or has zero
// return variance.
func sharpe(curve []types.EquityPoint, riskFreeRate float64) optional.Option[float64] {
	if len(curve) < 3 {
		return optional.None[float64]()
	}

	returns := make([]float64, 0, len(curve)-1)

	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			return optional.None[float64]()
		}

		returns = append(returns, curve[i].Equity/prev-1)
	}

	riskFreePerBar := riskFreeRate / tradingDaysPerYear

	var mean float64
	for _, r := range returns {
		mean += r - riskFreePerBar
	}

	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		excess := r - riskFreePerBar
		variance += (excess - mean) * (excess - mean)
	}

	variance /= float64(len(returns) - 1)

	if variance == 0 {
		return optional.None[float64]()
	}

	return optional.Some(mean / math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear))
}

// maxDrawdown returns the largest peak-to-trough equity decline, in cash
// and as a percentage of the peak.
func maxDrawdown(curve []types.EquityPoint) (float64, float64) {
	var (
		peak        float64
		drawdown    float64
		drawdownPct float64
	)

	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}

		decline := peak - point.Equity
		if decline > drawdown {
			drawdown = decline

			if peak > 0 {
				drawdownPct = decline / peak * 100
			}
		}
	}

	return drawdown, drawdownPct
}
