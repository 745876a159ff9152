// Package backtest runs the event-driven simulation loop: strategy signals
// become sized orders, orders become fills at the next bar's open, and
// fills mutate the portfolio. Metrics are computed once after the run.
package backtest

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/strategy"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// EngineState tracks the run lifecycle. A completed or failed engine cannot
// be reused; every run gets a fresh engine.
type EngineState string

const (
	EngineStateInitialized EngineState = "initialized"
	EngineStateRunning     EngineState = "running"
	EngineStateCompleted   EngineState = "completed"
	EngineStateFailed      EngineState = "failed"
)

// FillTiming selects when a pending order executes.
type FillTiming string

const (
	// FillNextOpen executes orders at the next bar's open price. Signals
	// computed on a bar's close can never fill inside that same bar.
	FillNextOpen FillTiming = "next_open"
	// FillSameClose executes orders at the signal bar's close price.
	FillSameClose FillTiming = "same_close"
)

// Config holds the engine's simulation parameters.
type Config struct {
	InitialCash    float64    `yaml:"initial_cash" json:"initial_cash" validate:"gt=0"`
	CommissionRate float64    `yaml:"commission_rate" json:"commission_rate" validate:"gte=0,lt=1"`
	SlippagePct    float64    `yaml:"slippage_pct" json:"slippage_pct" validate:"gte=0,lt=1"`
	RiskFreeRate   float64    `yaml:"risk_free_rate" json:"risk_free_rate" validate:"gte=0,lt=1"`
	FillTiming     FillTiming `yaml:"fill_timing" json:"fill_timing" validate:"omitempty,oneof=next_open same_close"`
}

// Validate validates the engine configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine configuration", err)
	}

	return nil
}

// DefaultConfig returns the engine defaults: $100k initial cash, 0.1%
// commission, no slippage, 4% risk-free rate, next-open fills.
func DefaultConfig() Config {
	return Config{
		InitialCash:    100_000,
		CommissionRate: 0.001,
		SlippagePct:    0,
		RiskFreeRate:   0.04,
		FillTiming:     FillNextOpen,
	}
}

// Sizer is satisfied by the sizing package's implementations. It is
// re-declared here so the engine does not depend on a concrete policy.
type Sizer interface {
	Size(equity, cash, price float64, series *types.BarSeries) (int64, error)
}

// Engine runs one backtest. Bars are processed strictly in order; for each
// bar any pending order fills first, then the equity curve is marked, then
// the strategy sees the bar-inclusive prefix and may emit a signal that
// becomes the next pending order.
type Engine struct {
	config     Config
	sizer      Sizer
	slippage   SlippageModel
	commission CommissionModel
	logger     *logger.Logger
	state      EngineState
}

// NewEngine creates an engine for a single run.
func NewEngine(config Config, sizer Sizer, l *logger.Logger) (*Engine, error) {
	if config.FillTiming == "" {
		config.FillTiming = FillNextOpen
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if sizer == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "engine requires a sizer")
	}

	slippage, err := NewPercentSlippage(config.SlippagePct)
	if err != nil {
		return nil, err
	}

	commission, err := NewPercentCommission(config.CommissionRate)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:     config,
		sizer:      sizer,
		slippage:   slippage,
		commission: commission,
		logger:     l,
		state:      EngineStateInitialized,
	}, nil
}

// State returns the engine lifecycle state.
func (e *Engine) State() EngineState {
	return e.state
}

// Run executes the strategy over the series and returns the immutable
// result. The engine transitions initialized -> running -> completed, or
// failed when the strategy or portfolio reports an error.
func (e *Engine) Run(ctx context.Context, strat strategy.Strategy, params strategy.Params, series *types.BarSeries) (*types.BacktestResult, error) {
	if e.state != EngineStateInitialized {
		return nil, errors.Newf(errors.ErrCodeEngineState, "engine cannot run in state %q", e.state)
	}

	e.state = EngineStateRunning

	result, err := e.run(ctx, strat, params, series)
	if err != nil {
		e.state = EngineStateFailed

		return nil, err
	}

	e.state = EngineStateCompleted

	return result, nil
}

func (e *Engine) run(ctx context.Context, strat strategy.Strategy, params strategy.Params, series *types.BarSeries) (*types.BacktestResult, error) {
	warmup := strat.Warmup()
	if series.Len() <= warmup {
		return nil, errors.Newf(errors.ErrCodeInsufficientBars,
			"strategy %s needs more than %d bars, got %d", strat.Key(), warmup, series.Len())
	}

	portfolio, err := NewPortfolio(e.config.InitialCash)
	if err != nil {
		return nil, err
	}

	lotSize := types.EquityLotSize
	if strat.Family() == strategy.FamilyOptions {
		lotSize = types.OptionsLotSize
	}

	e.logger.Debug("Starting backtest",
		zap.String("strategy", strat.Key()),
		zap.String("symbol", series.Symbol()),
		zap.Int("bars", series.Len()),
		zap.Int("warmup", warmup),
	)

	var (
		pending     *types.Order
		equityCurve []types.EquityPoint
		skipped     []types.SkippedOrder
	)

	for i := 0; i < series.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeEngineState, "backtest canceled", err)
		}

		bar := series.At(i)

		// A pending order carries forward across calendar gaps: it executes
		// at the open of whatever bar comes next in the series.
		if pending != nil {
			skip, err := e.execute(portfolio, *pending, bar.Open, bar.Time)
			if err != nil {
				return nil, err
			}

			if skip != nil {
				skipped = append(skipped, *skip)
			}

			pending = nil
		}

		if i+1 >= warmup {
			signal, err := strat.Next(series.Prefix(i + 1))
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeStrategySignal, err,
					"strategy %s failed at bar %s", strat.Key(), bar.Time.Format(time.RFC3339))
			}

			order, skip, err := e.orderFromSignal(portfolio, signal, series.Prefix(i+1), lotSize)
			if err != nil {
				return nil, err
			}

			if skip != nil {
				skipped = append(skipped, *skip)
			}

			if order != nil {
				order.ID = uuid.New().String()

				if e.config.FillTiming == FillSameClose {
					fillSkip, err := e.execute(portfolio, *order, bar.Close, bar.Time)
					if err != nil {
						return nil, err
					}

					if fillSkip != nil {
						skipped = append(skipped, *fillSkip)
					}
				} else {
					pending = order
				}
			}
		}

		equityCurve = append(equityCurve, types.EquityPoint{
			Time:   bar.Time,
			Equity: portfolio.Equity(bar.Close),
		})
	}

	// Force-close any open position at the final bar's close so every run
	// ends flat and metrics see only realized trades.
	if position := portfolio.Position(); position != nil {
		finalBar := series.Last()

		quantity := position.Quantity
		if quantity < 0 {
			quantity = -quantity
		}

		closeOrder := types.Order{
			ID:             uuid.New().String(),
			Symbol:         series.Symbol(),
			Direction:      types.DirectionExit,
			Quantity:       quantity,
			RequestedPrice: finalBar.Close,
			Reason:         "end of data",
		}

		skip, err := e.execute(portfolio, closeOrder, finalBar.Close, finalBar.Time)
		if err != nil {
			return nil, err
		}

		if skip != nil {
			skipped = append(skipped, *skip)
		}

		equityCurve[len(equityCurve)-1] = types.EquityPoint{
			Time:   finalBar.Time,
			Equity: portfolio.Equity(finalBar.Close),
		}
	}

	finalValue := portfolio.Equity(series.Last().Close)

	metrics := ComputeMetrics(MetricsInput{
		InitialCash:     e.config.InitialCash,
		FinalValue:      finalValue,
		EquityCurve:     equityCurve,
		Trades:          portfolio.Trades(),
		TotalCommission: portfolio.TotalCommission(),
		RiskFreeRate:    e.config.RiskFreeRate,
		FirstClose:      series.First().Close,
		LastClose:       series.Last().Close,
	})

	start := series.First().Time
	end := series.Last().Time

	result := &types.BacktestResult{
		RunID:        types.ComputeRunID(strat.Key(), params, series.Symbol(), start, end),
		StrategyName: strat.Key(),
		Symbol:       series.Symbol(),
		Start:        start,
		End:          end,
		InitialCash:  e.config.InitialCash,
		FinalValue:   finalValue,
		Params:       params,
		EquityCurve:  equityCurve,
		Trades:       portfolio.Trades(),
		Skipped:      skipped,
		Metrics:      metrics,
		CreatedAt:    time.Now().UTC(),
	}

	e.logger.Debug("Backtest completed",
		zap.String("run_id", result.RunID),
		zap.Float64("final_value", finalValue),
		zap.Int("trades", len(result.Trades)),
		zap.Int("skipped", len(skipped)),
	)

	return result, nil
}

// orderFromSignal turns a signal into an order given the current position.
// Signals that cannot change the position are dropped: LONG while already
// long, EXIT while flat, FLAT always.
func (e *Engine) orderFromSignal(portfolio *Portfolio, signal types.Signal, series *types.BarSeries, lotSize int64) (*types.Order, *types.SkippedOrder, error) {
	if !signal.ImpliesChange() {
		return nil, nil, nil
	}

	position := portfolio.Position()
	bar := series.Last()

	switch signal.Direction {
	case types.DirectionExit:
		if position == nil {
			return nil, nil, nil
		}

		quantity := position.Quantity
		if quantity < 0 {
			quantity = -quantity
		}

		return &types.Order{
			Symbol:         series.Symbol(),
			Direction:      types.DirectionExit,
			Quantity:       quantity,
			RequestedPrice: bar.Close,
			Reason:         signal.Reason,
		}, nil, nil

	case types.DirectionLong, types.DirectionShort:
		if position != nil {
			if (signal.Direction == types.DirectionLong) == position.IsLong() {
				return nil, nil, nil
			}

			// Opposite-side entry flattens first; re-entry can happen on a
			// later signal.
			quantity := position.Quantity
			if quantity < 0 {
				quantity = -quantity
			}

			return &types.Order{
				Symbol:         series.Symbol(),
				Direction:      types.DirectionExit,
				Quantity:       quantity,
				RequestedPrice: bar.Close,
				Reason:         signal.Reason,
			}, nil, nil
		}

		quantity, err := e.sizer.Size(portfolio.Equity(bar.Close), portfolio.Cash(), bar.Close, series)
		if err != nil {
			return nil, nil, err
		}

		quantity -= quantity % lotSize

		if quantity <= 0 {
			skip := &types.SkippedOrder{
				Order: types.Order{
					Symbol:         series.Symbol(),
					Direction:      signal.Direction,
					Quantity:       0,
					RequestedPrice: bar.Close,
					Reason:         signal.Reason,
				},
				Time:   bar.Time,
				Reason: "sized quantity is zero",
			}

			return nil, skip, nil
		}

		return &types.Order{
			Symbol:         series.Symbol(),
			Direction:      signal.Direction,
			Quantity:       quantity,
			RequestedPrice: bar.Close,
			Reason:         signal.Reason,
		}, nil, nil

	default:
		return nil, nil, errors.Newf(errors.ErrCodeInvalidOrder, "unsupported signal direction %q", signal.Direction)
	}
}

// execute fills the order at the given reference price. Orders the
// portfolio cannot pay for become skip events, not errors.
func (e *Engine) execute(portfolio *Portfolio, order types.Order, refPrice float64, at time.Time) (*types.SkippedOrder, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	position := portfolio.Position()

	// The position may have changed between signal and fill; re-check that
	// the order still applies.
	if order.Direction == types.DirectionExit && position == nil {
		return nil, nil
	}

	buy := order.Direction == types.DirectionLong ||
		(order.Direction == types.DirectionExit && position != nil && position.IsShort())

	price := e.slippage.Adjust(refPrice, buy)
	notional := float64(order.Quantity) * price
	commission := e.commission.Fee(notional)
	slippageCost := float64(order.Quantity) * (price - refPrice)

	if slippageCost < 0 {
		slippageCost = -slippageCost
	}

	if buy && order.Direction != types.DirectionExit && notional+commission > portfolio.Cash() {
		return &types.SkippedOrder{
			Order:  order,
			Time:   at,
			Reason: "insufficient cash",
		}, nil
	}

	fill := types.Fill{
		OrderID:      order.ID,
		Symbol:       order.Symbol,
		Direction:    order.Direction,
		Quantity:     order.Quantity,
		Price:        price,
		Commission:   commission,
		SlippageCost: slippageCost,
		Time:         at,
	}

	if _, err := portfolio.ApplyFill(fill); err != nil {
		if errors.HasCode(err, errors.ErrCodeInsufficientCash) {
			return &types.SkippedOrder{
				Order:  order,
				Time:   at,
				Reason: "insufficient cash",
			}, nil
		}

		return nil, err
	}

	return nil, nil
}
