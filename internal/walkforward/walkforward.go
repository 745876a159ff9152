// Package walkforward evaluates a strategy over rolling train/test windows
// to expose overfitting: parameters that look strong in-sample but decay
// out-of-sample. Windows run on a bounded worker pool and fail
// independently.
package walkforward

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-advisor/internal/backtest"
	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/strategy"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// DefaultWorkers bounds window concurrency when Config.Workers is unset.
const DefaultWorkers = 4

// Config holds the walk-forward harness parameters.
type Config struct {
	// Windows is the number of rolling train/test splits.
	Windows int `yaml:"windows" json:"windows" validate:"min=1"`
	// TrainFrac is the train share of the first window's span.
	TrainFrac float64 `yaml:"train_fraction" json:"train_fraction" validate:"gt=0,lt=1"`
	// OverfitThreshold flags the run as overfit when the normalized
	// in-sample vs out-of-sample return gap exceeds it.
	OverfitThreshold float64 `yaml:"overfit_threshold" json:"overfit_threshold" validate:"gte=0"`
	// Workers caps how many windows evaluate concurrently. Zero falls
	// back to DefaultWorkers.
	Workers int `yaml:"workers" json:"workers" validate:"omitempty,min=1"`
}

// DefaultConfig returns the harness defaults: 3 windows, 70% train share,
// overfit flagged at a 0.5 normalized gap.
func DefaultConfig() Config {
	return Config{
		Windows:          3,
		TrainFrac:        0.7,
		OverfitThreshold: 0.5,
	}
}

// Validate validates the harness configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid walk-forward configuration", err)
	}

	return nil
}

// Runner executes walk-forward evaluations. Every window gets a fresh
// strategy instance and a fresh single-use engine; the runner itself is
// safe for concurrent use.
type Runner struct {
	registry     *strategy.Registry
	engineConfig backtest.Config
	sizer        backtest.Sizer
	logger       *logger.Logger
}

// NewRunner creates a walk-forward runner.
func NewRunner(registry *strategy.Registry, engineConfig backtest.Config, sizer backtest.Sizer, l *logger.Logger) *Runner {
	return &Runner{
		registry:     registry,
		engineConfig: engineConfig,
		sizer:        sizer,
		logger:       l,
	}
}

// Run partitions the series, backtests every window's train and test
// slices concurrently, and aggregates out-of-sample statistics. A failing
// window is recorded on the window and excluded from aggregates; Run only
// errors when no window could be evaluated at all.
func (r *Runner) Run(ctx context.Context, config Config, strategyKey string, overrides map[string]float64, series *types.BarSeries) (*types.WalkForwardResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve once up front so bad overrides fail the run, not each window.
	def, err := r.registry.Get(strategyKey)
	if err != nil {
		return nil, err
	}

	params, err := strategy.ResolveParams(def.Params, overrides)
	if err != nil {
		return nil, err
	}

	bounds, err := partition(series.Len(), config.Windows, config.TrainFrac)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Starting walk-forward run",
		zap.String("strategy", strategyKey),
		zap.String("symbol", series.Symbol()),
		zap.Int("windows", config.Windows),
		zap.Float64("train_fraction", config.TrainFrac),
	)

	windows := make([]types.WalkForwardWindow, len(bounds))

	workers := config.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	if workers > len(bounds) {
		workers = len(bounds)
	}

	queue := make(chan int)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range queue {
				windows[i] = r.runWindow(ctx, strategyKey, overrides, series, i, bounds[i])
			}
		}()
	}

	for i := range bounds {
		queue <- i
	}

	close(queue)
	wg.Wait()

	result := &types.WalkForwardResult{
		RunID:        types.ComputeRunID(strategyKey+"#walkforward", params, series.Symbol(), series.First().Time, series.Last().Time),
		StrategyName: strategyKey,
		Symbol:       series.Symbol(),
		Start:        series.First().Time,
		End:          series.Last().Time,
		WindowCount:  config.Windows,
		TrainFrac:    config.TrainFrac,
		Windows:      windows,
		CreatedAt:    time.Now().UTC(),
	}

	if err := aggregate(result, config.OverfitThreshold); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Runner) runWindow(ctx context.Context, strategyKey string, overrides map[string]float64, series *types.BarSeries, index int, bounds windowBounds) types.WalkForwardWindow {
	window := types.WalkForwardWindow{
		Index:      index,
		TrainRange: r.indexRange(series, bounds.TrainStart, bounds.TrainEnd),
		TestRange:  r.indexRange(series, bounds.TestStart, bounds.TestEnd),
	}

	inSample, err := r.runSlice(ctx, strategyKey, overrides, series.Slice(bounds.TrainStart, bounds.TrainEnd))
	if err != nil {
		window.Error = errors.Wrapf(errors.ErrCodeWindowFailure, err,
			"window %d in-sample run failed", index).Error()

		return window
	}

	window.InSample = inSample

	outOfSample, err := r.runSlice(ctx, strategyKey, overrides, series.Slice(bounds.TestStart, bounds.TestEnd))
	if err != nil {
		window.Error = errors.Wrapf(errors.ErrCodeWindowFailure, err,
			"window %d out-of-sample run failed", index).Error()

		return window
	}

	window.OutOfSample = outOfSample

	return window
}

func (r *Runner) runSlice(ctx context.Context, strategyKey string, overrides map[string]float64, slice *types.BarSeries) (*types.BacktestResult, error) {
	strat, params, err := r.registry.Build(strategyKey, overrides)
	if err != nil {
		return nil, err
	}

	engine, err := backtest.NewEngine(r.engineConfig, r.sizer, r.logger)
	if err != nil {
		return nil, err
	}

	return engine.Run(ctx, strat, params, slice)
}

func (r *Runner) indexRange(series *types.BarSeries, start, end int) types.DateRange {
	endTime := series.Last().Time.Add(time.Nanosecond)
	if end < series.Len() {
		endTime = series.At(end).Time
	}

	return types.DateRange{
		Start: series.At(start).Time,
		End:   endTime,
	}
}

// aggregate fills the cross-window statistics from the succeeded windows.
func aggregate(result *types.WalkForwardResult, overfitThreshold float64) error {
	var (
		oosReturns []float64
		oosSharpes []float64
		isReturns  []float64
	)

	for _, window := range result.Windows {
		if window.Failed() || window.OutOfSample == nil {
			continue
		}

		oosReturns = append(oosReturns, window.OutOfSample.Metrics.TotalReturnPct)
		isReturns = append(isReturns, window.InSample.Metrics.TotalReturnPct)

		if window.OutOfSample.Metrics.Sharpe.IsSome() {
			oosSharpes = append(oosSharpes, window.OutOfSample.Metrics.Sharpe.Unwrap())
		}
	}

	if len(oosReturns) == 0 {
		return errors.Newf(errors.ErrCodeWindowFailure,
			"all %d walk-forward windows failed", len(result.Windows))
	}

	result.OOSMeanReturnPct, result.OOSVarReturnPct = meanVar(oosReturns)
	result.ISMeanReturnPct, _ = meanVar(isReturns)

	if len(oosSharpes) > 0 {
		mean, variance := meanVar(oosSharpes)
		result.OOSMeanSharpe = optional.Some(mean)
		result.OOSVarSharpe = optional.Some(variance)
	}

	// Normalized decay of out-of-sample performance vs in-sample.
	if result.ISMeanReturnPct != 0 {
		result.OverfitRatio = (result.ISMeanReturnPct - result.OOSMeanReturnPct) /
			math.Abs(result.ISMeanReturnPct)
	}

	result.Overfit = result.OverfitRatio > overfitThreshold

	return nil
}

// meanVar returns the mean and sample variance.
func meanVar(values []float64) (float64, float64) {
	var mean float64
	for _, v := range values {
		mean += v
	}

	mean /= float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}

	return mean, variance / float64(len(values)-1)
}
