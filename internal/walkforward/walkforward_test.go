package walkforward

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-advisor/internal/backtest"
	"github.com/rxtech-lab/argo-advisor/internal/backtest/sizing"
	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/strategy"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

type PartitionTestSuite struct {
	suite.Suite
}

func TestPartitionSuite(t *testing.T) {
	suite.Run(t, new(PartitionTestSuite))
}

func (suite *PartitionTestSuite) TestTestWindowsAreContiguousAndCoverTail() {
	bounds, err := partition(1000, 5, 0.7)
	suite.Require().NoError(err)
	suite.Require().Len(bounds, 5)

	first := bounds[0]

	// The first window's split honors the train fraction.
	span := float64(first.TrainEnd-first.TrainStart) + float64(first.TestEnd-first.TestStart)
	suite.InDelta(0.7, float64(first.TrainEnd-first.TrainStart)/span, 0.01)

	for i, b := range bounds {
		suite.Equal(b.TrainEnd, b.TestStart, "train must immediately precede test")
		suite.Equal(b.TestStart-b.TrainStart, bounds[0].TrainEnd-bounds[0].TrainStart,
			"train length must be constant across windows")
		suite.GreaterOrEqual(b.TrainStart, 0)

		if i > 0 {
			suite.Equal(bounds[i-1].TestEnd, b.TestStart, "test windows must be contiguous")
		}
	}

	suite.Equal(1000, bounds[len(bounds)-1].TestEnd, "last test window must reach the final bar")
}

func (suite *PartitionTestSuite) TestSingleWindow() {
	bounds, err := partition(100, 1, 0.7)
	suite.Require().NoError(err)
	suite.Require().Len(bounds, 1)

	suite.Equal(0, bounds[0].TrainStart)
	suite.Equal(bounds[0].TrainEnd, bounds[0].TestStart)
	suite.Equal(100, bounds[0].TestEnd)
}

func (suite *PartitionTestSuite) TestInvalidArguments() {
	_, err := partition(1000, 0, 0.7)
	suite.True(errors.HasCode(err, errors.ErrCodeWindowPartition))

	_, err = partition(1000, 5, 0)
	suite.True(errors.HasCode(err, errors.ErrCodeWindowPartition))

	_, err = partition(1000, 5, 1)
	suite.True(errors.HasCode(err, errors.ErrCodeWindowPartition))

	// Too few bars to give every window at least one test bar.
	_, err = partition(5, 10, 0.7)
	suite.True(errors.HasCode(err, errors.ErrCodeWindowPartition))
}

// flakyStrategy errors on bars after its cutoff and stays flat otherwise.
type flakyStrategy struct {
	cutoff time.Time
}

func (s *flakyStrategy) Key() string             { return "flaky" }
func (s *flakyStrategy) Family() strategy.Family { return strategy.FamilyEquity }
func (s *flakyStrategy) Warmup() int             { return 1 }

func (s *flakyStrategy) Next(series *types.BarSeries) (types.Signal, error) {
	bar := series.Last()
	if bar.Time.After(s.cutoff) {
		return types.Signal{}, errors.Newf(errors.ErrCodeStrategySignal, "no signal available after %s", s.cutoff)
	}

	return types.Signal{Time: bar.Time, Direction: types.DirectionFlat}, nil
}

func flakyDefinition(cutoff time.Time) strategy.Definition {
	return strategy.Definition{
		Key:     "flaky",
		Family:  strategy.FamilyEquity,
		Version: "0.1.0",
		New: func(params strategy.Params) (strategy.Strategy, error) {
			return &flakyStrategy{cutoff: cutoff}, nil
		},
	}
}

// concurrencyGauge tracks how many strategy evaluations overlap.
type concurrencyGauge struct {
	mu      sync.Mutex
	current int
	peak    int
}

func (g *concurrencyGauge) enter() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.current++
	if g.current > g.peak {
		g.peak = g.current
	}
}

func (g *concurrencyGauge) exit() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.current--
}

func (g *concurrencyGauge) max() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.peak
}

// trackingStrategy stays flat while reporting overlap to a shared gauge.
type trackingStrategy struct {
	gauge *concurrencyGauge
}

func (s *trackingStrategy) Key() string             { return "tracking" }
func (s *trackingStrategy) Family() strategy.Family { return strategy.FamilyEquity }
func (s *trackingStrategy) Warmup() int             { return 1 }

func (s *trackingStrategy) Next(series *types.BarSeries) (types.Signal, error) {
	s.gauge.enter()
	time.Sleep(time.Millisecond)
	s.gauge.exit()

	return types.Signal{Time: series.Last().Time, Direction: types.DirectionFlat}, nil
}

func trackingDefinition(gauge *concurrencyGauge) strategy.Definition {
	return strategy.Definition{
		Key:     "tracking",
		Family:  strategy.FamilyEquity,
		Version: "0.1.0",
		New: func(params strategy.Params) (strategy.Strategy, error) {
			return &trackingStrategy{gauge: gauge}, nil
		},
	}
}

type RunnerTestSuite struct {
	suite.Suite

	logger *logger.Logger
	sizer  backtest.Sizer
	start  time.Time
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupTest() {
	suite.logger = logger.NewNopLogger()
	suite.start = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	sizer, err := sizing.NewFixedFraction(0.9)
	suite.Require().NoError(err)
	suite.sizer = sizer
}

func (suite *RunnerTestSuite) engineConfig() backtest.Config {
	config := backtest.DefaultConfig()
	config.CommissionRate = 0
	config.SlippagePct = 0

	return config
}

func (suite *RunnerTestSuite) risingSeries(n int) *types.BarSeries {
	bars := make([]types.Bar, n)

	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = types.Bar{
			Time:   suite.start.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1_000_000,
		}
	}

	series, err := types.NewBarSeries("TEST", bars)
	suite.Require().NoError(err)

	return series
}

func (suite *RunnerTestSuite) TestRunAggregatesAcrossWindows() {
	registry, err := strategy.NewDefaultRegistry()
	suite.Require().NoError(err)

	runner := NewRunner(registry, suite.engineConfig(), suite.sizer, suite.logger)

	series := suite.risingSeries(120)

	result, err := runner.Run(context.Background(), DefaultConfig(), "buy_hold", nil, series)
	suite.Require().NoError(err)

	suite.Require().Len(result.Windows, 3)

	for i, window := range result.Windows {
		suite.False(window.Failed(), "window %d: %s", i, window.Error)
		suite.Require().NotNil(window.InSample)
		suite.Require().NotNil(window.OutOfSample)

		// Train strictly precedes test; test ranges are time-ordered.
		suite.True(window.TrainRange.End.Equal(window.TestRange.Start) ||
			window.TrainRange.End.Before(window.TestRange.Start))

		if i > 0 {
			suite.True(result.Windows[i-1].TestRange.End.Equal(window.TestRange.Start))
		}
	}

	// Buy-and-hold over a rising series gains in every window.
	suite.Greater(result.OOSMeanReturnPct, 0.0)
	suite.Greater(result.ISMeanReturnPct, 0.0)
	suite.Equal("buy_hold", result.StrategyName)
	suite.Len(result.RunID, 16)

	// Same inputs, same run identifier.
	again, err := NewRunner(registry, suite.engineConfig(), suite.sizer, suite.logger).
		Run(context.Background(), DefaultConfig(), "buy_hold", nil, series)
	suite.Require().NoError(err)
	suite.Equal(result.RunID, again.RunID)
}

func (suite *RunnerTestSuite) TestWindowFailureIsIsolated() {
	registry := strategy.NewRegistry()

	// Bars after day 85 poison the final test window only.
	suite.Require().NoError(registry.Register(flakyDefinition(suite.start.AddDate(0, 0, 85))))

	runner := NewRunner(registry, suite.engineConfig(), suite.sizer, suite.logger)

	result, err := runner.Run(context.Background(), DefaultConfig(), "flaky", nil, suite.risingSeries(100))
	suite.Require().NoError(err)

	suite.Require().Len(result.Windows, 3)
	suite.False(result.Windows[0].Failed())
	suite.False(result.Windows[1].Failed())
	suite.True(result.Windows[2].Failed())
	suite.Contains(result.Windows[2].Error, "out-of-sample")
	suite.Nil(result.Windows[2].OutOfSample)
}

func (suite *RunnerTestSuite) TestAllWindowsFailedIsAnError() {
	registry := strategy.NewRegistry()

	// Cutoff before the series start: every window errors immediately.
	suite.Require().NoError(registry.Register(flakyDefinition(suite.start.AddDate(-1, 0, 0))))

	runner := NewRunner(registry, suite.engineConfig(), suite.sizer, suite.logger)

	_, err := runner.Run(context.Background(), DefaultConfig(), "flaky", nil, suite.risingSeries(100))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeWindowFailure))
}

func (suite *RunnerTestSuite) TestWindowConcurrencyIsBounded() {
	gauge := &concurrencyGauge{}
	registry := strategy.NewRegistry()
	suite.Require().NoError(registry.Register(trackingDefinition(gauge)))

	runner := NewRunner(registry, suite.engineConfig(), suite.sizer, suite.logger)

	config := DefaultConfig()
	config.Windows = 4
	config.Workers = 1

	result, err := runner.Run(context.Background(), config, "tracking", nil, suite.risingSeries(120))
	suite.Require().NoError(err)
	suite.Len(result.Windows, 4)

	suite.Equal(1, gauge.max(), "a single worker must evaluate windows one at a time")
}

func (suite *RunnerTestSuite) TestNegativeWorkersRejected() {
	registry, err := strategy.NewDefaultRegistry()
	suite.Require().NoError(err)

	runner := NewRunner(registry, suite.engineConfig(), suite.sizer, suite.logger)

	config := DefaultConfig()
	config.Workers = -1

	_, err = runner.Run(context.Background(), config, "buy_hold", nil, suite.risingSeries(100))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *RunnerTestSuite) TestUnknownStrategyFailsFast() {
	registry, err := strategy.NewDefaultRegistry()
	suite.Require().NoError(err)

	runner := NewRunner(registry, suite.engineConfig(), suite.sizer, suite.logger)

	_, err = runner.Run(context.Background(), DefaultConfig(), "nope", nil, suite.risingSeries(100))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))
}
