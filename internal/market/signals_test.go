package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-advisor/internal/dataprovider"
	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/strategy"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// scriptedSignaler fires a fixed direction whenever the prefix length
// reaches fireAt, and FLAT otherwise.
type scriptedSignaler struct {
	key       string
	warmup    int
	fireAt    int
	direction types.Direction
}

func (s *scriptedSignaler) Key() string             { return s.key }
func (s *scriptedSignaler) Family() strategy.Family { return strategy.FamilyEquity }
func (s *scriptedSignaler) Warmup() int             { return s.warmup }

func (s *scriptedSignaler) Next(series *types.BarSeries) (types.Signal, error) {
	if series.Len() == s.fireAt {
		return types.Signal{
			Time:      series.Last().Time,
			Direction: s.direction,
			Strength:  1,
			Reason:    "scripted",
		}, nil
	}

	return types.Signal{Time: series.Last().Time, Direction: types.DirectionFlat}, nil
}

func scriptedDefinition(key string, warmup, fireAt int, direction types.Direction) strategy.Definition {
	return strategy.Definition{
		Key:     key,
		Family:  strategy.FamilyEquity,
		Version: "1.0.0",
		New: func(strategy.Params) (strategy.Strategy, error) {
			return &scriptedSignaler{key: key, warmup: warmup, fireAt: fireAt, direction: direction}, nil
		},
	}
}

type SignalScannerTestSuite struct {
	suite.Suite
}

func TestSignalScannerTestSuite(t *testing.T) {
	suite.Run(t, new(SignalScannerTestSuite))
}

func (s *SignalScannerTestSuite) flatSeries(symbol string, n int) *types.BarSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, n)

	for i := range bars {
		bars[i] = types.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: 1_000_000,
		}
	}

	series, err := types.NewBarSeries(symbol, bars)
	s.Require().NoError(err)

	return series
}

func (s *SignalScannerTestSuite) TestLatestActionableSignalWins() {
	registry := strategy.NewRegistry()
	// Fires LONG at prefix 10; later bars are flat, so the scan must still
	// report the bar-10 entry, not the trailing flat.
	s.Require().NoError(registry.Register(scriptedDefinition("entry", 5, 10, types.DirectionLong)))
	s.Require().NoError(registry.Register(scriptedDefinition("exit", 5, 15, types.DirectionExit)))

	series := s.flatSeries("AAPL", 20)
	scanner := NewSignalScanner(registry, dataprovider.NewStaticProvider(), logger.NewNopLogger())

	scan, err := scanner.ScanSeries(context.Background(), series)

	s.Require().NoError(err)
	s.Equal("AAPL", scan.Symbol)
	s.Equal(20, scan.Bars)
	s.Require().Len(scan.Signals, 2)

	// Registry keys come back sorted.
	s.Equal("entry", scan.Signals[0].StrategyKey)
	s.True(scan.Signals[0].Evaluated)
	s.Equal(types.DirectionLong, scan.Signals[0].Signal.Direction)
	s.Equal(series.At(9).Time, scan.Signals[0].Signal.Time)

	s.Equal("exit", scan.Signals[1].StrategyKey)
	s.Equal(types.DirectionExit, scan.Signals[1].Signal.Direction)
	s.Equal(series.At(14).Time, scan.Signals[1].Signal.Time)
}

func (s *SignalScannerTestSuite) TestShortSeriesSkipsStrategy() {
	registry := strategy.NewRegistry()
	s.Require().NoError(registry.Register(scriptedDefinition("cheap", 5, 8, types.DirectionLong)))
	s.Require().NoError(registry.Register(scriptedDefinition("hungry", 50, 60, types.DirectionLong)))

	series := s.flatSeries("AAPL", 10)
	scanner := NewSignalScanner(registry, dataprovider.NewStaticProvider(), logger.NewNopLogger())

	scan, err := scanner.ScanSeries(context.Background(), series)

	s.Require().NoError(err)
	s.Require().Len(scan.Signals, 2)

	s.True(scan.Signals[0].Evaluated)
	s.Equal(types.DirectionLong, scan.Signals[0].Signal.Direction)

	s.False(scan.Signals[1].Evaluated, "strategy with warmup beyond the series must be skipped")
	s.Equal(50, scan.Signals[1].Warmup)
	s.Empty(scan.Signals[1].Signal.Direction)
}

func (s *SignalScannerTestSuite) TestNeverFiredReportsFinalFlat() {
	registry := strategy.NewRegistry()
	s.Require().NoError(registry.Register(scriptedDefinition("quiet", 5, 999, types.DirectionLong)))

	series := s.flatSeries("AAPL", 12)
	scanner := NewSignalScanner(registry, dataprovider.NewStaticProvider(), logger.NewNopLogger())

	scan, err := scanner.ScanSeries(context.Background(), series)

	s.Require().NoError(err)
	s.Require().Len(scan.Signals, 1)
	s.True(scan.Signals[0].Evaluated)
	s.Equal(types.DirectionFlat, scan.Signals[0].Signal.Direction)
	s.Equal(series.Last().Time, scan.Signals[0].Signal.Time)
}

func (s *SignalScannerTestSuite) TestScanFetchesFromProvider() {
	registry := strategy.NewRegistry()
	s.Require().NoError(registry.Register(scriptedDefinition("entry", 3, 6, types.DirectionLong)))

	provider := dataprovider.NewStaticProvider()
	series := s.flatSeries("MSFT", 8)
	provider.SetBars("MSFT", series)

	scanner := NewSignalScanner(registry, provider, logger.NewNopLogger())

	start := series.First().Time
	end := series.Last().Time.AddDate(0, 0, 1)

	scan, err := scanner.Scan(context.Background(), "MSFT", start, end, dataprovider.Interval1Day)

	s.Require().NoError(err)
	s.Equal("MSFT", scan.Symbol)
	s.Equal(8, scan.Bars)
	s.Equal(types.DirectionLong, scan.Signals[0].Signal.Direction)
}

func (s *SignalScannerTestSuite) TestEmptySeriesRejected() {
	registry := strategy.NewRegistry()
	scanner := NewSignalScanner(registry, dataprovider.NewStaticProvider(), logger.NewNopLogger())

	_, err := scanner.ScanSeries(context.Background(), nil)

	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidBarSeries))
}
