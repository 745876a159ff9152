package store

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

type ResultStoreTestSuite struct {
	suite.Suite

	store *ResultStore
}

func TestResultStoreTestSuite(t *testing.T) {
	suite.Run(t, new(ResultStoreTestSuite))
}

func (s *ResultStoreTestSuite) SetupTest() {
	store, err := NewResultStore(":memory:", logger.NewNopLogger())
	s.Require().NoError(err)
	s.store = store
}

func (s *ResultStoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *ResultStoreTestSuite) sampleBacktest(runID string, createdAt time.Time) *types.BacktestResult {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)

	return &types.BacktestResult{
		RunID:        runID,
		StrategyName: "sma_crossover",
		Symbol:       "AAPL",
		Start:        start,
		End:          end,
		Interval:     "1d",
		InitialCash:  100_000,
		FinalValue:   108_500,
		Params:       map[string]float64{"short_period": 20, "long_period": 50},
		EquityCurve: []types.EquityPoint{
			{Time: start, Equity: 100_000},
			{Time: end, Equity: 108_500},
		},
		Trades: []types.Trade{
			{
				Symbol:     "AAPL",
				Direction:  types.DirectionLong,
				Quantity:   100,
				OpenTime:   start.AddDate(0, 1, 0),
				CloseTime:  start.AddDate(0, 3, 0),
				OpenPrice:  180,
				ClosePrice: 265,
				PnL:        8_500,
				PnLPct:     47.2,
				Commission: 36,
			},
		},
		Metrics: types.Metrics{
			TotalReturn:     8_500,
			TotalReturnPct:  8.5,
			Sharpe:          optional.Some(1.42),
			MaxDrawdown:     3_000,
			MaxDrawdownPct:  2.8,
			WinRate:         optional.Some(100.0),
			AvgTradePnL:     optional.Some(8_500.0),
			TotalTrades:     1,
			WinningTrades:   1,
			TotalCommission: 36,
			BuyAndHoldPnL:   6_200,
		},
		CreatedAt: createdAt,
	}
}

func (s *ResultStoreTestSuite) TestBacktestRoundTrip() {
	original := s.sampleBacktest("abc123def4567890", time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))

	s.Require().NoError(s.store.SaveBacktest(context.Background(), original))

	loaded, err := s.store.GetBacktest(context.Background(), original.RunID)
	s.Require().NoError(err)

	s.Equal(original.RunID, loaded.RunID)
	s.Equal(original.StrategyName, loaded.StrategyName)
	s.Equal(original.Symbol, loaded.Symbol)
	s.Equal(original.Params, loaded.Params)
	s.Require().Len(loaded.Trades, 1)
	s.InDelta(original.Trades[0].PnL, loaded.Trades[0].PnL, 1e-9)
	s.InDelta(original.Metrics.TotalReturnPct, loaded.Metrics.TotalReturnPct, 1e-9)

	sharpe, err := loaded.Metrics.Sharpe.Take()
	s.Require().NoError(err)
	s.InDelta(1.42, sharpe, 1e-9)
}

func (s *ResultStoreTestSuite) TestOverwriteSameRunID() {
	first := s.sampleBacktest("abc123def4567890", time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.SaveBacktest(context.Background(), first))

	second := s.sampleBacktest("abc123def4567890", time.Date(2024, 7, 2, 12, 0, 0, 0, time.UTC))
	second.FinalValue = 95_000
	second.Metrics.TotalReturnPct = -5
	s.Require().NoError(s.store.SaveBacktest(context.Background(), second))

	loaded, err := s.store.GetBacktest(context.Background(), "abc123def4567890")
	s.Require().NoError(err)
	s.InDelta(95_000, loaded.FinalValue, 1e-9)

	summaries, err := s.store.List(context.Background(), ListFilter{})
	s.Require().NoError(err)
	s.Len(summaries, 1, "saving the same run ID twice must not duplicate")
	s.InDelta(-5, summaries[0].TotalReturnPct, 1e-9)
}

func (s *ResultStoreTestSuite) TestWalkForwardRoundTrip() {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	original := &types.WalkForwardResult{
		RunID:        "ffff000011112222",
		StrategyName: "momentum_breakout",
		Symbol:       "NVDA",
		Start:        start,
		End:          start.AddDate(1, 0, 0),
		WindowCount:  3,
		TrainFrac:    0.7,
		Windows: []types.WalkForwardWindow{
			{Index: 0, Error: "window 0 out-of-sample run failed"},
			{Index: 1},
			{Index: 2},
		},
		OOSMeanReturnPct: 4.2,
		OOSVarReturnPct:  1.1,
		OOSMeanSharpe:    optional.Some(0.9),
		ISMeanReturnPct:  9.6,
		OverfitRatio:     0.5625,
		Overfit:          true,
		CreatedAt:        time.Date(2024, 7, 3, 9, 0, 0, 0, time.UTC),
	}

	s.Require().NoError(s.store.SaveWalkForward(context.Background(), original))

	loaded, err := s.store.GetWalkForward(context.Background(), original.RunID)
	s.Require().NoError(err)

	s.Equal(original.RunID, loaded.RunID)
	s.Equal(3, loaded.WindowCount)
	s.Require().Len(loaded.Windows, 3)
	s.True(loaded.Windows[0].Failed())
	s.False(loaded.Windows[1].Failed())
	s.InDelta(original.OverfitRatio, loaded.OverfitRatio, 1e-9)
	s.True(loaded.Overfit)
}

func (s *ResultStoreTestSuite) TestGetMissingResult() {
	_, err := s.store.GetBacktest(context.Background(), "deadbeefdeadbeef")

	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeResultNotFound))

	_, err = s.store.GetWalkForward(context.Background(), "deadbeefdeadbeef")

	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeResultNotFound))
}

func (s *ResultStoreTestSuite) TestKindsDoNotCollide() {
	backtest := s.sampleBacktest("abc123def4567890", time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.SaveBacktest(context.Background(), backtest))

	// Same run ID under the other kind must stay invisible to GetWalkForward.
	_, err := s.store.GetWalkForward(context.Background(), backtest.RunID)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeResultNotFound))
}

func (s *ResultStoreTestSuite) TestListFilters() {
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	first := s.sampleBacktest("1111111111111111", base)
	s.Require().NoError(s.store.SaveBacktest(context.Background(), first))

	second := s.sampleBacktest("2222222222222222", base.AddDate(0, 0, 1))
	second.StrategyName = "buy_the_dip"
	second.Symbol = "MSFT"
	s.Require().NoError(s.store.SaveBacktest(context.Background(), second))

	wf := &types.WalkForwardResult{
		RunID:        "3333333333333333",
		StrategyName: "sma_crossover",
		Symbol:       "AAPL",
		Start:        base.AddDate(-1, 0, 0),
		End:          base,
		WindowCount:  3,
		TrainFrac:    0.7,
		CreatedAt:    base.AddDate(0, 0, 2),
	}
	s.Require().NoError(s.store.SaveWalkForward(context.Background(), wf))

	all, err := s.store.List(context.Background(), ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	// Newest first.
	s.Equal("3333333333333333", all[0].RunID)
	s.Equal("2222222222222222", all[1].RunID)
	s.Equal("1111111111111111", all[2].RunID)

	backtests, err := s.store.List(context.Background(), ListFilter{Kind: KindBacktest})
	s.Require().NoError(err)
	s.Len(backtests, 2)

	bySymbol, err := s.store.List(context.Background(), ListFilter{Symbol: "MSFT"})
	s.Require().NoError(err)
	s.Require().Len(bySymbol, 1)
	s.Equal("2222222222222222", bySymbol[0].RunID)

	byStrategy, err := s.store.List(context.Background(), ListFilter{StrategyName: "sma_crossover"})
	s.Require().NoError(err)
	s.Len(byStrategy, 2)

	limited, err := s.store.List(context.Background(), ListFilter{Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal("3333333333333333", limited[0].RunID)
}

func (s *ResultStoreTestSuite) TestDelete() {
	backtest := s.sampleBacktest("abc123def4567890", time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.SaveBacktest(context.Background(), backtest))

	s.Require().NoError(s.store.Delete(context.Background(), backtest.RunID, KindBacktest))

	_, err := s.store.GetBacktest(context.Background(), backtest.RunID)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeResultNotFound))

	err = s.store.Delete(context.Background(), backtest.RunID, KindBacktest)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeResultNotFound))
}
