package market

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-advisor/internal/dataprovider"
	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/strategy"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// StrategySignal is one strategy's most recent actionable opinion on a
// symbol. Evaluated is false when the series is shorter than the
// strategy's warmup.
type StrategySignal struct {
	StrategyKey string          `json:"strategy_key"`
	Family      strategy.Family `json:"family"`
	Warmup      int             `json:"warmup"`
	Evaluated   bool            `json:"evaluated"`
	Signal      types.Signal    `json:"signal"`
}

// SignalScan is the cross-strategy signal report for one symbol.
type SignalScan struct {
	Symbol    string           `json:"symbol"`
	Bars      int              `json:"bars"`
	Signals   []StrategySignal `json:"signals"`
	ScannedAt time.Time        `json:"scanned_at"`
}

// SignalScanner replays every registered strategy over a symbol's history
// and reports each strategy's latest actionable signal.
type SignalScanner struct {
	registry *strategy.Registry
	provider dataprovider.Provider
	logger   *logger.Logger
}

// NewSignalScanner creates a signal scanner.
func NewSignalScanner(registry *strategy.Registry, provider dataprovider.Provider, l *logger.Logger) *SignalScanner {
	return &SignalScanner{
		registry: registry,
		provider: provider,
		logger:   l,
	}
}

// Scan fetches bars for the symbol and evaluates every registered
// strategy with default parameters. Results come back in registry key
// order.
func (s *SignalScanner) Scan(ctx context.Context, symbol string, start, end time.Time, interval dataprovider.Interval) (*SignalScan, error) {
	series, err := s.provider.GetBars(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, err
	}

	return s.ScanSeries(ctx, series)
}

// ScanSeries evaluates every registered strategy against an already
// fetched series.
func (s *SignalScanner) ScanSeries(ctx context.Context, series *types.BarSeries) (*SignalScan, error) {
	if series == nil || series.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidBarSeries, "signal scan requires a non-empty bar series")
	}

	scan := &SignalScan{
		Symbol:    series.Symbol(),
		Bars:      series.Len(),
		ScannedAt: time.Now().UTC(),
	}

	for _, key := range s.registry.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataTimeout, "signal scan canceled", err)
		}

		def, err := s.registry.Get(key)
		if err != nil {
			return nil, err
		}

		strat, _, err := s.registry.Build(key, nil)
		if err != nil {
			return nil, err
		}

		entry := StrategySignal{
			StrategyKey: key,
			Family:      def.Family,
			Warmup:      strat.Warmup(),
		}

		if series.Len() >= strat.Warmup() {
			signal, err := latestActionableSignal(strat, series)
			if err != nil {
				return nil, err
			}

			entry.Evaluated = true
			entry.Signal = signal
		}

		scan.Signals = append(scan.Signals, entry)
	}

	s.logger.Debug("Signal scan complete",
		zap.String("symbol", scan.Symbol),
		zap.Int("strategies", len(scan.Signals)),
	)

	return scan, nil
}

// latestActionableSignal replays the strategy over growing prefixes and
// keeps the most recent non-flat signal, falling back to the final signal
// when the strategy never acted.
func latestActionableSignal(strat strategy.Strategy, series *types.BarSeries) (types.Signal, error) {
	var last types.Signal

	for i := strat.Warmup(); i <= series.Len(); i++ {
		signal, err := strat.Next(series.Prefix(i))
		if err != nil {
			return types.Signal{}, errors.Wrapf(errors.ErrCodeStrategySignal, err,
				"strategy %s failed during signal scan", strat.Key())
		}

		if signal.ImpliesChange() || i == series.Len() && last.Direction == "" {
			last = signal
		}
	}

	return last, nil
}
