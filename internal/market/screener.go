// Package market screens a symbol universe: cheap liquidity filters first,
// then full confluence evaluation of the survivors on a bounded worker
// pool. One bad symbol never aborts a scan.
package market

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-advisor/internal/confluence"
	"github.com/rxtech-lab/argo-advisor/internal/dataprovider"
	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// FilterConfig gates the universe on liquidity before any bar data is
// fetched. Zero values disable the corresponding filter.
type FilterConfig struct {
	MinAvgVolume float64 `yaml:"min_avg_volume" json:"min_avg_volume" validate:"gte=0"`
	MinMarketCap float64 `yaml:"min_market_cap" json:"min_market_cap" validate:"gte=0"`
	// Sectors, when non-empty, restricts candidates to the listed sectors.
	Sectors []string `yaml:"sectors" json:"sectors"`
}

// DefaultFilterConfig returns the default liquidity gates: 500k average
// daily volume and a $2B market cap floor.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinAvgVolume: 500_000,
		MinMarketCap: 2e9,
	}
}

// Passes reports whether the metadata clears the filters.
func (f FilterConfig) Passes(meta dataprovider.Metadata) bool {
	if f.MinAvgVolume > 0 && meta.AvgVolume < f.MinAvgVolume {
		return false
	}

	if f.MinMarketCap > 0 && meta.MarketCap < f.MinMarketCap {
		return false
	}

	if len(f.Sectors) > 0 && !slices.Contains(f.Sectors, meta.Sector) {
		return false
	}

	return true
}

// FilterStats is the scan funnel: how many symbols survived each stage.
type FilterStats struct {
	Universe        int `json:"universe"`
	MissingMetadata int `json:"missing_metadata"`
	PassedFilters   int `json:"passed_filters"`
	Evaluated       int `json:"evaluated"`
	Failed          int `json:"failed"`
}

// CandidateFailure records one symbol whose evaluation failed. Failures
// are isolated; the scan continues with the remaining candidates.
type CandidateFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// ScanConfig parameterizes one screening run.
type ScanConfig struct {
	// StrategyKey selects the strategy driving the technical layer.
	StrategyKey string `yaml:"strategy" json:"strategy" validate:"required"`
	// Start and End bound the bar history fetched per candidate.
	Start time.Time `yaml:"start" json:"start" validate:"required"`
	End   time.Time `yaml:"end" json:"end" validate:"required,gtfield=Start"`
	// Interval is the bar aggregation window.
	Interval dataprovider.Interval `yaml:"interval" json:"interval" validate:"required"`
	// Workers bounds concurrent candidate evaluation.
	Workers int `yaml:"workers" json:"workers" validate:"min=1"`
	// DryRun stops after the filter funnel: candidates are listed but no
	// bars are fetched and no confluence layer runs.
	DryRun bool `yaml:"dry_run" json:"dry_run"`
	// Filters gates the universe before evaluation.
	Filters FilterConfig `yaml:"filters" json:"filters"`
	// Progress, when set, is invoked after each candidate finishes
	// evaluation. Calls are serialized.
	Progress func(completed, total int) `yaml:"-" json:"-" validate:"-"`
}

// DefaultScanConfig returns a scan config with default filters, four
// workers and a one-year daily lookback ending now.
func DefaultScanConfig(strategyKey string) ScanConfig {
	end := time.Now().UTC().Truncate(24 * time.Hour)

	return ScanConfig{
		StrategyKey: strategyKey,
		Start:       end.AddDate(-1, 0, 0),
		End:         end,
		Interval:    dataprovider.Interval1Day,
		Workers:     4,
		Filters:     DefaultFilterConfig(),
	}
}

// Validate validates the scan configuration.
func (c *ScanConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid scan configuration", err)
	}

	return nil
}

// ScanResult is the outcome of one screening run.
type ScanResult struct {
	StrategyName string `json:"strategy_name"`
	// Candidates are the symbols that cleared the filter funnel, sorted
	// alphabetically. In a dry run this is the final output.
	Candidates []string `json:"candidates"`
	// Verdicts are sorted by composite score descending, ties broken by
	// symbol, so equal inputs always produce equal output order.
	Verdicts  []types.Verdict    `json:"verdicts"`
	Stats     FilterStats        `json:"stats"`
	Failures  []CandidateFailure `json:"failures,omitempty"`
	ScannedAt time.Time          `json:"scanned_at"`
}

// Screener runs market scans against a data provider and a confluence
// pipeline.
type Screener struct {
	provider dataprovider.Provider
	pipeline *confluence.Pipeline
	logger   *logger.Logger
}

// NewScreener creates a screener.
func NewScreener(provider dataprovider.Provider, pipeline *confluence.Pipeline, l *logger.Logger) *Screener {
	return &Screener{
		provider: provider,
		pipeline: pipeline,
		logger:   l,
	}
}

// Scan filters the universe and evaluates the survivors. Metadata misses
// and candidate failures are recorded, never fatal; only an empty universe
// or an invalid configuration fails the scan itself.
func (s *Screener) Scan(ctx context.Context, config ScanConfig, universe []string) (*ScanResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if len(universe) == 0 {
		return nil, errors.New(errors.ErrCodeUniverseEmpty, "scan universe is empty")
	}

	s.logger.Info("Starting market scan",
		zap.String("strategy", config.StrategyKey),
		zap.Int("universe", len(universe)),
		zap.Int("workers", config.Workers),
		zap.Bool("dry_run", config.DryRun),
	)

	result := &ScanResult{
		StrategyName: config.StrategyKey,
		Stats:        FilterStats{Universe: len(universe)},
		ScannedAt:    time.Now().UTC(),
	}

	candidates := s.filter(ctx, config, universe, result)

	sort.Strings(candidates)
	result.Candidates = candidates
	result.Stats.PassedFilters = len(candidates)

	if config.DryRun {
		return result, nil
	}

	s.evaluate(ctx, config, candidates, result)

	sort.Slice(result.Verdicts, func(i, j int) bool {
		if result.Verdicts[i].CompositeScore != result.Verdicts[j].CompositeScore {
			return result.Verdicts[i].CompositeScore > result.Verdicts[j].CompositeScore
		}

		return result.Verdicts[i].Symbol < result.Verdicts[j].Symbol
	})

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Symbol < result.Failures[j].Symbol
	})

	return result, nil
}

// filter runs the metadata funnel over the universe on the worker pool.
func (s *Screener) filter(ctx context.Context, config ScanConfig, universe []string, result *ScanResult) []string {
	var (
		mu         sync.Mutex
		candidates []string
	)

	s.forEach(config.Workers, universe, func(symbol string) {
		meta, err := s.provider.GetMetadata(ctx, symbol)
		if err != nil {
			mu.Lock()
			defer mu.Unlock()

			if errors.HasCode(err, errors.ErrCodeMetadataMissing) {
				result.Stats.MissingMetadata++

				return
			}

			result.Stats.Failed++
			result.Failures = append(result.Failures, CandidateFailure{
				Symbol: symbol,
				Error:  errors.Wrapf(errors.ErrCodeCandidateFailure, err, "metadata fetch for %s failed", symbol).Error(),
			})

			return
		}

		if !config.Filters.Passes(meta) {
			return
		}

		mu.Lock()
		candidates = append(candidates, symbol)
		mu.Unlock()
	})

	return candidates
}

// evaluate runs the confluence pipeline over the candidates on the worker
// pool.
func (s *Screener) evaluate(ctx context.Context, config ScanConfig, candidates []string, result *ScanResult) {
	var (
		mu        sync.Mutex
		completed int
	)

	s.forEach(config.Workers, candidates, func(symbol string) {
		verdict, err := s.evaluateOne(ctx, config, symbol)

		mu.Lock()
		defer mu.Unlock()

		completed++
		if config.Progress != nil {
			config.Progress(completed, len(candidates))
		}

		if err != nil {
			result.Stats.Failed++
			result.Failures = append(result.Failures, CandidateFailure{
				Symbol: symbol,
				Error:  err.Error(),
			})

			return
		}

		result.Stats.Evaluated++
		result.Verdicts = append(result.Verdicts, *verdict)
	})
}

func (s *Screener) evaluateOne(ctx context.Context, config ScanConfig, symbol string) (*types.Verdict, error) {
	series, err := s.provider.GetBars(ctx, symbol, config.Start, config.End, config.Interval)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCandidateFailure, err, "bar fetch for %s failed", symbol)
	}

	verdict, err := s.pipeline.Evaluate(ctx, confluence.ScoreInput{
		Symbol:       symbol,
		StrategyName: config.StrategyKey,
		Series:       series,
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCandidateFailure, err, "confluence evaluation for %s failed", symbol)
	}

	return verdict, nil
}

// forEach fans the symbols out over at most workers goroutines.
func (s *Screener) forEach(workers int, symbols []string, fn func(symbol string)) {
	if workers > len(symbols) {
		workers = len(symbols)
	}

	if workers < 1 {
		workers = 1
	}

	queue := make(chan string)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for symbol := range queue {
				fn(symbol)
			}
		}()
	}

	for _, symbol := range symbols {
		queue <- symbol
	}

	close(queue)
	wg.Wait()
}
