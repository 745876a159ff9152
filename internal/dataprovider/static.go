package dataprovider

import (
	"context"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// StaticProvider serves bars and metadata from memory. It backs tests and
// dry-run screening, where deterministic data matters more than freshness.
type StaticProvider struct {
	mu       sync.RWMutex
	series   map[string]*types.BarSeries
	metadata map[string]Metadata
}

// NewStaticProvider creates an empty static provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		series:   make(map[string]*types.BarSeries),
		metadata: make(map[string]Metadata),
	}
}

// SetBars installs the bar series served for the symbol.
func (p *StaticProvider) SetBars(symbol string, series *types.BarSeries) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.series[symbol] = series
}

// SetMetadata installs the metadata served for the symbol.
func (p *StaticProvider) SetMetadata(symbol string, meta Metadata) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metadata[symbol] = meta
}

// GetBars implements Provider. The interval is ignored; the installed
// series is filtered to [start, end).
func (p *StaticProvider) GetBars(ctx context.Context, symbol string, start, end time.Time, interval Interval) (*types.BarSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataTimeout, err, "bar fetch for %s canceled", symbol)
	}

	p.mu.RLock()
	series, ok := p.series[symbol]
	p.mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrCodeNoData, "no bars installed for symbol %s", symbol)
	}

	var bars []types.Bar

	for _, bar := range series.Bars() {
		if !bar.Time.Before(start) && bar.Time.Before(end) {
			bars = append(bars, bar)
		}
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoData,
			"no bars for symbol %s in [%s, %s)", symbol,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return types.NewBarSeries(symbol, bars)
}

// GetMetadata implements Provider.
func (p *StaticProvider) GetMetadata(ctx context.Context, symbol string) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, errors.Wrapf(errors.ErrCodeDataTimeout, err, "metadata fetch for %s canceled", symbol)
	}

	p.mu.RLock()
	meta, ok := p.metadata[symbol]
	p.mu.RUnlock()

	if !ok {
		return Metadata{}, errors.Newf(errors.ErrCodeMetadataMissing, "no metadata installed for symbol %s", symbol)
	}

	return meta, nil
}
