package dataprovider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// TimeoutProvider decorates a Provider with a per-call deadline so a slow
// backend cannot stall a whole screening run.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps the provider with a per-call deadline. A non-positive
// timeout returns the provider unchanged.
func WithTimeout(inner Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return inner
	}

	return &TimeoutProvider{inner: inner, timeout: timeout}
}

// GetBars implements Provider.
func (p *TimeoutProvider) GetBars(ctx context.Context, symbol string, start, end time.Time, interval Interval) (*types.BarSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	series, err := p.inner.GetBars(ctx, symbol, start, end, interval)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return nil, errors.Wrapf(errors.ErrCodeDataTimeout, err,
			"bar fetch for %s exceeded %s", symbol, p.timeout)
	}

	return series, err
}

// GetMetadata implements Provider.
func (p *TimeoutProvider) GetMetadata(ctx context.Context, symbol string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	meta, err := p.inner.GetMetadata(ctx, symbol)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return Metadata{}, errors.Wrapf(errors.ErrCodeDataTimeout, err,
			"metadata fetch for %s exceeded %s", symbol, p.timeout)
	}

	return meta, err
}
