package dataprovider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// avgVolumeLookbackDays is the trailing window used to derive the average
// daily volume reported in metadata.
const avgVolumeLookbackDays = 30

// PolygonProvider serves bars and metadata from the Polygon REST API.
type PolygonProvider struct {
	client *polygon.Client
	logger *logger.Logger
}

// NewPolygonProvider creates a provider backed by the Polygon REST API.
func NewPolygonProvider(apiKey string, l *logger.Logger) (*PolygonProvider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key is required")
	}

	return &PolygonProvider{
		client: polygon.New(apiKey),
		logger: l,
	}, nil
}

func (p *PolygonProvider) aggParams(symbol string, start, end time.Time, interval Interval) (*models.ListAggsParams, error) {
	var (
		multiplier int
		timespan   models.Timespan
	)

	switch interval {
	case Interval1Min:
		multiplier, timespan = 1, models.Minute
	case Interval1Hour:
		multiplier, timespan = 1, models.Hour
	case Interval1Day:
		multiplier, timespan = 1, models.Day
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported interval %q", interval)
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithOrder(models.Asc).WithLimit(50000)

	return params, nil
}

// GetBars implements Provider.
func (p *PolygonProvider) GetBars(ctx context.Context, symbol string, start, end time.Time, interval Interval) (*types.BarSeries, error) {
	params, err := p.aggParams(symbol, start, end, interval)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Fetching bars from Polygon",
		zap.String("symbol", symbol),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	var bars []types.Bar

	iter := p.client.ListAggs(ctx, params)
	for iter.Next() {
		agg := iter.Item()

		barTime := time.Time(agg.Timestamp)
		if barTime.Before(start) || !barTime.Before(end) {
			continue
		}

		bars = append(bars, types.Bar{
			Time:   barTime,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataUnavailable, err, "polygon aggregate fetch failed for %s", symbol)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoData,
			"polygon returned no bars for %s in [%s, %s)", symbol,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return types.NewBarSeries(symbol, bars)
}

// GetMetadata implements Provider. Market cap and classification come from
// ticker details; average volume is derived from recent daily bars.
func (p *PolygonProvider) GetMetadata(ctx context.Context, symbol string) (Metadata, error) {
	details, err := p.client.GetTickerDetails(ctx, &models.GetTickerDetailsParams{
		Ticker: symbol,
	})
	if err != nil {
		return Metadata{}, errors.Wrapf(errors.ErrCodeMetadataMissing, err, "polygon ticker details failed for %s", symbol)
	}

	meta := Metadata{
		Symbol:    symbol,
		Name:      details.Results.Name,
		Sector:    details.Results.SICDescription,
		MarketCap: details.Results.MarketCap,
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -avgVolumeLookbackDays)

	series, err := p.GetBars(ctx, symbol, start, end, Interval1Day)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNoData) {
			return meta, nil
		}

		return Metadata{}, err
	}

	var total float64
	for _, v := range series.Volumes() {
		total += v
	}

	meta.AvgVolume = total / float64(series.Len())

	return meta, nil
}
