package dataprovider

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// DuckDBProvider serves bars and metadata from a local DuckDB database.
// Bars are ingested once from CSV or Parquet files and queried per run.
type DuckDBProvider struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBProvider opens (or creates) the DuckDB database at path and
// ensures the bar and metadata tables exist. Use ":memory:" for tests.
func NewDuckDBProvider(path string, l *logger.Logger) (*DuckDBProvider, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to open DuckDB at %s", path)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			symbol VARCHAR NOT NULL,
			time TIMESTAMP NOT NULL,
			open DOUBLE NOT NULL,
			high DOUBLE NOT NULL,
			low DOUBLE NOT NULL,
			close DOUBLE NOT NULL,
			volume DOUBLE NOT NULL,
			interval VARCHAR NOT NULL DEFAULT '1d',
			PRIMARY KEY (symbol, interval, time)
		);

		CREATE TABLE IF NOT EXISTS symbol_metadata (
			symbol VARCHAR PRIMARY KEY,
			name VARCHAR,
			sector VARCHAR,
			market_cap DOUBLE,
			avg_volume DOUBLE
		);
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to create schema", err)
	}

	return &DuckDBProvider{
		db:     db,
		logger: l,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Close releases the database handle.
func (p *DuckDBProvider) Close() error {
	return p.db.Close()
}

// Ingest loads bars for the symbol from a CSV or Parquet file into the bars
// table. The file must carry time, open, high, low, close and volume
// columns; existing rows for the symbol and interval are replaced.
func (p *DuckDBProvider) Ingest(ctx context.Context, symbol, path string, interval Interval) error {
	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader = "read_csv_auto"
	case ".parquet":
		reader = "read_parquet"
	default:
		return errors.Newf(errors.ErrCodeIngestionFailed, "unsupported file format: %s", path)
	}

	p.logger.Debug("Ingesting bars",
		zap.String("symbol", symbol),
		zap.String("path", path),
		zap.String("interval", string(interval)),
	)

	_, err := p.db.ExecContext(ctx,
		"DELETE FROM bars WHERE symbol = $1 AND interval = $2", symbol, string(interval))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeIngestionFailed, err, "failed to clear bars for %s", symbol)
	}

	// CREATE/INSERT with a table function cannot be parameterized; the
	// reader name is chosen from a fixed set above.
	query := fmt.Sprintf(`
		INSERT INTO bars (symbol, time, open, high, low, close, volume, interval)
		SELECT $1, time, open, high, low, close, volume, $2 FROM %s($3)
		ORDER BY time
	`, reader)

	_, err = p.db.ExecContext(ctx, query, symbol, string(interval), path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeIngestionFailed, err, "failed to ingest %s for %s", path, symbol)
	}

	return nil
}

// SetMetadata upserts screening metadata for a symbol.
func (p *DuckDBProvider) SetMetadata(ctx context.Context, meta Metadata) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO symbol_metadata (symbol, name, sector, market_cap, avg_volume)
		VALUES ($1, $2, $3, $4, $5)
	`, meta.Symbol, meta.Name, meta.Sector, meta.MarketCap, meta.AvgVolume)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to upsert metadata for %s", meta.Symbol)
	}

	return nil
}

// GetBars implements Provider.
func (p *DuckDBProvider) GetBars(ctx context.Context, symbol string, start, end time.Time, interval Interval) (*types.BarSeries, error) {
	query, args, err := p.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("bars").
		Where(squirrel.Eq{"symbol": symbol, "interval": string(interval)}).
		Where(squirrel.GtOrEq{"time": start}).
		Where(squirrel.Lt{"time": end}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bar query", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "bar query failed for %s", symbol)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		var bar types.Bar
		if err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to scan bar for %s", symbol)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "bar iteration failed for %s", symbol)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoData,
			"no bars for symbol %s in [%s, %s)", symbol,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return types.NewBarSeries(symbol, bars)
}

// GetMetadata implements Provider.
func (p *DuckDBProvider) GetMetadata(ctx context.Context, symbol string) (Metadata, error) {
	query, args, err := p.sq.
		Select("symbol", "name", "sector", "market_cap", "avg_volume").
		From("symbol_metadata").
		Where(squirrel.Eq{"symbol": symbol}).
		ToSql()
	if err != nil {
		return Metadata{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build metadata query", err)
	}

	var meta Metadata

	row := p.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&meta.Symbol, &meta.Name, &meta.Sector, &meta.MarketCap, &meta.AvgVolume); err != nil {
		if err == sql.ErrNoRows {
			return Metadata{}, errors.Newf(errors.ErrCodeMetadataMissing, "no metadata for symbol %s", symbol)
		}

		return Metadata{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "metadata query failed for %s", symbol)
	}

	return meta, nil
}
