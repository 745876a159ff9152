// Package store persists backtest and walk-forward results in DuckDB.
// Results are keyed by their deterministic run ID: saving the same run
// twice overwrites in place, so reruns never accumulate duplicates.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-advisor/internal/logger"
	"github.com/rxtech-lab/argo-advisor/internal/types"
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// ResultKind discriminates the stored result families.
type ResultKind string

const (
	KindBacktest    ResultKind = "backtest"
	KindWalkForward ResultKind = "walkforward"
)

// ResultSummary is the listing row for one stored result: enough to pick a
// run from a table without decoding the full payload.
type ResultSummary struct {
	RunID          string     `json:"run_id"`
	Kind           ResultKind `json:"kind"`
	StrategyName   string     `json:"strategy_name"`
	Symbol         string     `json:"symbol"`
	Start          time.Time  `json:"start"`
	End            time.Time  `json:"end"`
	TotalReturnPct float64    `json:"total_return_pct"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ListFilter narrows a listing. Zero values match everything.
type ListFilter struct {
	Kind         ResultKind
	StrategyName string
	Symbol       string
	Limit        int
}

// ResultStore persists results in a local DuckDB database.
type ResultStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultStore opens (or creates) the DuckDB database at path and ensures
// the results table exists. Use ":memory:" for tests.
func NewResultStore(path string, l *logger.Logger) (*ResultStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to open DuckDB at %s", path)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			run_id VARCHAR NOT NULL,
			kind VARCHAR NOT NULL,
			strategy_name VARCHAR NOT NULL,
			symbol VARCHAR NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NOT NULL,
			total_return_pct DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			payload VARCHAR NOT NULL,
			PRIMARY KEY (run_id, kind)
		);
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to create results schema", err)
	}

	return &ResultStore{
		db:     db,
		logger: l,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Close releases the database handle.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

// SaveBacktest persists a backtest result, replacing any previous result
// with the same run ID.
func (s *ResultStore) SaveBacktest(ctx context.Context, result *types.BacktestResult) error {
	payload, err := types.MarshalBacktestResult(result)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to encode backtest %s", result.RunID)
	}

	return s.save(ctx, ResultSummary{
		RunID:          result.RunID,
		Kind:           KindBacktest,
		StrategyName:   result.StrategyName,
		Symbol:         result.Symbol,
		Start:          result.Start,
		End:            result.End,
		TotalReturnPct: result.Metrics.TotalReturnPct,
		CreatedAt:      result.CreatedAt,
	}, payload)
}

// SaveWalkForward persists a walk-forward result, replacing any previous
// result with the same run ID.
func (s *ResultStore) SaveWalkForward(ctx context.Context, result *types.WalkForwardResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to encode walk-forward %s", result.RunID)
	}

	return s.save(ctx, ResultSummary{
		RunID:          result.RunID,
		Kind:           KindWalkForward,
		StrategyName:   result.StrategyName,
		Symbol:         result.Symbol,
		Start:          result.Start,
		End:            result.End,
		TotalReturnPct: result.OOSMeanReturnPct,
		CreatedAt:      result.CreatedAt,
	}, payload)
}

func (s *ResultStore) save(ctx context.Context, summary ResultSummary, payload []byte) error {
	if summary.RunID == "" {
		return errors.New(errors.ErrCodeStoreWriteFailed, "result has no run ID")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO results
			(run_id, kind, strategy_name, symbol, start_time, end_time, total_return_pct, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, summary.RunID, string(summary.Kind), summary.StrategyName, summary.Symbol,
		summary.Start, summary.End, summary.TotalReturnPct, summary.CreatedAt, string(payload))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to save result %s", summary.RunID)
	}

	s.logger.Debug("Saved result",
		zap.String("run_id", summary.RunID),
		zap.String("kind", string(summary.Kind)),
	)

	return nil
}

// GetBacktest loads a stored backtest result by run ID.
func (s *ResultStore) GetBacktest(ctx context.Context, runID string) (*types.BacktestResult, error) {
	payload, err := s.load(ctx, runID, KindBacktest)
	if err != nil {
		return nil, err
	}

	result, err := types.UnmarshalBacktestResult(payload)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreReadFailed, err, "failed to decode backtest %s", runID)
	}

	return result, nil
}

// GetWalkForward loads a stored walk-forward result by run ID.
func (s *ResultStore) GetWalkForward(ctx context.Context, runID string) (*types.WalkForwardResult, error) {
	payload, err := s.load(ctx, runID, KindWalkForward)
	if err != nil {
		return nil, err
	}

	var result types.WalkForwardResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreReadFailed, err, "failed to decode walk-forward %s", runID)
	}

	return &result, nil
}

func (s *ResultStore) load(ctx context.Context, runID string, kind ResultKind) ([]byte, error) {
	query, args, err := s.sq.
		Select("payload").
		From("results").
		Where(squirrel.Eq{"run_id": runID, "kind": string(kind)}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to build result query", err)
	}

	var payload string

	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Newf(errors.ErrCodeResultNotFound, "no %s result with run ID %s", kind, runID)
		}

		return nil, errors.Wrapf(errors.ErrCodeStoreReadFailed, err, "result query failed for %s", runID)
	}

	return []byte(payload), nil
}

// List returns summaries of stored results matching the filter, newest
// first.
func (s *ResultStore) List(ctx context.Context, filter ListFilter) ([]ResultSummary, error) {
	builder := s.sq.
		Select("run_id", "kind", "strategy_name", "symbol", "start_time", "end_time", "total_return_pct", "created_at").
		From("results").
		OrderBy("created_at DESC", "run_id ASC")

	if filter.Kind != "" {
		builder = builder.Where(squirrel.Eq{"kind": string(filter.Kind)})
	}

	if filter.StrategyName != "" {
		builder = builder.Where(squirrel.Eq{"strategy_name": filter.StrategyName})
	}

	if filter.Symbol != "" {
		builder = builder.Where(squirrel.Eq{"symbol": filter.Symbol})
	}

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to build listing query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "result listing failed", err)
	}
	defer rows.Close()

	var summaries []ResultSummary

	for rows.Next() {
		var (
			summary ResultSummary
			kind    string
		)

		err := rows.Scan(&summary.RunID, &kind, &summary.StrategyName, &summary.Symbol,
			&summary.Start, &summary.End, &summary.TotalReturnPct, &summary.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to scan result summary", err)
		}

		summary.Kind = ResultKind(kind)
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "result listing iteration failed", err)
	}

	return summaries, nil
}

// Delete removes a stored result. Deleting a run ID that does not exist
// reports ErrCodeResultNotFound.
func (s *ResultStore) Delete(ctx context.Context, runID string, kind ResultKind) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM results WHERE run_id = $1 AND kind = $2", runID, string(kind))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to delete result %s", runID)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to confirm deletion of %s", runID)
	}

	if affected == 0 {
		return errors.Newf(errors.ErrCodeResultNotFound, "no %s result with run ID %s", kind, runID)
	}

	return nil
}
