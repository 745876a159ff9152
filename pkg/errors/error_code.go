package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidBarSeries     ErrorCode = 103
	ErrCodeInvalidDateRange     ErrorCode = 104
	ErrCodeInvalidWeights       ErrorCode = 105

	// Data errors (200-299)
	ErrCodeNoData           ErrorCode = 200
	ErrCodeDataUnavailable  ErrorCode = 201
	ErrCodeQueryFailed      ErrorCode = 202
	ErrCodeDataTimeout      ErrorCode = 203
	ErrCodeMetadataMissing  ErrorCode = 204
	ErrCodeIngestionFailed  ErrorCode = 205
	ErrCodeInsufficientBars ErrorCode = 206

	// Strategy errors (300-399)
	ErrCodeUnknownStrategy    ErrorCode = 300
	ErrCodeDuplicateStrategy  ErrorCode = 301
	ErrCodeStrategyConstruct  ErrorCode = 302
	ErrCodeStrategyVersion    ErrorCode = 303
	ErrCodeStrategySignal     ErrorCode = 304
	ErrCodeUnsupportedFamily  ErrorCode = 305

	// Backtest errors (400-499)
	ErrCodeEngineState       ErrorCode = 400
	ErrCodeInsufficientCash  ErrorCode = 401
	ErrCodeSizingFailed      ErrorCode = 402
	ErrCodePositionNotFound  ErrorCode = 403
	ErrCodeMetricComputation ErrorCode = 404

	// Walk-forward errors (500-599)
	ErrCodeWindowPartition ErrorCode = 500
	ErrCodeWindowFailure   ErrorCode = 501

	// Confluence errors (600-699)
	ErrCodeLayerUnavailable ErrorCode = 600
	ErrCodeLayerFailure     ErrorCode = 601

	// Screener errors (700-799)
	ErrCodeUniverseEmpty    ErrorCode = 700
	ErrCodeCandidateFailure ErrorCode = 701

	// Persistence errors (800-899)
	ErrCodeStoreWriteFailed ErrorCode = 800
	ErrCodeStoreReadFailed  ErrorCode = 801
	ErrCodeResultNotFound   ErrorCode = 802
)
