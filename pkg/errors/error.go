// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters and configuration
//   - Data errors (200-299): Missing bar series, query failures
//   - Strategy errors (300-399): Registry lookup and construction errors
//   - Backtest errors (400-499): Engine and portfolio accounting errors
//   - Walk-forward errors (500-599): Window partitioning and per-window failures
//   - Confluence errors (600-699): Layer availability and layer faults
//   - Screener errors (700-799): Universe filtering and per-candidate failures
//   - Persistence errors (800-899): Results store failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeUnknownStrategy, "strategy not registered")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeNoData, "no bars for symbol %s", symbol)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeNoData) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// ParameterError reports an invalid strategy or engine parameter override.
// It always names the offending key so callers can fail fast with context.
type ParameterError struct {
	Key     string // Name of the offending parameter
	Value   any    // Value that failed validation
	Message string // Human-readable message
}

// NewParameterError creates a new ParameterError for the given key.
func NewParameterError(key string, value any, message string) *ParameterError {
	return &ParameterError{
		Key:     key,
		Value:   value,
		Message: message,
	}
}

// NewParameterErrorf creates a new ParameterError with a formatted message.
func NewParameterErrorf(key string, value any, format string, args ...any) *ParameterError {
	return &ParameterError{
		Key:     key,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *ParameterError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Key, e.Message)
}

// IsParameterError checks if an error is a ParameterError.
// It uses errors.As to check the error chain.
func IsParameterError(err error) bool {
	var paramErr *ParameterError

	return errors.As(err, &paramErr)
}

// AsParameterError extracts the ParameterError from the chain, if any.
func AsParameterError(err error) (*ParameterError, bool) {
	var paramErr *ParameterError
	if errors.As(err, &paramErr) {
		return paramErr, true
	}

	return nil, false
}
