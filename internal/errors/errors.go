// Package errors provides custom error types for the tradeDB cache engine.
// All service-layer errors should use AppError so that callers can tell
// recoverable validation problems apart from fatal store failures, and so
// that every user-facing message names the actionable next step.
package errors

import (
	"fmt"
	"strings"
)

// AppError represents a structured application error with an error code,
// human-readable message and optional internal error.
type AppError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Internal error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code, so errors derived with Wrap, WithMessage or
// WithOptions compare equal to their sentinel under errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:     sentinel.Code,
		Message:  sentinel.Message,
		Internal: internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:     sentinel.Code,
		Message:  message,
		Internal: sentinel.Internal,
	}
}

// WithOptions creates a new AppError whose message names the offending value
// and enumerates the values the caller may legally use instead.
func WithOptions(sentinel *AppError, filter, value string, options []string) *AppError {
	return WithMessage(sentinel, fmt.Sprintf(
		"%s value %q not recognized; legal values: %s",
		filter, value, strings.Join(options, ", ")))
}

// Filter resolution errors. Recovered locally: the resolver state stays
// unchanged and the message lists legal or candidate values.
var (
	ErrInvalidFilter   = &AppError{Code: "INVALID_FILTER", Message: "Filter value not recognized"}
	ErrAmbiguousFilter = &AppError{Code: "AMBIGUOUS_FILTER", Message: "Filter value matches more than one option"}
	ErrUnknownTable    = &AppError{Code: "UNKNOWN_TABLE", Message: "Unknown table kind"}
	ErrInvalidRequest  = &AppError{Code: "INVALID_REQUEST", Message: "Request failed validation"}
)

// Store errors. A schema mismatch on an existing store is fatal: the operator
// must delete or fix the file, the engine never auto-migrates.
var (
	ErrSchemaMismatch = &AppError{Code: "SCHEMA_MISMATCH", Message: "Existing store schema disagrees with the expected schema"}
	ErrStoreFailure   = &AppError{Code: "STORE_FAILURE", Message: "Store operation failed"}
	ErrBatchOverflow  = &AppError{Code: "BATCH_OVERFLOW", Message: "Fixed query conditions exceed the clause budget"}
)

// Fetch and merge errors. Fatal for the current fetch/merge cycle only;
// previously committed batches stay intact.
var (
	ErrMergeFailure = &AppError{Code: "MERGE_FAILURE", Message: "Merging fetched rows into the store failed"}
	ErrFetchFailure = &AppError{Code: "FETCH_FAILURE", Message: "Remote fetch failed"}
)

// Currency conversion errors.
var (
	ErrRateGap = &AppError{Code: "RATE_GAP", Message: "Currency rate missing for requested dates"}
)
