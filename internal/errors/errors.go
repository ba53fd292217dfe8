package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies application errors for exclusion accounting
// and run reporting.
type ErrorType string

const (
	// ErrTypeDataGap marks a ticker whose trading-date coverage of a
	// required window is below the configured floor.
	ErrTypeDataGap ErrorType = "DATA_GAP"

	// ErrTypeInsufficientData marks a regression with fewer paired
	// observations than the configured minimum.
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"

	// ErrTypeAlignment marks a ticker that shares no trading dates with
	// the benchmark inside a window.
	ErrTypeAlignment ErrorType = "ALIGNMENT"

	// ErrTypeConfiguration marks an invalid run configuration. Unlike the
	// per-ticker types above it is fatal for the whole run.
	ErrTypeConfiguration ErrorType = "CONFIGURATION"

	ErrTypeParsing ErrorType = "PARSING"
	ErrTypeFetch   ErrorType = "FETCH"
	ErrTypeStorage ErrorType = "STORAGE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper constructors for the study error taxonomy

// NewDataGapError reports a ticker covering too few trading dates of a
// required window. The ticker is excluded from downstream aggregation.
func NewDataGapError(symbol string, have, want int) *AppError {
	return NewAppError(ErrTypeDataGap,
		fmt.Sprintf("%s covers %d of %d window observations", symbol, have, want), nil).
		WithContext("symbol", symbol).
		WithContext("have", have).
		WithContext("want", want)
}

// NewInsufficientDataError reports a market-model fit with fewer paired
// observations than the configured minimum.
func NewInsufficientDataError(symbol string, paired, min int) *AppError {
	return NewAppError(ErrTypeInsufficientData,
		fmt.Sprintf("%s has %d paired observations, need at least %d", symbol, paired, min), nil).
		WithContext("symbol", symbol).
		WithContext("paired", paired).
		WithContext("min", min)
}

// NewAlignmentError reports a ticker with zero overlapping dates against
// the benchmark inside a window. Fatal for the ticker, not the run.
func NewAlignmentError(symbol, window string) *AppError {
	return NewAppError(ErrTypeAlignment,
		fmt.Sprintf("%s shares no trading dates with the benchmark in the %s window", symbol, window), nil).
		WithContext("symbol", symbol).
		WithContext("window", window)
}

// NewConfigurationError reports an invalid run configuration. Raised
// before any computation starts and aborts the whole run.
func NewConfigurationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfiguration, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewFetchError creates a data-acquisition error for one symbol
func NewFetchError(symbol string, cause error) *AppError {
	return NewAppError(ErrTypeFetch,
		fmt.Sprintf("fetch %s", symbol), cause).
		WithContext("symbol", symbol)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// IsType reports whether err, or any error it wraps, is an AppError of
// the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsDataGap reports whether err is a data-gap exclusion.
func IsDataGap(err error) bool { return IsType(err, ErrTypeDataGap) }

// IsInsufficientData reports whether err is an underpowered-regression exclusion.
func IsInsufficientData(err error) bool { return IsType(err, ErrTypeInsufficientData) }

// IsAlignment reports whether err is a benchmark-alignment failure.
func IsAlignment(err error) bool { return IsType(err, ErrTypeAlignment) }

// IsConfiguration reports whether err is a run-fatal configuration failure.
func IsConfiguration(err error) bool { return IsType(err, ErrTypeConfiguration) }

// TypeOf returns the ErrorType carried by err, or the empty string when
// err is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
