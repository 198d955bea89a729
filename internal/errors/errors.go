// Package errors defines the failure taxonomy shared by every pipeline stage.
//
// Each failure carries an ErrorCode. Codes split into fatal ones, which abort
// a run before any candidate reaches recognition, and non-fatal ones, which
// are confined to a single candidate:
//
//   - DECODE_FAILED (fatal): the source image cannot be read or decoded
//   - TILT_ESTIMATION_FAILED (fatal): the tilt estimator failed or returned a non-numeric angle
//   - OUT_OF_BOUNDS (non-fatal): a region violates the canonical frame bounds
//   - RECOGNITION_FAILED (non-fatal): the text engine failed on one candidate
//
// Use the standard library errors.Is against the exported sentinels to test for a
// code; the sentinels match any *ProcessingError with the same code.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the class of a processing failure.
type ErrorCode string

const (
	ErrorDecodeFailed         ErrorCode = "DECODE_FAILED"
	ErrorTiltEstimationFailed ErrorCode = "TILT_ESTIMATION_FAILED"
	ErrorOutOfBounds          ErrorCode = "OUT_OF_BOUNDS"
	ErrorRecognitionFailed    ErrorCode = "RECOGNITION_FAILED"
)

// Sentinels for errors.Is.
var (
	ErrDecode         = &ProcessingError{Code: ErrorDecodeFailed}
	ErrTiltEstimation = &ProcessingError{Code: ErrorTiltEstimationFailed}
	ErrBounds         = &ProcessingError{Code: ErrorOutOfBounds}
	ErrRecognition    = &ProcessingError{Code: ErrorRecognitionFailed}
)

// ProcessingError is a classified failure with an optional underlying cause.
type ProcessingError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	if e.Message == "" && e.Cause == nil {
		return string(e.Code)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *ProcessingError carrying the same code.
func (e *ProcessingError) Is(target error) bool {
	t, ok := target.(*ProcessingError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *ProcessingError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}

// Fatal reports whether the code aborts the whole run.
func (c ErrorCode) Fatal() bool {
	switch c {
	case ErrorDecodeFailed, ErrorTiltEstimationFailed:
		return true
	}
	return false
}

// Factory functions

func NewDecodeError(path string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:    ErrorDecodeFailed,
		Message: fmt.Sprintf("cannot decode image %q", path),
		Cause:   cause,
	}
}

func NewTiltEstimationError(message string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:    ErrorTiltEstimationFailed,
		Message: message,
		Cause:   cause,
	}
}

func NewBoundsError(message string) *ProcessingError {
	return &ProcessingError{
		Code:    ErrorOutOfBounds,
		Message: message,
	}
}

func NewRecognitionError(candidate string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:    ErrorRecognitionFailed,
		Message: fmt.Sprintf("recognition failed for %s", candidate),
		Cause:   cause,
	}
}
