// Package domainerrors provides coded errors shared by services and handlers.
//
// Services return coded errors; the HTTP layer translates codes to status
// codes and JSON envelopes without inspecting error strings. Details attached
// with Add travel with the error so handlers can surface structured context
// (e.g. measured distance vs. allowed radius) to clients.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies an error for transport mapping and callers' branching.
type Code string

const (
	// Generic codes.
	CodeValidation         Code = "validation"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal"

	// Attendance pipeline codes. Each maps to one short-circuit step of the
	// mark-attendance flow.
	CodeOutsideWindow    Code = "outside_service_window"
	CodeDeviceConflict   Code = "device_already_used"
	CodeNoActiveLocation Code = "no_active_location"
	CodeOutOfRange       Code = "out_of_range"
	CodeAlreadyMarked    Code = "already_marked"
)

// Error is a coded error with optional structured details and a wrapped cause.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error with an underlying cause preserved for
// errors.Is/errors.As chains.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// Add attaches a structured detail to a coded error and returns it, enabling
// fluent construction: New(...).Add("radius_m", 100).Add("distance_m", 150).
func (e *Error) Add(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Load returns the structured details of a coded error, or nil if the error
// is not coded or carries none.
func Load(err error) map[string]any {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Details
	}
	return nil
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so infrastructure failures never leak as client errors.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the transport layer responds
// with. Uncatalogued codes map to 500.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeOutsideWindow, CodeOutOfRange:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyMarked, CodeInvariantViolation:
		return http.StatusConflict
	case CodeDeviceConflict:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeNoActiveLocation, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
