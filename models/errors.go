package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the small failure taxonomy exposed to the service layer.
type ErrorKind string

const (
	ErrNotFound           ErrorKind = "NOT_FOUND"
	ErrUpstreamBadGateway ErrorKind = "UPSTREAM_BAD_GATEWAY"
	ErrRequestTimeout     ErrorKind = "REQUEST_TIMEOUT"
	ErrNoContentExtracted ErrorKind = "NO_CONTENT_EXTRACTED"
	ErrInternal           ErrorKind = "INTERNAL_ERROR"
)

// Codes used only by the HTTP layer.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeOverloaded   = "OVERLOADED"
)

// Internal sub-kinds carried by ErrInternal (and informative on other kinds).
const (
	SubKindBrowser    = "browser"
	SubKindNavigation = "navigation"
	SubKindExtraction = "extraction"
	SubKindCanceled   = "canceled"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// FetchError is the only error type FetchContent returns. Engine-level
// errors are always wrapped, never surfaced raw.
type FetchError struct {
	Kind    ErrorKind
	SubKind string
	Message string
	Err     error // wrapped original error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *FetchError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: string(e.Kind), Kind: e.SubKind, Message: e.Message}
}

// NewFetchError creates a new FetchError.
func NewFetchError(kind ErrorKind, subKind, message string, err error) *FetchError {
	return &FetchError{Kind: kind, SubKind: subKind, Message: message, Err: err}
}

func NotFound(message string) *FetchError {
	return NewFetchError(ErrNotFound, "", message, nil)
}

func UpstreamBadGateway(message string, err error) *FetchError {
	return NewFetchError(ErrUpstreamBadGateway, "", message, err)
}

func RequestTimeout(message string, err error) *FetchError {
	return NewFetchError(ErrRequestTimeout, "", message, err)
}

func NoContentExtracted(message string) *FetchError {
	return NewFetchError(ErrNoContentExtracted, SubKindExtraction, message, nil)
}

func Internal(subKind, message string, err error) *FetchError {
	return NewFetchError(ErrInternal, subKind, message, err)
}

// KindOf reports the taxonomy kind of err, or ErrInternal when err is not a
// FetchError.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ErrInternal
}

// AsFetchError returns err as a *FetchError, wrapping foreign errors as
// internal failures.
func AsFetchError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return Internal("unknown", err.Error(), err)
}

// ErrorResponse is the body of every JSON error that is not a fetch result.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// NewErrorResponse builds an ErrorResponse for an HTTP-layer error code.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: &ErrorDetail{Code: code, Message: message}}
}
