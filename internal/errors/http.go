package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// getHTTPErrorCategory maps HTTP status codes to error categories.
// 4xx client errors (except 408 and 429) are irrecoverable, 5xx are recoverable.
func getHTTPErrorCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return Recoverable
		default:
			return Irrecoverable
		}
	case statusCode >= 500 && statusCode < 600:
		return Recoverable
	default:
		// Unexpected status codes - be conservative and retry
		return Recoverable
	}
}

// NewStatusError creates an error for a non-success HTTP response.
// An empty message falls back to the standard status text.
func NewStatusError(op string, statusCode int, message string) *APIError {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &APIError{
		Kind:       Status,
		Op:         op,
		StatusCode: statusCode,
		Message:    message,
		Underlying: fmt.Errorf("%s failed: HTTP %d", op, statusCode),
	}
}

// NewTransportError creates an error for network-level failures, timeouts
// and undecodable responses.
func NewTransportError(op string, err error) *APIError {
	msg := "transport failure"
	if err != nil {
		msg = err.Error()
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out"
	}
	return &APIError{
		Kind:       Transport,
		Op:         op,
		Message:    msg,
		Underlying: err,
	}
}

// NewValidationError reports bad user input for field.
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Kind:    Validation,
		Op:      field,
		Message: message,
	}
}

// NewEnrichmentError wraps the failure of a best-effort follow-up call.
func NewEnrichmentError(op string, err error) *APIError {
	msg := "enrichment failed"
	if err != nil {
		msg = err.Error()
	}
	return &APIError{
		Kind:       Enrichment,
		Op:         op,
		StatusCode: 0,
		Message:    msg,
		Underlying: err,
	}
}
