// Package errors defines the error taxonomy shared by the gateway, the
// synchronization core and the facade, plus the retry classification the
// executor relies on.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory determines how errors should be handled by retry logic.
type ErrorCategory int

const (
	// Recoverable errors should be retried with exponential backoff.
	// Examples: 500 Internal Server Error, network timeouts, connection failures.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors should fail immediately without retry.
	// Examples: 401 Unauthorized, 403 Forbidden, 400 Bad Request.
	Irrecoverable
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Kind names the failure class of an APIError.
type Kind int

const (
	// Transport covers unreachable hosts, timeouts and malformed responses.
	Transport Kind = iota + 1
	// Status is a non-success HTTP status returned by the server.
	Status
	// Validation is missing or bad user input caught before any network call.
	Validation
	// Enrichment is a best-effort follow-up call that failed after its
	// primary action already succeeded.
	Enrichment
)

func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Status:
		return "status"
	case Validation:
		return "validation"
	case Enrichment:
		return "enrichment"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// APIError is the single error type surfaced by the SDK.
type APIError struct {
	Kind       Kind
	Op         string // operation, e.g. "list disasters"
	StatusCode int    // HTTP status code (0 for non-HTTP errors)
	Message    string
	Underlying error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	case e.Op != "":
		return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, e.Message)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *APIError) Unwrap() error {
	return e.Underlying
}

// Category reports whether the failure is worth retrying.
func (e *APIError) Category() ErrorCategory {
	switch e.Kind {
	case Transport:
		return Recoverable
	case Status:
		return getHTTPErrorCategory(e.StatusCode)
	default:
		return Irrecoverable
	}
}

func asAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func isKind(err error, k Kind) bool {
	ae, ok := asAPIError(err)
	return ok && ae.Kind == k
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return isKind(err, Transport) }

// IsStatus reports whether err is a non-success HTTP status.
func IsStatus(err error) bool { return isKind(err, Status) }

// IsValidation reports whether err was raised before any network call.
func IsValidation(err error) bool { return isKind(err, Validation) }

// IsEnrichment reports whether err is a failed best-effort follow-up.
func IsEnrichment(err error) bool { return isKind(err, Enrichment) }

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	if ae, ok := asAPIError(err); ok {
		return ae.StatusCode
	}
	return 0
}

// IsIrrecoverable returns true if the error should not be retried.
func IsIrrecoverable(err error) bool {
	if ae, ok := asAPIError(err); ok {
		return ae.Category() == Irrecoverable
	}
	return false
}
