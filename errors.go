package client

import (
	"errors"

	apierrors "github.com/disasterwatch/client/internal/errors"
	"github.com/disasterwatch/client/internal/shardqueue"
)

// APIError is the single error type of the SDK; Kind tells the failure class.
type APIError = apierrors.APIError

// Error kinds.
const (
	KindTransport  = apierrors.Transport
	KindStatus     = apierrors.Status
	KindValidation = apierrors.Validation
	KindEnrichment = apierrors.Enrichment
)

// Re-exported classifiers so callers compare against a single package.
var (
	IsTransport  = apierrors.IsTransport
	IsStatus     = apierrors.IsStatus
	IsValidation = apierrors.IsValidation
	IsEnrichment = apierrors.IsEnrichment
	StatusCodeOf = apierrors.StatusCodeOf
)

// ErrBackPressure is returned when the client's internal shard queue is full.
var ErrBackPressure = shardqueue.ErrQueueFull

// ErrClosed is returned by actions on a closed client.
var ErrClosed = errors.New("client closed")

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("client already started")

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }
