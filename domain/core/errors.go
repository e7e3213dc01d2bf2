package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound = errors.New("resource not found")

	// Pipeline errors
	ErrPreconditionFailed   = errors.New("stage precondition failed")
	ErrValidationIncomplete = errors.New("validation incomplete")
	ErrMalformedResponse    = errors.New("malformed generative response")
	ErrGenerativeCall       = errors.New("generative call failed")
	ErrConnector            = errors.New("source connector failed")
	ErrStorage              = errors.New("durable store unavailable")

	// State errors
	ErrStatusRegression = errors.New("artifact status regression")
	ErrUnknownStatus    = errors.New("unknown status value")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewPreconditionError(stage string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrPreconditionFailed, stage, reason)
}

func NewMalformedResponseError(stage string, snippet string) error {
	return fmt.Errorf("%w in %s stage: %s", ErrMalformedResponse, stage, snippet)
}

func NewConnectorError(provider string, err error) error {
	return fmt.Errorf("%w: provider %s: %v", ErrConnector, provider, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}

// IsUnitError reports whether err should be contained at the unit level
// (the batch continues) rather than aborting the run.
func IsUnitError(err error) bool {
	return errors.Is(err, ErrGenerativeCall) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrValidationIncomplete)
}

func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}
