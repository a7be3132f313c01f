package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrStreamNotFound = fmt.Errorf("%w: stream", ErrNotFound)
	ErrResultNotFound = fmt.Errorf("%w: inference result", ErrNotFound)

	// Validation errors
	ErrEmptyFieldName    = errors.New("field name cannot be empty")
	ErrNilMapping        = errors.New("mapping cannot be nil")
	ErrNilClassification = errors.New("classification result cannot be nil")
	ErrScoreOutOfRange   = errors.New("anomaly score outside [0, 1]")

	// Pipeline errors
	ErrStageFailed  = errors.New("pipeline stage failed")
	ErrNoStages     = errors.New("pipeline has no stages configured")
	ErrNoClassifier = errors.New("no classifier configured for field")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewStageError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStageFailed, stage, err)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsStageError(err error) bool {
	return errors.Is(err, ErrStageFailed)
}
