// Package services implements the application services behind the HTTP API:
// project lifecycle, recipe execution, streamed generation and maintenance.
package services

import (
	"errors"
	"fmt"

	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/stages"
)

// Business logic errors mapped to client responses (4xx).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUnknownPipeline = errors.New("unknown pipeline")
	ErrUnknownKind     = errors.New("unknown generation kind")
	ErrProjectRequired = errors.New("project ID is required")

	// Conflicts (409 Conflict).
	ErrStageNotReady  = stages.ErrStageNotReady
	ErrStageNotFailed = stages.ErrStageNotFailed
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnknownPipeline) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrProjectRequired) ||
		errors.Is(err, stages.ErrUnknownStage)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrStageNotReady) ||
		errors.Is(err, ErrStageNotFailed)
}

// IsNotFoundError checks if an error should map to HTTP 404.
func IsNotFoundError(err error) bool {
	return persistence.IsNotFound(err)
}
