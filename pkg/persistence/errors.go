// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrProjectNotFound indicates a project was not found by the given identifier.
	ErrProjectNotFound = errors.New("project not found")

	// ErrTemplateNotFound indicates no prompt template exists for the lookup.
	ErrTemplateNotFound = errors.New("prompt template not found")

	// ErrOverrideNotFound indicates no project override exists for (project, stage type).
	ErrOverrideNotFound = errors.New("prompt override not found")

	// ErrRecipeNotFound indicates a recipe was not found by the given identifier.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrRunNotFound indicates a recipe run was not found by the given identifier.
	ErrRunNotFound = errors.New("recipe run not found")
)

// StoreError wraps storage errors with operation context.
type StoreError struct {
	Op      string // Operation being performed (e.g., "GetByID", "Save")
	Kind    string // Document kind ("project", "template", "recipe", "run")
	ID      string // Document identifier if applicable
	Err     error  // Underlying error
	Message string // Additional context message
}

func (e *StoreError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s %s: %s (%v)", e.Op, e.Kind, e.ID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new storage error with context.
func NewStoreError(op, kind, id string, err error) *StoreError {
	return &StoreError{
		Op:   op,
		Kind: kind,
		ID:   id,
		Err:  err,
	}
}

// IsProjectNotFound checks if an error indicates a missing project.
func IsProjectNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound)
}

// IsTemplateNotFound checks if an error indicates a missing prompt template.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsOverrideNotFound checks if an error indicates a missing prompt override.
func IsOverrideNotFound(err error) bool {
	return errors.Is(err, ErrOverrideNotFound)
}

// IsRecipeNotFound checks if an error indicates a missing recipe.
func IsRecipeNotFound(err error) bool {
	return errors.Is(err, ErrRecipeNotFound)
}

// IsRunNotFound checks if an error indicates a missing recipe run.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsNotFound checks if an error is any of the not-found variants.
func IsNotFound(err error) bool {
	return IsProjectNotFound(err) ||
		IsTemplateNotFound(err) ||
		IsOverrideNotFound(err) ||
		IsRecipeNotFound(err) ||
		IsRunNotFound(err)
}
