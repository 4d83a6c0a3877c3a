// Package apperr defines the error taxonomy shared by the registry, ledger
// and settlement packages. The service layer maps these onto Connect codes.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// NotFoundError reports a missing bill, participant or expense.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NotFound returns a *NotFoundError for the given entity.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError is a recoverable input problem tied to one field.
type ValidationError struct {
	Field   string
	Problem string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Problem
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Problem)
}

// Invalid returns a *ValidationError for field with a formatted problem.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Problem: fmt.Sprintf(format, args...)}
}

// InvariantViolation means an internal consistency check failed. It points at
// a bug or a race and aborts the operation without partial effects.
type InvariantViolation struct {
	Check  string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated (%s): %s", e.Check, e.Detail)
}

// Invariant returns an *InvariantViolation.
func Invariant(check, format string, args ...any) error {
	return &InvariantViolation{Check: check, Detail: fmt.Sprintf(format, args...)}
}

// ResourceBusyError is returned when a bill lock could not be acquired in time.
type ResourceBusyError struct {
	Resource string
	Waited   time.Duration
}

func (e *ResourceBusyError) Error() string {
	return fmt.Sprintf("%s is busy: lock not acquired after %s", e.Resource, e.Waited.Round(time.Millisecond))
}

// PermissionError is returned when the caller may not perform an action.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return "not allowed to " + e.Action
}

// Forbidden returns a *PermissionError.
func Forbidden(action string) error {
	return &PermissionError{Action: action}
}

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsInvariant reports whether err wraps an *InvariantViolation.
func IsInvariant(err error) bool {
	var target *InvariantViolation
	return errors.As(err, &target)
}

// IsBusy reports whether err wraps a *ResourceBusyError.
func IsBusy(err error) bool {
	var target *ResourceBusyError
	return errors.As(err, &target)
}

// IsPermission reports whether err wraps a *PermissionError.
func IsPermission(err error) bool {
	var target *PermissionError
	return errors.As(err, &target)
}
