// Package domain defines core types, interfaces, and errors for the OLAP engine.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }
func (e *NotFoundError) notFound()     {}

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) invalid()      {}

// ConflictError indicates an operation that conflicts with current state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// NoDimensionsError is returned when a query names no dimensions.
type NoDimensionsError struct{}

func (e *NoDimensionsError) Error() string {
	return "at least one dimension is required for an OLAP query"
}
func (e *NoDimensionsError) invalid() {}

// OverlapPlacementError is returned when a dimension other than the last one
// has overlapping categories.
type OverlapPlacementError struct {
	Dimension string
	Position  int
}

func (e *OverlapPlacementError) Error() string {
	return fmt.Sprintf("dimension %q at position %d has overlapping categories: overlap is only supported in the final dimension", e.Dimension, e.Position)
}
func (e *OverlapPlacementError) invalid() {}

// AggregateOverlapConflictError is returned when explicit aggregates are
// combined with an overlapping final dimension.
type AggregateOverlapConflictError struct {
	Dimension string
}

func (e *AggregateOverlapConflictError) Error() string {
	return fmt.Sprintf("only counting is supported with overlapping categories (dimension %q)", e.Dimension)
}
func (e *AggregateOverlapConflictError) invalid() {}

// UnknownDimensionError is returned when a named dimension is not registered.
type UnknownDimensionError struct {
	Subject string
	Name    string
}

func (e *UnknownDimensionError) Error() string {
	return fmt.Sprintf("dimension %q is not defined for %q", e.Name, e.Subject)
}
func (e *UnknownDimensionError) invalid() {}

// UnknownAggregateError is returned when a named aggregate is not registered.
type UnknownAggregateError struct {
	Subject string
	Name    string
}

func (e *UnknownAggregateError) Error() string {
	return fmt.Sprintf("aggregate %q is not defined for %q", e.Name, e.Subject)
}
func (e *UnknownAggregateError) invalid() {}

// UnknownAggregateKindError is returned for an aggregate kind outside the supported set.
type UnknownAggregateKindError struct {
	Kind string
}

func (e *UnknownAggregateKindError) Error() string {
	return fmt.Sprintf("aggregate kind %q is not supported (use one of %s)", e.Kind, strings.Join(AggregateKindNames(), ", "))
}
func (e *UnknownAggregateKindError) invalid() {}

// UnknownAggregateFieldError is returned when an aggregate target cannot be
// resolved against the subject.
type UnknownAggregateFieldError struct {
	Subject string
	Field   string
}

func (e *UnknownAggregateFieldError) Error() string {
	return fmt.Sprintf("aggregate target %q is not a field of %q", e.Field, e.Subject)
}
func (e *UnknownAggregateFieldError) invalid() {}

// UnknownFieldError is returned when a predicate or dimension names a field
// the subject does not have.
type UnknownFieldError struct {
	Subject string
	Field   string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("field %q is not defined for %q", e.Field, e.Subject)
}
func (e *UnknownFieldError) invalid() {}

// UnknownCategoryError is returned when a drilldown names a category the
// dimension does not have.
type UnknownCategoryError struct {
	Dimension string
	Category  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("category %q is not defined in dimension %q", e.Category, e.Dimension)
}
func (e *UnknownCategoryError) invalid() {}

// EmptySelectorError is returned by drilldown when no dimension is selected.
type EmptySelectorError struct{}

func (e *EmptySelectorError) Error() string {
	return "at least one dimension/category pair is required for a drilldown"
}
func (e *EmptySelectorError) invalid() {}

// InvalidSpecError indicates a malformed dimension, category, predicate or
// aggregate specification.
type InvalidSpecError struct {
	Message string
}

func (e *InvalidSpecError) Error() string { return e.Message }
func (e *InvalidSpecError) invalid()      {}

// ErrInvalidSpec creates an InvalidSpecError with a formatted message.
func ErrInvalidSpec(format string, args ...interface{}) *InvalidSpecError {
	return &InvalidSpecError{Message: fmt.Sprintf(format, args...)}
}

// UnknownSubjectError is returned when no configuration is registered for a subject.
type UnknownSubjectError struct {
	Name string
}

func (e *UnknownSubjectError) Error() string {
	return fmt.Sprintf("subject %q is not registered", e.Name)
}
func (e *UnknownSubjectError) notFound() {}

// CellNotFoundError is returned by a cube lookup for a label combination
// with no matching records.
type CellNotFoundError struct {
	Labels []string
}

func (e *CellNotFoundError) Error() string {
	return fmt.Sprintf("no cell for (%s)", strings.Join(e.Labels, ", "))
}
func (e *CellNotFoundError) notFound() {}

// RegistrySealedError is returned when the registry is used in the wrong
// lifecycle state: written after sealing, or read before it.
type RegistrySealedError struct {
	Sealed bool
}

func (e *RegistrySealedError) Error() string {
	if e.Sealed {
		return "registry is sealed: no further registration allowed"
	}
	return "registry is not sealed yet: seal it after setup before querying"
}

type invalidKind interface{ invalid() }

type notFoundKind interface{ notFound() }

// IsValidation reports whether err (or anything it wraps) is a caller error:
// a malformed or contradictory request.
func IsValidation(err error) bool {
	var k invalidKind
	return errors.As(err, &k)
}

// IsNotFound reports whether err (or anything it wraps) names something
// that does not exist.
func IsNotFound(err error) bool {
	var k notFoundKind
	return errors.As(err, &k)
}
