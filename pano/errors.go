package pano

import (
	"errors"
	"fmt"
)

// Errors returned by the projection engine.
var (
	// ErrInvalidParameter reports malformed or out-of-range view parameters
	// or image dimensions. It is always detected before any per-pixel work.
	ErrInvalidParameter = errors.New("pano: invalid parameter")

	// ErrInvariantViolation reports an internal defect, such as a sample
	// index escaping the source image after wrap/clamp.
	ErrInvariantViolation = errors.New("pano: internal invariant violation")

	// ErrNoView is returned by Convert when Configure has not been called.
	ErrNoView = fmt.Errorf("%w: no view configured", ErrInvalidParameter)
)

// ParameterError describes which parameter was rejected and why.
type ParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("pano: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidParameter).
func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

func paramError(field string, value any, reason string) error {
	return &ParameterError{Field: field, Value: value, Reason: reason}
}

// IndexError is returned when a resampled index lands outside the source
// or a sample coordinate is not finite.
type IndexError struct {
	X, Y          int
	Width, Height int

	// U and V hold the fractional coordinate when it was not finite.
	U, V float64
}

func (e *IndexError) Error() string {
	if !isFinite(e.U) || !isFinite(e.V) {
		return fmt.Sprintf("pano: sample coordinate (%g, %g) is not finite for %dx%d source", e.U, e.V, e.Width, e.Height)
	}
	return fmt.Sprintf("pano: sample index (%d, %d) outside %dx%d source", e.X, e.Y, e.Width, e.Height)
}

// Unwrap allows errors.Is(err, ErrInvariantViolation).
func (e *IndexError) Unwrap() error {
	return ErrInvariantViolation
}
