package carbon

import "fmt"

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrValidation indicates a detailed input with a missing, non-numeric
	// or negative required field. It is a client error.
	ErrValidation = constError("invalid footprint input")

	// ErrNoGridIntensity indicates a feed response without any parseable
	// (period, coefficient) row.
	ErrNoGridIntensity = constError("no grid intensity in feed")
)

// ValidationError reports the first offending field of a DetailedInput.
type ValidationError struct {
	// Field is the dotted path of the field, e.g. "transport.km".
	Field string

	// Reason says what is wrong with it.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
