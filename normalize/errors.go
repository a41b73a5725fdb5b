package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eugenenazirov/castenv/value"
)

var (
	// ErrValidation indicates a cast result outside the allowed enum set.
	ErrValidation = errors.New("value not in allowed set")
	// ErrInterpolationCycle indicates a variable reference that refers back to itself.
	ErrInterpolationCycle = errors.New("interpolation cycle")
)

// ValidationError carries the rejected value and the allowed set.
type ValidationError struct {
	Value   value.Value
	Allowed []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %q not in [%s]", ErrValidation, e.Value.String(), strings.Join(e.Allowed, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// CycleError lists the variable names forming the cycle, first repeated last.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInterpolationCycle, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrInterpolationCycle }
