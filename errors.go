package castenv

import (
	"errors"
	"fmt"

	"github.com/eugenenazirov/castenv/value"
)

var (
	// ErrCoercion indicates a resolved value that cannot take the requested type.
	ErrCoercion = errors.New("cannot coerce value")
	// ErrMissing indicates a required key that resolved to nothing.
	ErrMissing = errors.New("required key missing")
	// ErrInvalidTarget indicates a Load destination that is not a pointer to a struct.
	ErrInvalidTarget = errors.New("load target must be a non-nil pointer to a struct")
)

// CoercionError reports a typed accessor that could not convert a value.
type CoercionError struct {
	Key    string
	Value  value.Value
	Target string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: cannot coerce %q (%s) to %s", e.Key, e.Value.String(), e.Value.Kind(), e.Target)
}

func (e *CoercionError) Unwrap() error { return ErrCoercion }
