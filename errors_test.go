package sasl

import (
	"errors"
	"testing"
)

func TestNoPropertyHelpers(t *testing.T) {
	a := NewAssert(t)

	err := NoAuthId()
	a.ErrorIs(err, ErrMissingRequiredProperty)

	var pe *PropertyError
	a.True(errors.As(err, &pe))
	a.Equal(PropAuthID, pe.Property)
}

func TestMechanismParseErrorUnwrap(t *testing.T) {
	a := NewAssert(t)

	err := &MechanismParseError{Mechanism: PLAIN, Reason: "boom"}
	a.ErrorIs(err, ErrMechanismParseErrorSentinel)
	a.Contains(err.Error(), "PLAIN")
	a.Contains(err.Error(), "boom")
}

func TestCallbackErrorUnwrap(t *testing.T) {
	a := NewAssert(t)

	inner := errors.New("application exploded")
	err := &CallbackError{Err: inner}
	a.ErrorIs(err, inner)
}
