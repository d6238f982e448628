package fee

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrValidationMismatch = errors.New("total amount does not match computed total")
)

// MismatchError carries the authoritative total when a client-submitted
// total is rejected.
type MismatchError struct {
	ProvidedTotal int64
	ExpectedTotal int64
	Difference    int64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: provided %d, expected %d (difference %d)",
		ErrValidationMismatch, e.ProvidedTotal, e.ExpectedTotal, e.Difference)
}

func (e *MismatchError) Unwrap() error {
	return ErrValidationMismatch
}
