package impel

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrUnregisteredDriver indicates an Init whose driver type has no factory.
	ErrUnregisteredDriver = errors.New("impel: driver type not registered")

	// ErrInvalidInit indicates an Init descriptor that failed validation.
	ErrInvalidInit = errors.New("impel: invalid init descriptor")

	// ErrInvalidImpeller indicates an operation on a handle that owns no slot.
	ErrInvalidImpeller = errors.New("impel: impeller is not valid")
)

// MisuseError is the panic value raised when a handle accessor is called
// on an invalid Impeller.
type MisuseError struct {
	Op  string
	Err error
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MisuseError) Unwrap() error {
	return e.Err
}
