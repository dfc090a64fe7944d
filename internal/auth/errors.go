package auth

import "errors"

var (
	// ErrInvalidPin is returned for a PIN that is not 4 to 10 digits.
	ErrInvalidPin = errors.New("pin must be 4 to 10 digits")

	// ErrWrongPin is returned when Verify is given the wrong PIN.
	ErrWrongPin = errors.New("incorrect pin")
)
