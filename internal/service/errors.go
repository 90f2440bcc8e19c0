package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput wraps every validation failure; the wrapped message is
// safe to show to the caller.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
