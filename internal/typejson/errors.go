package typejson

import (
	"errors"
	"fmt"
)

// ErrMalformedState is returned when persisted text cannot be parsed or does
// not fit the type it is decoded into.
var ErrMalformedState = errors.New("malformed persisted state")

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("typejson: %w at %s: %s", ErrMalformedState, path, fmt.Sprintf(format, args...))
}
