package labels

import (
	"errors"
	"fmt"
)

// Error definitions for the labels package.
var (
	ErrUnknownCode = errors.New("unknown label code")
	ErrNoClasses   = errors.New("model declares no classes")
)

// UnknownCodeError reports a label code missing from the label table.
type UnknownCodeError struct {
	Code string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownCode, e.Code)
}

func (e *UnknownCodeError) Unwrap() error {
	return ErrUnknownCode
}
