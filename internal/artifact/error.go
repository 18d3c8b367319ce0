package artifact

import (
	"errors"
	"fmt"
)

// Error definitions for the artifact package.
var (
	ErrUnsupportedSource = errors.New("unsupported artifact source")
	ErrInvalidRequest    = errors.New("invalid fetch request")
	ErrUnexpectedStatus  = errors.New("unexpected HTTP status")
	ErrMissingFile       = errors.New("artifact file does not exist")
)

// FetchError reports a failed attempt to make an artifact available locally.
type FetchError struct {
	Err         error
	URL         string
	Destination string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s into %s: %v", e.URL, e.Destination, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
