package backend

import "errors"

// Error definitions for the backend package.
var (
	ErrNotFound          = errors.New("backend not found in registry")
	ErrAlreadyRegistered = errors.New("backend is already registered in the registry")
	ErrInputSize         = errors.New("input size does not match the network input")
	ErrSessionClosed     = errors.New("session is closed")
)
