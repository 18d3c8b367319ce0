package model

import (
	"errors"
	"fmt"
)

// Error definitions for the model package.
var (
	ErrMissingEntry   = errors.New("package entry not found")
	ErrInvalidWorkers = errors.New("number of sessions must be at least 1")
)

// Reason classifies why a model could not be loaded.
type Reason string

const (
	// ReasonMalformed means the package is not a readable zip, misses an entry
	// or carries an invalid manifest.
	ReasonMalformed Reason = "malformed"

	// ReasonUnsupportedVersion means the manifest format version is unknown.
	ReasonUnsupportedVersion Reason = "unsupported_version"

	// ReasonUnsupportedBackend means no registered backend serves the manifest provider.
	ReasonUnsupportedBackend Reason = "unsupported_backend"

	// ReasonIncompatibleDevice means the network targets hardware this host lacks.
	ReasonIncompatibleDevice Reason = "incompatible_device"

	// ReasonRuntime means the backend refused the network.
	ReasonRuntime Reason = "runtime"
)

// RemediationCPUOnly is reported when a CUDA export is loaded on a CPU-only host.
const RemediationCPUOnly = "This model was exported for a CUDA device and will not run in a CPU environment. " +
	"Export the model again with device \"cpu\" and publish the new package."

// LoadError is returned by the loader. Remediation, when set, is the message
// meant for the operator; Err keeps the underlying cause.
type LoadError struct {
	Err         error
	Reason      Reason
	Remediation string
}

func (e *LoadError) Error() string {
	if e.Remediation != "" {
		return e.Remediation
	}

	return fmt.Sprintf("failed to load model (%s): %v", e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadError(reason Reason, err error) *LoadError {
	return &LoadError{Reason: reason, Err: err}
}

// IsReason reports whether err is a LoadError with the given reason.
func IsReason(err error, reason Reason) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Reason == reason
}
