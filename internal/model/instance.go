package model

import (
	"time"

	"github.com/ekisa-team/herbarium/internal/backend"
)

// Status is the current loading status of a model.
type Status string

const (
	// StatusUnloaded indicates that the model is not loaded.
	StatusUnloaded Status = "unloaded"

	// StatusLoading indicates that the model is being loaded.
	StatusLoading Status = "loading"

	// StatusLoaded indicates that the model is loaded.
	StatusLoaded Status = "loaded"

	// StatusFailed indicates that the model failed to load.
	StatusFailed Status = "failed"
)

// Instance represents the loaded model. Sessions are owned by whoever runs
// inference on them and are closed there.
type Instance struct {
	LoadedAt *time.Time        `json:"loaded_at,omitempty"`
	Manifest *Manifest         `json:"manifest,omitempty"`
	Path     string            `json:"path"`
	Status   Status            `json:"status"`
	Error    string            `json:"error,omitempty"`
	Sessions []backend.Session `json:"-"`
}

// NewInstance creates an unloaded instance for the package at path.
func NewInstance(path string) *Instance {
	return &Instance{
		Path:   path,
		Status: StatusUnloaded,
	}
}

// SetStatus sets the status of the instance.
func (mi *Instance) SetStatus(status Status) {
	mi.Status = status
	if status == StatusLoaded {
		now := time.Now()
		mi.LoadedAt = &now
	}
}

// SetError records a load failure.
func (mi *Instance) SetError(err error) {
	mi.Error = err.Error()
	mi.Status = StatusFailed
}
