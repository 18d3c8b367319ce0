package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/ekisa-team/herbarium/internal/backend"
)

// Loader opens model packages and prepares backend sessions for them.
type Loader struct {
	backends *backend.Registry
	validate *validator.Validate
}

// NewLoader creates a loader resolving providers in backends.
func NewLoader(backends *backend.Registry) *Loader {
	return &Loader{
		backends: backends,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Load opens dir/filename. See LoadFile.
func (l *Loader) Load(ctx context.Context, dir, filename string, sessions int) (*Instance, error) {
	return l.LoadFile(ctx, filepath.Join(dir, filename), sessions)
}

// LoadFile opens the package at path and creates the given number of sessions.
// Every failure is a *LoadError.
func (l *Loader) LoadFile(ctx context.Context, path string, sessions int) (*Instance, error) {
	if sessions < 1 {
		return nil, loadError(ReasonRuntime, ErrInvalidWorkers)
	}

	instance := NewInstance(path)
	instance.SetStatus(StatusLoading)

	fail := func(err error) (*Instance, error) {
		var le *LoadError
		if errors.As(err, &le) {
			slog.Error("Failed to load model", "path", path, "reason", le.Reason, "error", le.Err)
		}
		instance.SetError(err)
		return nil, err
	}

	network, raw, err := readPackage(path)
	if err != nil {
		return fail(err)
	}

	manifest, err := ParseManifest(raw, l.validate)
	if err != nil {
		return fail(err)
	}

	b, ok := l.backends.Get(manifest.Backend)
	if !ok {
		return fail(loadError(ReasonUnsupportedBackend,
			fmt.Errorf("%w: %q", backend.ErrNotFound, manifest.Backend)))
	}

	if !b.Supports(manifest.Device) {
		return fail(&LoadError{
			Reason:      ReasonIncompatibleDevice,
			Err:         fmt.Errorf("backend %s cannot run %s networks on this host", b.Provider(), manifest.Device),
			Remediation: RemediationCPUOnly,
		})
	}

	spec := manifest.SessionSpec(network)
	opened := make([]backend.Session, 0, sessions)
	for range sessions {
		if err := ctx.Err(); err != nil {
			closeAll(opened)
			return fail(loadError(ReasonRuntime, err))
		}

		s, err := b.NewSession(spec)
		if err != nil {
			closeAll(opened)
			return fail(loadError(ReasonRuntime, err))
		}
		opened = append(opened, s)
	}

	instance.Manifest = manifest
	instance.Sessions = opened
	instance.SetStatus(StatusLoaded)

	slog.Info("Model loaded",
		"path", path,
		"backend", manifest.Backend,
		"device", manifest.Device,
		"classes", len(manifest.Classes),
		"image_size", manifest.ImageSize,
		"sessions", len(opened),
	)

	return instance, nil
}

func closeAll(sessions []backend.Session) {
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			slog.Warn("Failed to close session", "error", err)
		}
	}
}
