// Package onnx runs ONNX networks through the onnxruntime shared library.
package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ekisa-team/herbarium/internal/backend"
)

var (
	initOnce sync.Once
	initErr  error
)

// ErrCUDAUnavailable is returned when a CUDA session is requested on a host without CUDA support.
var ErrCUDAUnavailable = errors.New("cuda execution provider is not available")

// Backend implements backend.Backend on top of onnxruntime.
type Backend struct {
	libraryPath string
	device      backend.Device
	closeOnce   sync.Once
}

// New initializes the onnxruntime environment once per process. device is the
// hardware this host offers; an empty value means CPU only.
func New(libraryPath string, device backend.Device) (*Backend, error) {
	initOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize onnxruntime environment: %w", initErr)
	}

	if device == "" {
		device = backend.DeviceCPU
	}

	slog.Debug("onnxruntime initialized", "library_path", libraryPath, "device", device)

	return &Backend{libraryPath: libraryPath, device: device}, nil
}

// Provider returns the backend identifier.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderONNXRuntime
}

// Supports reports whether networks exported for device can run on this host.
func (b *Backend) Supports(device backend.Device) bool {
	switch device {
	case backend.DeviceCPU:
		return true
	case backend.DeviceCUDA:
		return b.device == backend.DeviceCUDA
	default:
		return false
	}
}

// NewSession creates a session with its own input and output tensors.
func (b *Backend) NewSession(spec backend.SessionSpec) (backend.Session, error) {
	if !b.Supports(spec.Device) {
		return nil, fmt.Errorf("%w: device %q", ErrCUDAUnavailable, spec.Device)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(spec.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(spec.OutputShape...))
	if err != nil {
		_ = input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	options, err := b.sessionOptions(spec.Device)
	if err != nil {
		_ = input.Destroy()
		_ = output.Destroy()
		return nil, err
	}
	defer func() { _ = options.Destroy() }()

	session, err := ort.NewAdvancedSessionWithONNXData(spec.Network,
		[]string{spec.InputName}, []string{spec.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		options)
	if err != nil {
		_ = input.Destroy()
		_ = output.Destroy()
		return nil, fmt.Errorf("failed to create onnx session: %w", err)
	}

	return &Session{
		session: session,
		input:   input,
		output:  output,
	}, nil
}

func (b *Backend) sessionOptions(device backend.Device) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	if device != backend.DeviceCUDA {
		return options, nil
	}

	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		_ = options.Destroy()
		return nil, fmt.Errorf("%w: %w", ErrCUDAUnavailable, err)
	}
	defer func() { _ = cuda.Destroy() }()

	if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
		_ = options.Destroy()
		return nil, fmt.Errorf("%w: %w", ErrCUDAUnavailable, err)
	}

	return options, nil
}

// Close tears down the onnxruntime environment.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = ort.DestroyEnvironment()
	})

	return err
}

// Session is a single onnxruntime session. It is not safe for concurrent use.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	mu      sync.Mutex
	closed  bool
}

// Predict copies input into the session tensor, runs the network and returns a
// copy of the output.
func (s *Session) Predict(input []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, backend.ErrSessionClosed
	}

	data := s.input.GetData()
	if len(input) != len(data) {
		return nil, fmt.Errorf("%w: got %d, want %d", backend.ErrInputSize, len(input), len(data))
	}
	copy(data, input)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := s.output.GetData()
	result := make([]float32, len(out))
	copy(result, out)

	return result, nil
}

// Close releases the session and its tensors.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return errors.Join(s.session.Destroy(), s.input.Destroy(), s.output.Destroy())
}
