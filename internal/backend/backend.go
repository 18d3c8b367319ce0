package backend

// Provider is a string identifier for a backend provider.
type Provider string

const (
	// ProviderONNXRuntime runs ONNX networks through onnxruntime.
	ProviderONNXRuntime Provider = "onnxruntime"
)

// Device is the hardware a network was exported for.
type Device string

const (
	// DeviceCPU runs on any host.
	DeviceCPU Device = "cpu"

	// DeviceCUDA requires an NVIDIA GPU and a CUDA-enabled runtime.
	DeviceCUDA Device = "cuda"
)

// Backend defines the core interface for all inference backends.
type Backend interface {
	// Provider returns the backend identifier.
	Provider() Provider

	// Supports reports whether the backend can execute networks exported for device.
	Supports(device Device) bool

	// NewSession prepares a network for repeated single-input inference.
	NewSession(spec SessionSpec) (Session, error)

	// Close cleans up resources.
	Close() error
}

// Session runs one network. A session is not safe for concurrent use.
type Session interface {
	// Predict executes one forward pass and returns a copy of the raw output.
	Predict(input []float32) ([]float32, error)

	// Close releases the session.
	Close() error
}

// SessionSpec describes the network a session runs.
type SessionSpec struct {
	// Network is the serialized network.
	Network []byte

	// InputName and OutputName are the graph tensor names.
	InputName  string
	OutputName string

	// InputShape and OutputShape are the tensor dimensions, batch first.
	InputShape  []int64
	OutputShape []int64

	// Device is the hardware the network targets.
	Device Device
}

// InputSize returns the number of elements of the input tensor.
func (s SessionSpec) InputSize() int {
	return elements(s.InputShape)
}

// OutputSize returns the number of elements of the output tensor.
func (s SessionSpec) OutputSize() int {
	return elements(s.OutputShape)
}

func elements(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}

	n := 1
	for _, d := range shape {
		n *= int(d)
	}

	return n
}
