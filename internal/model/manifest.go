package model

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ekisa-team/herbarium/internal/backend"
	"github.com/ekisa-team/herbarium/internal/labels"
)

// FormatVersion is the only package format this loader understands.
const FormatVersion = 1

const (
	// NetworkEntry is the package entry holding the serialized network.
	NetworkEntry = "model.onnx"

	// ManifestEntry is the package entry holding the manifest.
	ManifestEntry = "metadata.json"

	defaultInputName  = "input"
	defaultOutputName = "output"
)

var (
	imageNetMean = []float32{0.485, 0.456, 0.406}
	imageNetStd  = []float32{0.229, 0.224, 0.225}
)

// Manifest describes the network shipped in a package.
type Manifest struct {
	Producer      string           `json:"producer,omitempty"`
	Backend       backend.Provider `json:"backend"     validate:"required"`
	Device        backend.Device   `json:"device"      validate:"required,oneof=cpu cuda"`
	InputName     string           `json:"input_name"  validate:"required"`
	OutputName    string           `json:"output_name" validate:"required"`
	Classes       []string         `json:"classes"     validate:"required,min=1,unique,dive,required"`
	Mean          []float32        `json:"mean"        validate:"len=3"`
	Std           []float32        `json:"std"         validate:"len=3,dive,gt=0"`
	FormatVersion int              `json:"format_version"`
	ImageSize     int              `json:"image_size"  validate:"required,min=8,max=4096"`
}

// ParseManifest decodes and validates a manifest. The format version is checked
// before anything else so a newer package is reported as such.
func ParseManifest(data []byte, validate *validator.Validate) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, loadError(ReasonMalformed, fmt.Errorf("failed to parse manifest: %w", err))
	}

	if m.FormatVersion != FormatVersion {
		return nil, loadError(ReasonUnsupportedVersion,
			fmt.Errorf("manifest format version %d, want %d", m.FormatVersion, FormatVersion))
	}

	m.applyDefaults()

	if err := validate.Struct(&m); err != nil {
		return nil, loadError(ReasonMalformed, fmt.Errorf("invalid manifest: %w", err))
	}

	if err := labels.Validate(m.Classes); err != nil {
		return nil, loadError(ReasonMalformed, fmt.Errorf("invalid manifest classes: %w", err))
	}

	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Device == "" {
		m.Device = backend.DeviceCPU
	}
	if m.InputName == "" {
		m.InputName = defaultInputName
	}
	if m.OutputName == "" {
		m.OutputName = defaultOutputName
	}
	if len(m.Mean) == 0 {
		m.Mean = append([]float32(nil), imageNetMean...)
	}
	if len(m.Std) == 0 {
		m.Std = append([]float32(nil), imageNetStd...)
	}
}

// SessionSpec returns the backend session description for network.
func (m *Manifest) SessionSpec(network []byte) backend.SessionSpec {
	size := int64(m.ImageSize)

	return backend.SessionSpec{
		Network:     network,
		InputName:   m.InputName,
		OutputName:  m.OutputName,
		InputShape:  []int64{1, 3, size, size},
		OutputShape: []int64{1, int64(len(m.Classes))},
		Device:      m.Device,
	}
}
