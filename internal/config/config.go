package config

import (
	"errors"
	"time"
)

// SourceType represents the type of model source.
type SourceType string

const (
	// SourceTypeHTTP represents an artifact downloaded over HTTP(S).
	SourceTypeHTTP SourceType = "http"

	// SourceTypeFile represents an artifact already present on local disk.
	SourceTypeFile SourceType = "file"

	// SourceTypeHuggingFace represents an artifact stored in a Hugging Face repository.
	SourceTypeHuggingFace SourceType = "huggingface"
)

// Config holds the main configuration for the application.
type Config struct {
	Version   string          `json:"version"           yaml:"version"`
	Server    ServerConfig    `json:"server"            yaml:"server"`
	Storage   StorageConfig   `json:"storage,omitempty" yaml:"storage,omitempty"`
	Model     ModelConfig     `json:"model"             yaml:"model"`
	Inference InferenceConfig `json:"inference"         yaml:"inference"`
	Logging   LoggingConfig   `json:"logging"           yaml:"logging"`
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Host            string        `json:"host"                       yaml:"host"`
	StaticDir       string        `json:"static_dir,omitempty"       yaml:"static_dir,omitempty"`
	IndexFile       string        `json:"index_file,omitempty"       yaml:"index_file,omitempty"`
	HTTPPort        int           `json:"http_port"                  yaml:"http_port"`
	GRPCPort        int           `json:"grpc_port"                  yaml:"grpc_port"`
	MaxUploadBytes  int64         `json:"max_upload_bytes"           yaml:"max_upload_bytes"`
	MaxImagePixels  int64         `json:"max_image_pixels"           yaml:"max_image_pixels"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`
}

// StorageConfig holds configuration for the downloaded artifacts.
type StorageConfig struct {
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
}

// ModelConfig holds configuration for the served model.
type ModelConfig struct {
	Source   SourceConfig `json:"source"   yaml:"source"`
	Filename string       `json:"filename" yaml:"filename"`
}

// SourceConfig wraps optional sources (only one should be set).
type SourceConfig struct {
	HTTP        *HTTPSource        `json:"http,omitempty"        yaml:"http,omitempty"`
	File        *FileSource        `json:"file,omitempty"        yaml:"file,omitempty"`
	HuggingFace *HuggingFaceSource `json:"huggingface,omitempty" yaml:"huggingface,omitempty"`
}

// InferenceConfig holds the settings of the inference runtime.
type InferenceConfig struct {
	Device      string `json:"device"                 yaml:"device"`
	LibraryPath string `json:"library_path,omitempty" yaml:"library_path,omitempty"`
	Workers     int    `json:"workers"                yaml:"workers"`
}

// LoggingConfig holds the logging settings. Level is applied live on reload.
type LoggingConfig struct {
	Level string `json:"level"          yaml:"level"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// -------------------------
// Source definitions
// -------------------------

// ModelSource represents a source for a model artifact.
type ModelSource interface {
	Type() SourceType
}

// HTTPSource represents an artifact fetched from a URL.
type HTTPSource struct {
	URL string `json:"url" yaml:"url"`
}

// Type returns the HTTP source type.
func (h HTTPSource) Type() SourceType {
	return SourceTypeHTTP
}

// FileSource represents an artifact read from a local path.
type FileSource struct {
	Path string `json:"path" yaml:"path"`
}

// Type returns the file source type.
func (f FileSource) Type() SourceType {
	return SourceTypeFile
}

// HuggingFaceSource represents a file of a Hugging Face model repository.
type HuggingFaceSource struct {
	Repo     string `json:"repo"               yaml:"repo"`
	File     string `json:"file"               yaml:"file"`
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`
	Token    string `json:"token,omitempty"    yaml:"token,omitempty"`
}

// Type returns the Hugging Face source type.
func (h HuggingFaceSource) Type() SourceType {
	return SourceTypeHuggingFace
}

// GetSource returns the active source for the model.
func (m *ModelConfig) GetSource() (ModelSource, error) {
	switch {
	case m.Source.HTTP != nil:
		return *m.Source.HTTP, nil
	case m.Source.File != nil:
		return *m.Source.File, nil
	case m.Source.HuggingFace != nil:
		return *m.Source.HuggingFace, nil
	}

	return nil, errors.New("no source configured for model")
}

// SetHTTPSource sets the HTTP source, clearing any other.
func (m *ModelConfig) SetHTTPSource(source HTTPSource) {
	m.Source = SourceConfig{HTTP: &source}
}

// SetFileSource sets the local file source, clearing any other.
func (m *ModelConfig) SetFileSource(source FileSource) {
	m.Source = SourceConfig{File: &source}
}

// SetHuggingFaceSource sets the Hugging Face source, clearing any other.
func (m *ModelConfig) SetHuggingFaceSource(source HuggingFaceSource) {
	m.Source = SourceConfig{HuggingFace: &source}
}

// UsesDefaultArtifact reports whether the model comes from DefaultArtifactURL.
func (m *ModelConfig) UsesDefaultArtifact() bool {
	return m.Source.HTTP != nil && m.Source.HTTP.URL == DefaultArtifactURL
}
