package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	// DefaultArtifactURL is the release location the package is expected to be
	// published at. It is a placeholder until a release carries the asset;
	// deployments point model.source or HERBARIUM_ARTIFACT_URL at their own copy.
	DefaultArtifactURL = "https://github.com/ekisa-team/herbarium/releases/download/v1.0.0/herbs-new-s3.zip"

	// DefaultArtifactFilename is the local file name of the downloaded package.
	DefaultArtifactFilename = "herbs-new-s3.zip"

	defaultHost            = "0.0.0.0"
	defaultHTTPPort        = 5042
	defaultMaxUploadBytes  = 32 << 20
	defaultMaxImagePixels  = 50_000_000
	defaultShutdownTimeout = 10 * time.Second
)

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			Host:            defaultHost,
			HTTPPort:        defaultHTTPPort,
			MaxUploadBytes:  defaultMaxUploadBytes,
			MaxImagePixels:  defaultMaxImagePixels,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Model: ModelConfig{
			Source:   SourceConfig{HTTP: &HTTPSource{URL: DefaultArtifactURL}},
			Filename: DefaultArtifactFilename,
		},
		Inference: InferenceConfig{
			Device:  "cpu",
			Workers: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultHTTPPort returns the default HTTP port.
func DefaultHTTPPort() int {
	return defaultHTTPPort
}

// DefaultConfigPath returns the default path for the herbarium config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "herbarium", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "herbarium")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "herbarium")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "herbarium")
		}
		return filepath.Join(home, ".config", "herbarium")
	}
}

// DefaultModelsPath returns the default path for the herbarium models directory.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "herbarium", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "herbarium", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "herbarium", "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "herbarium", "models")
		}
		return filepath.Join(home, ".cache", "herbarium", "models")
	}
}
