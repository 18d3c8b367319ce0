package config

import (
	"fmt"

	goenv "github.com/Netflix/go-env"

	"github.com/ekisa-team/herbarium/internal/xfs"
)

// Overrides are settings taken from the process environment.
// They win over both the config file and the built-in defaults.
type Overrides struct {
	HTTPPort    *int    `env:"HERBARIUM_SERVER_HTTP_PORT"`
	GRPCPort    *int    `env:"HERBARIUM_SERVER_GRPC_PORT"`
	ModelsPath  *string `env:"HERBARIUM_MODELS_PATH"`
	ArtifactURL *string `env:"HERBARIUM_ARTIFACT_URL"`
	LogLevel    *string `env:"HERBARIUM_LOG_LEVEL"`
}

// ApplyEnv reads Overrides from the environment and applies them to c.
func ApplyEnv(c *Config) error {
	var o Overrides
	if _, err := goenv.UnmarshalFromEnviron(&o); err != nil {
		return fmt.Errorf("config: failed to read environment overrides: %w", err)
	}

	o.Apply(c)

	return nil
}

// Apply copies every set override into c.
func (o Overrides) Apply(c *Config) {
	if o.HTTPPort != nil {
		c.Server.HTTPPort = *o.HTTPPort
	}
	if o.GRPCPort != nil {
		c.Server.GRPCPort = *o.GRPCPort
	}
	if o.ModelsPath != nil {
		c.Storage.ModelsDir = *o.ModelsPath
	}
	if o.ArtifactURL != nil {
		c.Model.SetHTTPSource(HTTPSource{URL: *o.ArtifactURL})
	}
	if o.LogLevel != nil {
		c.Logging.Level = *o.LogLevel
	}
}

// ModelsPath returns the directory holding downloaded artifacts.
// Precedence:
// 1. HERBARIUM_MODELS_PATH environment variable (applied through ApplyEnv).
// 2. ModelsDir field in the config.
// 3. Default models path.
func (c *Config) ModelsPath() string {
	if c.Storage.ModelsDir != "" {
		return xfs.ExpandTilde(c.Storage.ModelsDir)
	}

	return xfs.ExpandTilde(DefaultModelsPath())
}
