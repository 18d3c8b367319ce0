package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"
)

const embeddedSchemaURL = "herbarium.v1.schema.json"

//go:embed herbarium.v1.schema.json
var embeddedSchema []byte

// LoadAndValidate loads and validates the configuration.
// An empty schemaPath validates against the schema compiled into the binary.
func LoadAndValidate(path, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}

	schema, err := compileSchema(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed to compile schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal into Config struct: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

func compileSchema(schemaPath string) (*jsonschema.Schema, error) {
	if schemaPath != "" {
		return jsonschema.Compile(schemaPath)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
		return nil, err
	}

	return compiler.Compile(embeddedSchemaURL)
}

// applyDefaults fills every zero-valued setting from Default.
func applyDefaults(c *Config) {
	d := Default()

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = d.Server.HTTPPort
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = d.Server.MaxUploadBytes
	}
	if c.Server.MaxImagePixels == 0 {
		c.Server.MaxImagePixels = d.Server.MaxImagePixels
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Model.Filename == "" {
		c.Model.Filename = d.Model.Filename
	}
	if _, err := c.Model.GetSource(); err != nil {
		c.Model.Source = d.Model.Source
	}
	if c.Inference.Device == "" {
		c.Inference.Device = d.Inference.Device
	}
	if c.Inference.Workers == 0 {
		c.Inference.Workers = d.Inference.Workers
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}
