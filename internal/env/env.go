// Package env resolves the deployment environment of the process.
package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/herbarium/internal/envvar"
)

// Environment is the deployment environment the process runs in.
type Environment string

const (
	// Development favors human-readable, colored logs.
	Development Environment = "development"

	// Production favors structured JSON logs.
	Production Environment = "production"
)

// FromEnv reads the environment from HERBARIUM_ENV, defaulting to Development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.HerbariumEnv))
}

// Parse converts s into an Environment. Unrecognized values map to Development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// IsProduction reports whether e is the production environment.
func (e Environment) IsProduction() bool {
	return e == Production
}
