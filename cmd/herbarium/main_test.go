package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/herbarium/internal/backend"
	"github.com/ekisa-team/herbarium/internal/config"
	"github.com/ekisa-team/herbarium/internal/envvar"
	"github.com/ekisa-team/herbarium/internal/labels"
	"github.com/ekisa-team/herbarium/internal/model"
)

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	cfg, watchable, err := loadConfig(filepath.Join(t.TempDir(), "config.yaml"), "", false)
	require.NoError(t, err)

	assert.False(t, watchable)
	assert.Equal(t, 5042, cfg.Server.HTTPPort)
	assert.Equal(t, config.DefaultArtifactFilename, cfg.Model.Filename)
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "config.yaml"), "", true)
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv(envvar.HerbariumServerHTTPPort, "8088")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1"
server:
  http_port: 9000
model:
  source:
    file:
      path: /srv/herbs.zip
  filename: herbs.zip
`), 0o644))

	cfg, watchable, err := loadConfig(path, "", true)
	require.NoError(t, err)

	assert.True(t, watchable)
	assert.Equal(t, 8088, cfg.Server.HTTPPort)
}

func TestOnReload_AppliesLevel(t *testing.T) {
	level := new(slog.LevelVar)
	running := config.Default()

	reloaded := config.Default()
	reloaded.Logging.Level = "debug"

	onReload(running, level)(reloaded, nil)
	assert.Equal(t, slog.LevelDebug, level.Level())

	// A failed reload keeps the current level
	onReload(running, level)(nil, assert.AnError)
	assert.Equal(t, slog.LevelDebug, level.Level())
}

func TestPrintSummary(t *testing.T) {
	now := time.Now()
	instance := &model.Instance{
		Path:     "/models/herbs-new-s3.zip",
		Status:   model.StatusLoaded,
		LoadedAt: &now,
		Manifest: &model.Manifest{
			Backend:   backend.ProviderONNXRuntime,
			Device:    backend.DeviceCPU,
			Classes:   labels.Codes(),
			ImageSize: 224,
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, config.Default(), instance, true)

	out := buf.String()
	assert.Contains(t, out, "/models/herbs-new-s3.zip (cached)")
	assert.Contains(t, out, "onnxruntime")
	assert.Contains(t, out, "bamboo shoot")
	assert.Contains(t, out, "serve")
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		description string
		args        []string
		positional  []string
		port        int
	}{
		{"Should accept flags before serve", []string{"-http-port", "8080", "serve"}, []string{"serve"}, 8080},
		{"Should accept flags after serve", []string{"serve", "-http-port", "8080"}, []string{"serve"}, 8080},
		{"Should accept flags on both sides", []string{"-config", "c.yaml", "serve", "-http-port=9090"}, []string{"serve"}, 9090},
		{"Should return no positional arguments", []string{"-http-port", "8080"}, nil, 8080},
		{"Should keep every positional argument", []string{"check", "serve"}, []string{"check", "serve"}, 5042},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			fs := flag.NewFlagSet("herbarium", flag.ContinueOnError)
			port := fs.Int("http-port", 5042, "")
			fs.String("config", "", "")

			positional, err := parseArgs(fs, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.positional, positional)
			assert.Equal(t, tt.port, *port)
		})
	}
}

func TestParseArgs_UnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("herbarium", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	_, err := parseArgs(fs, []string{"serve", "-nope"})
	assert.Error(t, err)
}

func TestFetchError(t *testing.T) {
	cause := errors.New("404 Not Found")

	cfg := config.Default()
	err := fetchError(&cfg.Model, cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), config.DefaultArtifactURL)
	assert.Contains(t, err.Error(), envvar.HerbariumArtifactURL)

	cfg.Model.SetHTTPSource(config.HTTPSource{URL: "https://mirror.example.com/herbs.zip"})
	err = fetchError(&cfg.Model, cause)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), envvar.HerbariumArtifactURL)
}
