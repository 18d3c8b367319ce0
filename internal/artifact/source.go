// Package artifact makes model artifacts available on local disk.
package artifact

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/ekisa-team/herbarium/internal/config"
)

// Downloader makes the artifact described by a model config available under targetDir.
// It returns the local path and whether the artifact was already present.
type Downloader interface {
	Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (path string, cached bool, err error)
}

// GetDownloader returns the downloader for a source type.
func GetDownloader(sourceType config.SourceType, client *http.Client) (Downloader, error) {
	switch sourceType {
	case config.SourceTypeHTTP:
		return NewHTTPDownloader(client), nil
	case config.SourceTypeFile:
		return &FileDownloader{}, nil
	case config.SourceTypeHuggingFace:
		return NewHuggingFaceDownloader(client, DefaultHuggingFaceEndpoint), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, sourceType)
}

// Fetch resolves the model's source and makes its artifact available under targetDir.
func Fetch(ctx context.Context, modelConfig *config.ModelConfig, targetDir string, client *http.Client) (string, bool, error) {
	source, err := modelConfig.GetSource()
	if err != nil {
		return "", false, fmt.Errorf("failed to get model source: %w", err)
	}

	downloader, err := GetDownloader(source.Type(), client)
	if err != nil {
		return "", false, err
	}

	return downloader.Download(ctx, modelConfig, targetDir)
}

// EnsureModelsDirectory creates the models directory if needed.
func EnsureModelsDirectory(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create models directory %s: %w", path, err)
	}

	return nil
}

// FileDownloader serves artifacts that already live on local disk.
type FileDownloader struct{}

// Download returns the configured path if it exists. Nothing is copied.
func (d *FileDownloader) Download(_ context.Context, modelConfig *config.ModelConfig, _ string) (string, bool, error) {
	source, err := modelConfig.GetSource()
	if err != nil {
		return "", false, fmt.Errorf("failed to get model source: %w", err)
	}

	fileSource, ok := source.(config.FileSource)
	if !ok {
		return "", false, fmt.Errorf("invalid source type: %T", source)
	}

	info, err := os.Stat(fileSource.Path)
	if err != nil || info.IsDir() {
		return "", false, &FetchError{URL: "file://" + fileSource.Path, Destination: fileSource.Path, Err: ErrMissingFile}
	}

	return fileSource.Path, true, nil
}
