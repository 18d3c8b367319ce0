package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/ekisa-team/herbarium/internal/config"
)

// fetchRequest is the validated input of EnsureLocal.
type fetchRequest struct {
	URL         string `validate:"required,http_url"`
	Destination string `validate:"required,max=4096"`
}

// HTTPDownloader fetches artifacts over HTTP once and keeps them on disk.
// There is no checksum verification, no retry and no partial-download resume.
type HTTPDownloader struct {
	client   *http.Client
	validate *validator.Validate
}

// NewHTTPDownloader creates a downloader. A nil client uses http.DefaultClient.
func NewHTTPDownloader(client *http.Client) *HTTPDownloader {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPDownloader{
		client:   client,
		validate: validator.New(),
	}
}

// Download fetches the configured URL into targetDir/filename.
func (d *HTTPDownloader) Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error) {
	source, err := modelConfig.GetSource()
	if err != nil {
		return "", false, fmt.Errorf("failed to get model source: %w", err)
	}

	httpSource, ok := source.(config.HTTPSource)
	if !ok {
		return "", false, fmt.Errorf("invalid source type: %T", source)
	}

	if err := EnsureModelsDirectory(targetDir); err != nil {
		return "", false, err
	}

	destination := filepath.Join(targetDir, modelConfig.Filename)
	cached, err := d.EnsureLocal(ctx, httpSource.URL, destination)
	if err != nil {
		return "", false, err
	}

	return destination, cached, nil
}

// EnsureLocal downloads url to destination unless destination already exists.
// An existing file is trusted as-is. It reports whether the file was already present.
func (d *HTTPDownloader) EnsureLocal(ctx context.Context, url, destination string) (bool, error) {
	if err := d.validate.Struct(fetchRequest{URL: url, Destination: destination}); err != nil {
		return false, &FetchError{URL: url, Destination: destination, Err: errors.Join(ErrInvalidRequest, err)}
	}

	if _, err := os.Stat(destination); err == nil {
		slog.Info("Artifact already present, skipping download", "path", destination)
		return true, nil
	}

	slog.Info("Downloading artifact", "url", url, "path", destination)

	if err := d.download(ctx, url, destination, nil); err != nil {
		return false, &FetchError{URL: url, Destination: destination, Err: err}
	}

	slog.Info("Artifact downloaded successfully", "url", url, "path", destination)
	return false, nil
}

// download writes the response body to a temporary file next to destination and renames
// it into place, so an interrupted transfer never leaves a file that looks complete.
func (d *HTTPDownloader) download(ctx context.Context, url, destination string, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destination), filepath.Base(destination)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), destination); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}

	slog.Debug("Artifact written", "path", destination, "bytes", n)
	return nil
}
