package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ekisa-team/herbarium/internal/config"
)

const (
	// DefaultHuggingFaceEndpoint is the public Hugging Face hub.
	DefaultHuggingFaceEndpoint = "https://huggingface.co"

	defaultRevision = "main"
	markerSuffix    = ".source"
)

// HuggingFaceDownloader fetches one file of a Hugging Face repository. A marker
// file beside the artifact records the repo and revision it came from, so a
// config change triggers a new download.
type HuggingFaceDownloader struct {
	http     *HTTPDownloader
	endpoint string
}

// NewHuggingFaceDownloader creates a downloader against endpoint.
func NewHuggingFaceDownloader(client *http.Client, endpoint string) *HuggingFaceDownloader {
	return &HuggingFaceDownloader{
		http:     NewHTTPDownloader(client),
		endpoint: strings.TrimRight(endpoint, "/"),
	}
}

// Download fetches the configured repository file into targetDir/filename.
func (d *HuggingFaceDownloader) Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error) {
	source, err := modelConfig.GetSource()
	if err != nil {
		return "", false, fmt.Errorf("failed to get model source: %w", err)
	}

	hfSource, ok := source.(config.HuggingFaceSource)
	if !ok {
		return "", false, fmt.Errorf("invalid source type: %T", source)
	}

	repo := strings.TrimSpace(hfSource.Repo)
	if repo == "" || !strings.Contains(repo, "/") {
		return "", false, fmt.Errorf("%w: invalid repo name %q", ErrInvalidRequest, repo)
	}

	revision := hfSource.Revision
	if revision == "" {
		revision = defaultRevision
	}

	if err := EnsureModelsDirectory(targetDir); err != nil {
		return "", false, err
	}

	filename := modelConfig.Filename
	if filename == "" {
		filename = filepath.Base(hfSource.File)
	}

	destination := filepath.Join(targetDir, filename)
	markerPath := destination + markerSuffix
	marker := markerContent(repo, hfSource.File, revision)

	if _, err := os.Stat(destination); err == nil {
		if !shouldRedownload(markerPath, marker) {
			slog.Info("Artifact already downloaded and up-to-date (marker match), skipping", "repo", repo, "path", destination)
			return destination, true, nil
		}
	}

	fileURL := d.resolveURL(repo, revision, hfSource.File)
	if err := d.http.validate.Struct(fetchRequest{URL: fileURL, Destination: destination}); err != nil {
		return "", false, &FetchError{URL: fileURL, Destination: destination, Err: fmt.Errorf("%w: %w", ErrInvalidRequest, err)}
	}

	var header http.Header
	if hfSource.Token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + hfSource.Token}}
	}

	slog.Info("Downloading artifact", "repo", repo, "revision", revision, "file", hfSource.File, "path", destination)

	if err := d.http.download(ctx, fileURL, destination, header); err != nil {
		return "", false, &FetchError{URL: fileURL, Destination: destination, Err: err}
	}

	if err := os.WriteFile(markerPath, []byte(marker), 0o644); err != nil {
		slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
	}

	slog.Info("Artifact downloaded successfully", "repo", repo, "path", destination)
	return destination, false, nil
}

// resolveURL returns the hub download URL of a repository file.
func (d *HuggingFaceDownloader) resolveURL(repo, revision, file string) string {
	return fmt.Sprintf("%s/%s/resolve/%s/%s", d.endpoint, repo, url.PathEscape(revision), strings.TrimLeft(file, "/"))
}

// markerContent generates the expected content of the marker file.
func markerContent(repo, file, revision string) string {
	return fmt.Sprintf("repo: %s\nfile: %s\nrevision: %s\n", repo, file, revision)
}

// shouldRedownload compares the marker on disk with the expected content.
func shouldRedownload(markerPath, expected string) bool {
	content, err := os.ReadFile(markerPath)
	if err != nil {
		slog.Debug("Marker file missing or unreadable", "path", markerPath, "error", err)
		return true
	}

	if string(content) != expected {
		slog.Info("Artifact source changed (marker mismatch), will redownload",
			"marker_path", markerPath,
			"expected_snippet", expected,
			"actual_snippet", string(content))
		return true
	}

	return false
}
