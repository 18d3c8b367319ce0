package artifact

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/herbarium/internal/config"
)

func newArtifactServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func TestEnsureLocal_FetchesOnce(t *testing.T) {
	srv, hits := newArtifactServer(t, http.StatusOK, "artifact-bytes")
	dest := filepath.Join(t.TempDir(), "herbs.zip")
	d := NewHTTPDownloader(srv.Client())

	cached, err := d.EnsureLocal(context.Background(), srv.URL+"/herbs.zip", dest)
	require.NoError(t, err)
	assert.False(t, cached)

	cached, err = d.EnsureLocal(context.Background(), srv.URL+"/herbs.zip", dest)
	require.NoError(t, err)
	assert.True(t, cached)

	assert.Equal(t, int32(1), hits.Load())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "artifact-bytes", string(data))
}

func TestEnsureLocal_ExistingFileIsTrusted(t *testing.T) {
	srv, hits := newArtifactServer(t, http.StatusOK, "new")
	dest := filepath.Join(t.TempDir(), "herbs.zip")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	cached, err := NewHTTPDownloader(srv.Client()).EnsureLocal(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Zero(t, hits.Load())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestEnsureLocal_HTTPErrorLeavesNoFile(t *testing.T) {
	srv, _ := newArtifactServer(t, http.StatusNotFound, "missing")
	dir := t.TempDir()
	dest := filepath.Join(dir, "herbs.zip")

	_, err := NewHTTPDownloader(srv.Client()).EnsureLocal(context.Background(), srv.URL, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, dest, fetchErr.Destination)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnsureLocal_NetworkError(t *testing.T) {
	srv, _ := newArtifactServer(t, http.StatusOK, "")
	url := srv.URL
	srv.Close()

	_, err := NewHTTPDownloader(nil).EnsureLocal(context.Background(), url, filepath.Join(t.TempDir(), "a.zip"))
	assert.Error(t, err)
}

func TestEnsureLocal_InvalidRequest(t *testing.T) {
	d := NewHTTPDownloader(nil)
	dest := filepath.Join(t.TempDir(), "a.zip")

	tests := []struct {
		description string
		url         string
		destination string
	}{
		{"Should reject an empty URL", "", dest},
		{"Should reject a non-http URL", "ftp://example.com/a.zip", dest},
		{"Should reject an empty destination", "https://example.com/a.zip", ""},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := d.EnsureLocal(context.Background(), tt.url, tt.destination)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestEnsureLocal_CanceledContext(t *testing.T) {
	srv, _ := newArtifactServer(t, http.StatusOK, "bytes")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPDownloader(srv.Client()).EnsureLocal(ctx, srv.URL, filepath.Join(t.TempDir(), "a.zip"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_HTTPSource(t *testing.T) {
	srv, hits := newArtifactServer(t, http.StatusOK, "zip")
	dir := filepath.Join(t.TempDir(), "nested", "models")

	mc := &config.ModelConfig{Filename: "herbs.zip"}
	mc.SetHTTPSource(config.HTTPSource{URL: srv.URL + "/herbs.zip"})

	path, cached, err := Fetch(context.Background(), mc, dir, srv.Client())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, filepath.Join(dir, "herbs.zip"), path)

	_, cached, err = Fetch(context.Background(), mc, dir, srv.Client())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_FileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.zip")
	require.NoError(t, os.WriteFile(path, []byte("zip"), 0o644))

	mc := &config.ModelConfig{Filename: "ignored.zip"}
	mc.SetFileSource(config.FileSource{Path: path})

	got, cached, err := Fetch(context.Background(), mc, t.TempDir(), nil)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, path, got)

	mc.SetFileSource(config.FileSource{Path: filepath.Join(t.TempDir(), "missing.zip")})
	_, _, err = Fetch(context.Background(), mc, t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrMissingFile)
}

func TestGetDownloader_Unsupported(t *testing.T) {
	_, err := GetDownloader(config.SourceType("s3"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}
