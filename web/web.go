// Package web embeds the upload page and its static assets.
package web

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed view/index.html
var index []byte

//go:embed static
var static embed.FS

// Index returns the upload page. A non-empty path replaces the embedded page.
func Index(path string) ([]byte, error) {
	if path == "" {
		return index, nil
	}

	return os.ReadFile(path)
}

// Static returns the static assets. A non-empty dir replaces the embedded files.
func Static(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}

	return fs.Sub(static, "static")
}
