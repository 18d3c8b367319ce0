package model

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
)

const maxEntrySize = 1 << 30

// readPackage returns the network and manifest bytes of the package at p.
// Entries are matched by base name so packages built from a directory work too.
func readPackage(p string) (network, manifest []byte, err error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, nil, loadError(ReasonMalformed, fmt.Errorf("failed to open package %s: %w", p, err))
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		switch path.Base(f.Name) {
		case NetworkEntry:
			if network, err = readEntry(f); err != nil {
				return nil, nil, err
			}
		case ManifestEntry:
			if manifest, err = readEntry(f); err != nil {
				return nil, nil, err
			}
		}
	}

	if network == nil {
		return nil, nil, loadError(ReasonMalformed, fmt.Errorf("%w: %s", ErrMissingEntry, NetworkEntry))
	}
	if manifest == nil {
		return nil, nil, loadError(ReasonMalformed, fmt.Errorf("%w: %s", ErrMissingEntry, ManifestEntry))
	}

	return network, manifest, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxEntrySize {
		return nil, loadError(ReasonMalformed, fmt.Errorf("package entry %s is too large", f.Name))
	}

	rc, err := f.Open()
	if err != nil {
		return nil, loadError(ReasonMalformed, fmt.Errorf("failed to open package entry %s: %w", f.Name, err))
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize))
	if err != nil {
		return nil, loadError(ReasonMalformed, fmt.Errorf("failed to read package entry %s: %w", f.Name, err))
	}

	return data, nil
}
