package service

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
)

// DetectImage sniffs data and returns its MIME type, or ErrNotAnImage when the
// content is not an image whatever the client claimed.
func DetectImage(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return mt.String(), fmt.Errorf("%w: detected %s", ErrNotAnImage, mt.String())
	}

	return mt.String(), nil
}

// DefaultMaxPixels bounds the decoded size of an upload when no limit is set.
const DefaultMaxPixels int64 = 50_000_000

// DecodeImage sniffs and decodes an uploaded image. The header is read first so
// images declaring more than maxPixels pixels are refused before any pixel
// buffer is allocated. A non-positive maxPixels means DefaultMaxPixels.
func DecodeImage(data []byte, maxPixels int64) (image.Image, error) {
	if _, err := DetectImage(data); err != nil {
		return nil, err
	}

	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUndecodable, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}

	return img, nil
}
