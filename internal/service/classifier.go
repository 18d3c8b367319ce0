// Package service turns images into labelled predictions.
package service

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/ekisa-team/herbarium/internal/labels"
	"github.com/ekisa-team/herbarium/internal/model"
)

// Predictor runs one forward pass.
type Predictor interface {
	Do(ctx context.Context, input []float32) ([]float32, error)
}

// Prediction is the outcome of one classification.
type Prediction struct {
	Code       string  `json:"code"`
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// Classifier is the read-only handle shared by all requests.
type Classifier struct {
	predictor Predictor
	manifest  *model.Manifest
	maxPixels int64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMaxPixels bounds the pixel count of decoded uploads.
func WithMaxPixels(n int64) Option {
	return func(c *Classifier) {
		c.maxPixels = n
	}
}

// NewClassifier builds the classifier for a loaded manifest.
func NewClassifier(predictor Predictor, manifest *model.Manifest, opts ...Option) (*Classifier, error) {
	if predictor == nil || manifest == nil {
		return nil, ErrNoClassifier
	}

	if err := labels.Validate(manifest.Classes); err != nil {
		return nil, fmt.Errorf("invalid classes: %w", err)
	}

	c := &Classifier{
		predictor: predictor,
		manifest:  manifest,
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Manifest returns the manifest of the served model.
func (c *Classifier) Manifest() *model.Manifest {
	return c.manifest
}

// Classify predicts the class of img and maps it to a label in lang.
func (c *Classifier) Classify(ctx context.Context, img image.Image, lang labels.Lang) (*Prediction, error) {
	input := Tensor(img, c.manifest.ImageSize, c.manifest.Mean, c.manifest.Std)

	output, err := c.predictor.Do(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}

	if len(output) != len(c.manifest.Classes) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrOutputSize, len(output), len(c.manifest.Classes))
	}

	probs := Softmax(output)
	idx := Argmax(probs)
	code := c.manifest.Classes[idx]

	label, err := labels.LookupLang(code, lang)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Image classified", "code", code, "label", label, "confidence", probs[idx])

	return &Prediction{
		Code:       code,
		Label:      label,
		Confidence: probs[idx],
	}, nil
}

// ClassifyBytes decodes data and classifies it.
func (c *Classifier) ClassifyBytes(ctx context.Context, data []byte, lang labels.Lang) (*Prediction, error) {
	img, err := DecodeImage(data, c.maxPixels)
	if err != nil {
		return nil, err
	}

	return c.Classify(ctx, img, lang)
}
