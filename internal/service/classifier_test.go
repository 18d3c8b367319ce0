package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/herbarium/internal/labels"
	"github.com/ekisa-team/herbarium/internal/model"
)

// colorPredictor predicts class k for a uniform image of gray level 8*k.
type colorPredictor struct {
	classes int
	err     error
}

func (p colorPredictor) Do(_ context.Context, input []float32) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}

	idx := int(math.Round(float64(input[0]) * 255 / 8))
	out := make([]float32, p.classes)
	out[idx] = 10
	return out, nil
}

func testManifest() *model.Manifest {
	return &model.Manifest{
		Backend:       "onnxruntime",
		Device:        "cpu",
		InputName:     "input",
		OutputName:    "output",
		Classes:       labels.Codes(),
		Mean:          []float32{0, 0, 0},
		Std:           []float32{1, 1, 1},
		FormatVersion: model.FormatVersion,
		ImageSize:     16,
	}
}

func uniformImage(k int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	c := color.RGBA{R: uint8(8 * k), G: uint8(8 * k), B: uint8(8 * k), A: 255}
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// pngHeader returns a grayscale PNG that declares w x h pixels but carries no
// image data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth

	chunk := append([]byte("IHDR"), ihdr...)

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestClassifier_Classify(t *testing.T) {
	c, err := NewClassifier(colorPredictor{classes: 29}, testManifest())
	require.NoError(t, err)

	got, err := c.Classify(context.Background(), uniformImage(1), labels.English)
	require.NoError(t, err)
	assert.Equal(t, "02", got.Code)
	assert.Equal(t, "spinach", got.Label)
	assert.Greater(t, got.Confidence, float32(0.9))

	got, err = c.Classify(context.Background(), uniformImage(1), labels.Chinese)
	require.NoError(t, err)
	assert.Equal(t, "菠菜", got.Label)
}

func TestClassifier_ClassifyBytes(t *testing.T) {
	c, err := NewClassifier(colorPredictor{classes: 29}, testManifest())
	require.NoError(t, err)

	got, err := c.ClassifyBytes(context.Background(), encodePNG(t, uniformImage(28)), labels.English)
	require.NoError(t, err)
	assert.Equal(t, "29", got.Code)
	assert.Equal(t, "bamboo shoot", got.Label)

	_, err = c.ClassifyBytes(context.Background(), []byte("just some text"), labels.English)
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestClassifier_ConcurrentRequests(t *testing.T) {
	c, err := NewClassifier(colorPredictor{classes: 29}, testManifest())
	require.NoError(t, err)

	codes := labels.Codes()
	var wg sync.WaitGroup
	for k := range 29 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			got, err := c.Classify(context.Background(), uniformImage(k), labels.English)
			if assert.NoError(t, err) {
				assert.Equal(t, codes[k], got.Code)
			}
		}()
	}
	wg.Wait()
}

func TestClassifier_Errors(t *testing.T) {
	boom := errors.New("boom")

	c, err := NewClassifier(colorPredictor{classes: 29, err: boom}, testManifest())
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), uniformImage(0), labels.English)
	assert.ErrorIs(t, err, boom)

	c, err = NewClassifier(colorPredictor{classes: 3}, testManifest())
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), uniformImage(0), labels.English)
	assert.ErrorIs(t, err, ErrOutputSize)

	_, err = NewClassifier(nil, testManifest())
	assert.ErrorIs(t, err, ErrNoClassifier)

	m := testManifest()
	m.Classes = []string{"01", "77"}
	_, err = NewClassifier(colorPredictor{classes: 2}, m)
	assert.ErrorIs(t, err, labels.ErrUnknownCode)
}

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage(encodePNG(t, uniformImage(3)), 0)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())

	_, err = DecodeImage([]byte("%PDF-1.4 not an image"), 0)
	assert.ErrorIs(t, err, ErrNotAnImage)

	// A PNG signature followed by garbage sniffs as an image but cannot be decoded
	corrupt := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0xff}, 64)...)
	_, err = DecodeImage(corrupt, 0)
	assert.ErrorIs(t, err, ErrUndecodable)

	mt, err := DetectImage(encodePNG(t, uniformImage(0)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)
}

func TestTensor(t *testing.T) {
	data := Tensor(uniformImage(10), 4, []float32{0.5, 0.5, 0.5}, []float32{0.25, 0.25, 0.25})
	require.Len(t, data, 3*4*4)

	want := (float32(80)/255 - 0.5) / 0.25
	for _, v := range data {
		assert.InDelta(t, want, v, 1e-3)
	}
}

func TestSoftmaxArgmax(t *testing.T) {
	probs := Softmax([]float32{1, 3, 2})

	var sum float32
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-6)
	assert.Equal(t, 1, Argmax(probs))
	assert.Equal(t, 0, Argmax([]float32{5, 5}))
	assert.Nil(t, Softmax(nil))
}

func TestDecodeImage_PixelLimit(t *testing.T) {
	tests := []struct {
		description string
		data        []byte
		maxPixels   int64
	}{
		{"Should refuse a header declaring 16000x16000 with the default limit", pngHeader(16000, 16000), 0},
		{"Should refuse a header declaring 100000x100000", pngHeader(100000, 100000), 0},
		{"Should refuse a real image over a custom limit", encodePNG(t, uniformImage(1)), 40*30 - 1},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			img, err := DecodeImage(tt.data, tt.maxPixels)
			assert.Nil(t, img)
			assert.ErrorIs(t, err, ErrUndecodable)
			assert.Contains(t, err.Error(), "exceeds")
		})
	}

	img, err := DecodeImage(encodePNG(t, uniformImage(1)), 40*30)
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestClassifier_MaxPixels(t *testing.T) {
	c, err := NewClassifier(colorPredictor{classes: 29}, testManifest(), WithMaxPixels(100))
	require.NoError(t, err)

	_, err = c.ClassifyBytes(context.Background(), encodePNG(t, uniformImage(1)), labels.English)
	assert.ErrorIs(t, err, ErrUndecodable)

	_, err = c.ClassifyBytes(context.Background(), pngHeader(16000, 16000), labels.English)
	assert.ErrorIs(t, err, ErrUndecodable)
}
