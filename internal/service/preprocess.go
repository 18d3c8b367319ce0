package service

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

// Tensor converts img into a 1x3xNxN float32 tensor, resized to size and
// normalised per channel.
func Tensor(img image.Image, size int, mean, std []float32) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)
	bounds := resized.Bounds()

	plane := size * size
	data := make([]float32, 3*plane)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := y*size + x

			data[i] = (float32(r)/65535 - mean[0]) / std[0]
			data[plane+i] = (float32(g)/65535 - mean[1]) / std[1]
			data[2*plane+i] = (float32(b)/65535 - mean[2]) / std[2]
		}
	}

	return data
}

// Softmax returns the normalized exponentials of logits.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}

	maxVal := logits[0]
	for _, v := range logits[1:] {
		maxVal = max(maxVal, v)
	}

	var sum float64
	probs := make([]float32, len(logits))
	for i, v := range logits {
		e := math.Exp(float64(v - maxVal))
		probs[i] = float32(e)
		sum += e
	}

	for i := range probs {
		probs[i] = float32(float64(probs[i]) / sum)
	}

	return probs
}

// Argmax returns the index of the largest value, the first one on ties.
func Argmax(values []float32) int {
	idx := 0
	for i, v := range values {
		if v > values[idx] {
			idx = i
		}
	}

	return idx
}
