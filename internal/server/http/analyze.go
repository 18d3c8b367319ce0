package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/herbarium/internal/labels"
	"github.com/ekisa-team/herbarium/internal/metrics"
	"github.com/ekisa-team/herbarium/internal/service"
)

// FileField is the multipart field holding the uploaded image.
const FileField = "file"

// Classifier predicts the label of an encoded image.
type Classifier interface {
	ClassifyBytes(ctx context.Context, data []byte, lang labels.Lang) (*service.Prediction, error)
}

type (
	AnalyzeResponseDTO struct {
		Result string `json:"result" doc:"Display label of the predicted class" example:"spinach"`
	}
)

type (
	AnalyzeInput struct {
		Lang    string `query:"lang" doc:"Language of the returned label (en, zh). Unknown values fall back to en." example:"en"`
		RawBody multipart.Form
	}

	AnalyzeOutput struct {
		Body AnalyzeResponseDTO
	}
)

// AnalyzeHandler handles image uploads.
type AnalyzeHandler struct {
	classifier   Classifier
	metrics      *metrics.Metrics
	maxBodyBytes int64
}

// NewAnalyzeHandler creates a new AnalyzeHandler instance.
func NewAnalyzeHandler(api huma.API, classifier Classifier, m *metrics.Metrics, maxBodyBytes int64) *AnalyzeHandler {
	h := &AnalyzeHandler{classifier: classifier, metrics: m, maxBodyBytes: maxBodyBytes}

	huma.Register(api, huma.Operation{
		OperationID:   "analyze",
		Method:        http.MethodPost,
		Path:          "/analyze",
		Summary:       "Classify an uploaded image",
		Tags:          []string{"analyze"},
		DefaultStatus: http.StatusOK,
		MaxBodyBytes:  maxBodyBytes,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusRequestEntityTooLarge,
			http.StatusUnsupportedMediaType,
			http.StatusInternalServerError,
		},
	}, h.handleAnalyze)

	return h
}

// handleAnalyze handles the analyze operation.
func (h *AnalyzeHandler) handleAnalyze(ctx context.Context, input *AnalyzeInput) (*AnalyzeOutput, error) {
	files := input.RawBody.File[FileField]
	if len(files) == 0 {
		return nil, huma.Error400BadRequest(`missing form field "file"`)
	}

	if h.maxBodyBytes > 0 && files[0].Size > h.maxBodyBytes {
		return nil, huma.Error413RequestEntityTooLarge(fmt.Sprintf("uploaded file exceeds %d bytes", h.maxBodyBytes))
	}

	data, err := readFile(files[0])
	if err != nil {
		return nil, huma.Error400BadRequest("failed to read uploaded file", err)
	}

	prediction, err := h.classifier.ClassifyBytes(ctx, data, labels.Lang(input.Lang))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAnImage):
			return nil, huma.Error415UnsupportedMediaType("uploaded file is not an image", err)
		case errors.Is(err, service.ErrUndecodable):
			return nil, huma.Error400BadRequest("uploaded image could not be decoded", err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, huma.Error503ServiceUnavailable("request canceled before prediction completed", err)
		}

		slog.ErrorContext(ctx, "Failed to classify image", "request_id", RequestID(ctx), "error", err)
		return nil, huma.Error500InternalServerError("failed to classify image")
	}

	if h.metrics != nil {
		h.metrics.ObservePrediction(prediction.Code)
	}

	slog.InfoContext(ctx, "Image analyzed",
		"request_id", RequestID(ctx),
		"filename", files[0].Filename,
		"size", files[0].Size,
		"code", prediction.Code,
		"confidence", prediction.Confidence,
	)

	return &AnalyzeOutput{
		Body: AnalyzeResponseDTO{Result: prediction.Label},
	}, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return io.ReadAll(f)
}
