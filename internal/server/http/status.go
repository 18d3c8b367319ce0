package http

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shirou/gopsutil/process"

	"github.com/ekisa-team/herbarium/internal/model"
)

type (
	ModelStatusDTO struct {
		LoadedAt  *time.Time   `json:"loaded_at,omitempty"`
		Status    model.Status `json:"status"`
		Backend   string       `json:"backend,omitempty"`
		Device    string       `json:"device,omitempty"`
		Producer  string       `json:"producer,omitempty"`
		Classes   int          `json:"classes"`
		ImageSize int          `json:"image_size"`
	}

	StatusResponseDTO struct {
		Model         ModelStatusDTO `json:"model"`
		Uptime        string         `json:"uptime"`
		UptimeSeconds float64        `json:"uptime_seconds"`
		RSSBytes      uint64         `json:"rss_bytes,omitempty"`
	}
)

type (
	StatusOutput struct {
		Body StatusResponseDTO
	}
)

// StatusHandler reports the served model and process health.
type StatusHandler struct {
	instance  *model.Instance
	startedAt time.Time
}

// NewStatusHandler creates a new StatusHandler instance.
func NewStatusHandler(api huma.API, instance *model.Instance) *StatusHandler {
	h := &StatusHandler{instance: instance, startedAt: time.Now()}

	huma.Register(api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Report the served model and process status",
		Tags:        []string{"status"},
	}, h.handleStatus)

	return h
}

// handleStatus handles the status operation.
func (h *StatusHandler) handleStatus(ctx context.Context, _ *struct{}) (*StatusOutput, error) {
	uptime := time.Since(h.startedAt)

	out := &StatusOutput{
		Body: StatusResponseDTO{
			Model:         ModelStatusDTO{Status: model.StatusUnloaded},
			Uptime:        uptime.Truncate(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			RSSBytes:      residentMemory(),
		},
	}

	if h.instance != nil {
		out.Body.Model.Status = h.instance.Status
		out.Body.Model.LoadedAt = h.instance.LoadedAt
		if m := h.instance.Manifest; m != nil {
			out.Body.Model.Backend = string(m.Backend)
			out.Body.Model.Device = string(m.Device)
			out.Body.Model.Producer = m.Producer
			out.Body.Model.Classes = len(m.Classes)
			out.Body.Model.ImageSize = m.ImageSize
		}
	}

	return out, nil
}

// residentMemory returns the resident set size of this process, or 0 when the
// platform does not expose it.
func residentMemory() uint64 {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}

	mem, err := p.MemoryInfo()
	if err != nil || mem == nil {
		return 0
	}

	return mem.RSS
}
