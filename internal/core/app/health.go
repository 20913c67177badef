package app

import (
	"context"
	"fmt"
	"time"

	"ratchet/internal/shared/util"

	"github.com/dustin/go-humanize"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type pinger interface {
	Ping() error
}

type HealthService struct {
	svc *Service
}

func NewHealthService(svc *Service) *HealthService {
	return &HealthService{svc: svc}
}

func (h *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  h.svc.now().UTC(),
		Components: make(map[string]string),
	}

	// Baseline must stay readable for the next pass.
	current, err := h.svc.baseline.Load(ctx)
	if err != nil {
		status.Status = "degraded"
		status.Components["baseline"] = fmt.Sprintf("unreadable: %v", err)
	} else {
		status.Components["baseline"] = fmt.Sprintf("ok (%d files, %s issues)", len(current), humanize.Comma(int64(current.Totals().Total())))
	}

	if h.svc.history != nil {
		if p, ok := h.svc.history.(pinger); ok {
			if err := p.Ping(); err != nil {
				status.Status = "degraded"
				status.Components["history"] = fmt.Sprintf("unreachable: %v", err)
			} else {
				status.Components["history"] = "ok"
			}
		} else {
			status.Components["history"] = "ok"
		}
	}

	if last, at, ok := h.svc.LastOutcome(); ok {
		status.Components["last_run"] = fmt.Sprintf("%s %s", last.Status, humanize.RelTime(at, h.svc.now(), "ago", "from now"))
	} else {
		status.Components["last_run"] = "none"
	}
	status.Components["heap"] = humanize.Bytes(util.HeapAllocBytes())

	return status
}
