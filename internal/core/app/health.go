package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app.translator == nil {
		status.Status = "degraded"
		status.Components["translator"] = "missing"
	} else {
		status.Components["translator"] = "ok"
	}

	if s.app.cache != nil {
		status.Components["cache"] = "ok"
	} else if s.app.Config.Cache.Enabled {
		status.Status = "degraded"
		status.Components["cache"] = "missing but enabled in config"
	} else {
		status.Components["cache"] = "disabled"
	}

	last := s.app.CurrentUpdate()
	if len(last.Results) > 0 {
		status.Components["last_build"] = fmt.Sprintf("%d files, %d failed", len(last.Results), last.Failed())
		if last.Failed() > 0 {
			status.Status = "degraded"
		}
	}
	return status
}
