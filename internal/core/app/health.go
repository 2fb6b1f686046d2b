package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loadscript/internal/shared/observability"
)

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if p := s.app.Pipeline(); p != nil {
		status.Components["pipeline"] = "ok (" + strings.Join(p.Names(), ", ") + ")"
	} else {
		status.Status = "degraded"
		status.Components["pipeline"] = "missing"
	}

	if store := s.app.History(); store != nil {
		if err := store.Ping(); err != nil {
			status.Status = "degraded"
			status.Components["history"] = "unreachable: " + err.Error()
		} else {
			status.Components["history"] = "ok"
		}
	} else if s.app.Config.History.Enabled {
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	} else {
		status.Components["history"] = "disabled"
	}

	if s.app.activeWatcher != nil {
		status.Components["watcher"] = "ok"
	} else {
		status.Components["watcher"] = "idle"
	}

	totals := s.app.CurrentUpdate().Totals
	status.Components["documents"] = fmt.Sprintf("%d converted, %d failed", totals.Documents, totals.Failed)
	return status
}
