package app

import (
	"context"
	"fmt"
	"os"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// HealthService reports whether watch mode can still serve sorts.
type HealthService struct {
	resolver *Resolver
	root     string
}

func NewHealthService(resolver *Resolver, root string) *HealthService {
	return &HealthService{resolver: resolver, root: root}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if err := ctx.Err(); err != nil {
		status.Status = "down"
		status.Components["context"] = err.Error()
		return status
	}

	// Check Config
	if s.resolver == nil || s.resolver.Config() == nil {
		status.Status = "degraded"
		status.Components["config"] = "missing"
	} else {
		cfg := s.resolver.Config()
		status.Components["config"] = fmt.Sprintf("ok (version %d, auto_sort=%t)", cfg.Version, cfg.Resolver.AutoSortEnabled())
	}

	// Check Workspace
	info, err := os.Stat(s.root)
	switch {
	case err != nil:
		status.Status = "degraded"
		status.Components["workspace"] = fmt.Sprintf("unavailable: %v", err)
	case !info.IsDir():
		status.Status = "degraded"
		status.Components["workspace"] = "not a directory"
	default:
		status.Components["workspace"] = fmt.Sprintf("ok (%s)", s.root)
	}

	return status
}
