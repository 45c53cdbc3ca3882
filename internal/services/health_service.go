package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"loglens/internal/config"
	"loglens/internal/entity"
	"loglens/pkg/contracts"
)

// HealthStatus is the full health report served by the API
type HealthStatus struct {
	Status    string                   `json:"status"` // healthy|degraded|unhealthy
	Timestamp time.Time                `json:"timestamp"`
	Version   contracts.VersionInfo    `json:"version"`
	Runtime   SystemStats              `json:"runtime"`
	Checks    map[string]ServiceHealth `json:"checks"`
}

// ServiceHealth is the state of one dependency check
type ServiceHealth struct {
	Status  string `json:"status"` // ok|failed
	Message string `json:"message,omitempty"`
}

// SystemStats carries process-level runtime figures
type SystemStats struct {
	UptimeSeconds    int64  `json:"uptime_seconds"`
	Goroutines       int    `json:"goroutines"`
	WebSocketClients int    `json:"websocket_clients"`
	ActiveOperations int    `json:"active_operations"`
	GoVersion        string `json:"go_version"`
	OS               string `json:"os"`
	Arch             string `json:"arch"`
}

// ClientCounter reports connected WebSocket clients
type ClientCounter interface {
	ClientCount() int
}

// OperationCounter reports running analysis operations
type OperationCounter interface {
	GetAnalysisMetrics(ctx context.Context) map[string]interface{}
}

// HealthService aggregates readiness checks over the service's
// filesystem and its sibling services
type HealthService struct {
	paths      *config.Paths
	logger     *slog.Logger
	clients    ClientCounter
	operations OperationCounter
	startTime  time.Time
}

// NewHealthService creates a health service. The counters may be nil
// when the corresponding subsystem is not running.
func NewHealthService(paths *config.Paths, clients ClientCounter, operations OperationCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		paths:      paths,
		logger:     logger,
		clients:    clients,
		operations: operations,
		startTime:  time.Now(),
	}
}

// GetHealth runs every dependency check and reports the combined status
func (hs *HealthService) GetHealth(ctx context.Context) *HealthStatus {
	checks := map[string]ServiceHealth{
		"datasets_dir": hs.checkWritable(hs.paths.DatasetsDir),
		"reports_dir":  hs.checkWritable(hs.paths.ReportsDir),
		"definitions":  hs.checkDefinitions(),
	}

	status := "healthy"
	for _, check := range checks {
		if check.Status != "ok" {
			status = "degraded"
			break
		}
	}

	return &HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Version:   contracts.GetVersionInfo(),
		Runtime:   hs.systemStats(ctx),
		Checks:    checks,
	}
}

// IsReady reports whether the service can accept analysis requests
func (hs *HealthService) IsReady(ctx context.Context) bool {
	health := hs.GetHealth(ctx)
	return health.Status == "healthy"
}

// Uptime returns how long the service has been running
func (hs *HealthService) Uptime() time.Duration {
	return time.Since(hs.startTime)
}

// checkWritable verifies a directory exists and accepts writes
func (hs *HealthService) checkWritable(dir string) ServiceHealth {
	info, err := os.Stat(dir)
	if err != nil {
		return ServiceHealth{Status: "failed", Message: fmt.Sprintf("stat %s: %v", dir, err)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: "failed", Message: fmt.Sprintf("%s is not a directory", dir)}
	}

	probe := filepath.Join(dir, ".health_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return ServiceHealth{Status: "failed", Message: fmt.Sprintf("write probe: %v", err)}
	}
	_ = os.Remove(probe)
	return ServiceHealth{Status: "ok"}
}

// checkDefinitions verifies the entity definition store loads cleanly
func (hs *HealthService) checkDefinitions() ServiceHealth {
	registry := entity.NewRegistry()
	if err := registry.LoadJSON(hs.paths.GetDefinitionsPath()); err != nil {
		return ServiceHealth{Status: "failed", Message: err.Error()}
	}
	return ServiceHealth{
		Status:  "ok",
		Message: fmt.Sprintf("%d definitions loaded", registry.Len()),
	}
}

func (hs *HealthService) systemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds: int64(time.Since(hs.startTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	if hs.clients != nil {
		stats.WebSocketClients = hs.clients.ClientCount()
	}
	if hs.operations != nil {
		metrics := hs.operations.GetAnalysisMetrics(ctx)
		if active, ok := metrics["active_operations"].(int); ok {
			stats.ActiveOperations = active
		}
	}
	return stats
}
