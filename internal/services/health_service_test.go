package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/pkg/contracts"
)

type fixedClientCounter int

func (f fixedClientCounter) ClientCount() int { return int(f) }

type fixedOperationCounter int

func (f fixedOperationCounter) GetAnalysisMetrics(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{"active_operations": int(f)}
}

func TestGetHealthHealthy(t *testing.T) {
	paths := servicePaths(t)
	hs := NewHealthService(paths, nil, nil, serviceLogger())

	health := hs.GetHealth(context.Background())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, contracts.Version, health.Version.Version)
	assert.False(t, health.Timestamp.IsZero())

	for name, check := range health.Checks {
		assert.Equal(t, "ok", check.Status, "check %s", name)
	}
	assert.True(t, hs.IsReady(context.Background()))
}

func TestGetHealthDegradedOnMissingDir(t *testing.T) {
	paths := servicePaths(t)
	require.NoError(t, os.RemoveAll(paths.ReportsDir))

	hs := NewHealthService(paths, nil, nil, serviceLogger())
	health := hs.GetHealth(context.Background())

	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "failed", health.Checks["reports_dir"].Status)
	assert.False(t, hs.IsReady(context.Background()))
}

func TestGetHealthDegradedOnCorruptDefinitions(t *testing.T) {
	paths := servicePaths(t)
	require.NoError(t, os.WriteFile(paths.DefinitionsFile, []byte("{not json"), 0644))

	hs := NewHealthService(paths, nil, nil, serviceLogger())
	health := hs.GetHealth(context.Background())

	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "failed", health.Checks["definitions"].Status)
}

func TestHealthRuntimeStats(t *testing.T) {
	paths := servicePaths(t)
	hs := NewHealthService(paths, fixedClientCounter(3), fixedOperationCounter(2), serviceLogger())

	health := hs.GetHealth(context.Background())
	assert.Equal(t, 3, health.Runtime.WebSocketClients)
	assert.Equal(t, 2, health.Runtime.ActiveOperations)
	assert.Positive(t, health.Runtime.Goroutines)
	assert.NotEmpty(t, health.Runtime.GoVersion)
	assert.GreaterOrEqual(t, hs.Uptime().Nanoseconds(), int64(0))
}
