package app

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/internal/config"
)

func testApplication(t *testing.T) *Application {
	t.Helper()
	cfg := config.Default()
	return &Application{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestApplyPathOverrides(t *testing.T) {
	paths := &config.Paths{
		DataDir:         "/app/data",
		DatasetsDir:     "/app/data/datasets",
		ReportsDir:      "/app/data/reports",
		DefinitionsFile: "/app/data/definitions.json",
	}

	cfg := config.Default()
	cfg.Paths.DatasetsDir = "/srv/captures"
	cfg.Paths.DefinitionsFile = "/etc/loglens/definitions.json"

	applyPathOverrides(paths, cfg)

	assert.Equal(t, "/srv/captures", paths.DatasetsDir)
	assert.Equal(t, "/etc/loglens/definitions.json", paths.DefinitionsFile)
	// Unset overrides leave the resolved defaults alone
	assert.Equal(t, "/app/data", paths.DataDir)
	assert.Equal(t, "/app/data/reports", paths.ReportsDir)
}

func TestGetCORSConfigProduction(t *testing.T) {
	t.Setenv("GO_ENV", "")
	t.Setenv("LOGLENS_ENV", "")

	app := testApplication(t)
	cors := app.getCORSConfig()

	expected := fmt.Sprintf("http://localhost:%d", app.Config.Server.Port)
	assert.Contains(t, cors.AllowedOrigins, expected)
	assert.NotContains(t, cors.AllowedOrigins, "http://localhost:3000")
	assert.True(t, cors.AllowCredentials)
	assert.Contains(t, cors.AllowedHeaders, "X-Request-ID")
}

func TestGetCORSConfigDevelopment(t *testing.T) {
	t.Setenv("LOGLENS_ENV", "development")

	app := testApplication(t)
	cors := app.getCORSConfig()

	assert.Contains(t, cors.AllowedOrigins, "http://localhost:3000")
}

func TestIsDevelopmentMode(t *testing.T) {
	t.Setenv("GO_ENV", "")
	t.Setenv("LOGLENS_ENV", "")

	app := testApplication(t)
	assert.False(t, app.isDevelopmentMode())

	t.Setenv("GO_ENV", "development")
	assert.True(t, app.isDevelopmentMode())
}

func TestCreateServer(t *testing.T) {
	app := testApplication(t)
	app.createServer()

	require.NotNil(t, app.Server)
	assert.Equal(t, app.Config.Address(), app.Server.Addr)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Config.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, app.Config.Server.IdleTimeout, app.Server.IdleTimeout)
}
