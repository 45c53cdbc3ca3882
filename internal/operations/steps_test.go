package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/internal/config"
	"loglens/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stepTestPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	paths := &config.Paths{
		ExecutableDir:   base,
		DataDir:         filepath.Join(base, "data"),
		DatasetsDir:     filepath.Join(base, "data", "datasets"),
		ReportsDir:      filepath.Join(base, "data", "reports"),
		CacheDir:        filepath.Join(base, "data", "cache"),
		LogsDir:         filepath.Join(base, "logs"),
		DefinitionsFile: filepath.Join(base, "data", "definitions.json"),
	}
	require.NoError(t, os.MkdirAll(paths.DatasetsDir, 0755))
	require.NoError(t, os.MkdirAll(paths.ReportsDir, 0755))
	return paths
}

// writeAuthDataset writes a small auth-log CSV: hourly timestamps spanning
// two days, source IPs, numeric byte counts with one extreme outlier, and
// an invariant tenant column the reducer should drop.
func writeAuthDataset(t *testing.T, dir string) {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("event_time,src_ip,bytes,tenant\n")
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		bytes := 400 + (i%7)*25
		if i == 45 {
			bytes = 90000
		}
		fmt.Fprintf(&sb, "%s,10.0.0.%d,%d,acme\n", ts.Format(time.RFC3339), i%20+1, bytes)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.csv"), []byte(sb.String()), 0644))
}

func pipelineState(t *testing.T, paths *config.Paths) *OperationState {
	t.Helper()
	state := NewOperationState("op-steps")
	for _, id := range PipelineStepIDs() {
		state.SetStep(id, NewStepState(id, id))
	}
	_ = paths
	return state
}

func TestIngestStepLoadsTables(t *testing.T) {
	paths := stepTestPaths(t)
	writeAuthDataset(t, paths.DatasetsDir)

	step := NewIngestStep(paths, testLogger(), nil)
	state := pipelineState(t, paths)

	require.NoError(t, step.Validate(state))
	require.NoError(t, step.Execute(context.Background(), state))

	loaded, ok := contextValue[[]*domain.Table](state, ContextKeyTables)
	require.True(t, ok)
	require.Len(t, loaded, 1)
	assert.Equal(t, "auth", loaded[0].Name)
	assert.Equal(t, 60, loaded[0].RowCount)
	assert.Equal(t, 60, state.GetStep(StepIDIngest).Metadata["rows"])
}

func TestIngestStepValidateRejectsMissingDir(t *testing.T) {
	paths := stepTestPaths(t)
	require.NoError(t, os.RemoveAll(paths.DatasetsDir))

	step := NewIngestStep(paths, testLogger(), nil)
	assert.Error(t, step.Validate(pipelineState(t, paths)))
}

func TestIngestStepCanRunNeedsDatasetFiles(t *testing.T) {
	paths := stepTestPaths(t)
	step := NewIngestStep(paths, testLogger(), nil)

	manifest := NewRunManifest("op-canrun", "")
	assert.False(t, step.CanRun(manifest))

	manifest.AddData(DataTypeDatasetFiles, &DataInfo{Type: DataTypeDatasetFiles, FileCount: 1})
	assert.True(t, step.CanRun(manifest))
}

func TestProfileStepIngestsLazily(t *testing.T) {
	paths := stepTestPaths(t)
	writeAuthDataset(t, paths.DatasetsDir)

	step := NewProfileStep(paths, testLogger(), nil)
	state := pipelineState(t, paths)

	// No prior ingest step ran; profile loads the dataset itself
	require.NoError(t, step.Execute(context.Background(), state))

	profiles, ok := contextValue[[]domain.TableProfile](state, ContextKeyProfiles)
	require.True(t, ok)
	require.Len(t, profiles, 1)
	assert.Equal(t, "auth", profiles[0].Table)
	assert.Equal(t, 60, profiles[0].RowCount)
}

func TestReduceStepDropsInvariantColumn(t *testing.T) {
	paths := stepTestPaths(t)
	writeAuthDataset(t, paths.DatasetsDir)

	step := NewReduceStep(paths, testLogger(), nil)
	state := pipelineState(t, paths)

	require.NoError(t, step.Execute(context.Background(), state))

	reduced, ok := contextValue[[]*domain.Table](state, ContextKeyReduced)
	require.True(t, ok)
	require.Len(t, reduced, 1)
	assert.Less(t, reduced[0].ColumnCount, 4)
	assert.NotContains(t, reduced[0].ColumnNames(), "tenant")

	reports, ok := contextValue[[]*domain.ReductionReport](state, ContextKeyReductions)
	require.True(t, ok)
	require.Len(t, reports, 1)
	assert.NotEmpty(t, reports[0].Dropped)
}

func TestIdentifyStepFindsIPColumn(t *testing.T) {
	paths := stepTestPaths(t)
	writeAuthDataset(t, paths.DatasetsDir)

	step := NewIdentifyStep(paths, testLogger(), nil)
	state := pipelineState(t, paths)

	require.NoError(t, step.Execute(context.Background(), state))

	assignments, ok := contextValue[[]domain.EntityAssignment](state, ContextKeyAssignments)
	require.True(t, ok)

	var ipAssignment *domain.EntityAssignment
	for i := range assignments {
		if assignments[i].Column == "src_ip" {
			ipAssignment = &assignments[i]
		}
	}
	require.NotNil(t, ipAssignment, "src_ip column should match a definition")
	assert.Equal(t, "IPV4", ipAssignment.Definition)
	assert.Equal(t, domain.EntityIPAddress, ipAssignment.Entity)

	entityMap, ok := contextValue[*domain.EntityMap](state, ContextKeyEntityMap)
	require.True(t, ok)
	assert.NotEmpty(t, entityMap.Entities[domain.EntityIPAddress])
}

func TestSignatureStepComputesSets(t *testing.T) {
	paths := stepTestPaths(t)
	writeAuthDataset(t, paths.DatasetsDir)

	step := NewSignatureStep(paths, testLogger(), nil)
	state := pipelineState(t, paths)

	require.NoError(t, step.Execute(context.Background(), state))

	sets, ok := contextValue[[]*domain.SignatureSet](state, ContextKeySignatures)
	require.True(t, ok)
	require.Len(t, sets, 1)
	assert.Equal(t, "auth", sets[0].Table)
	assert.Equal(t, 60, sets[0].RowCount)
	assert.NotEmpty(t, sets[0].Summaries)
}

func TestAnomalyStepScoresTables(t *testing.T) {
	paths := stepTestPaths(t)
	writeAuthDataset(t, paths.DatasetsDir)

	step := NewAnomalyStep(paths, testLogger(), nil)
	state := pipelineState(t, paths)

	require.NoError(t, step.Execute(context.Background(), state))

	forests, ok := contextValue[[]*domain.ForestResult](state, ContextKeyForest)
	require.True(t, ok)
	require.Len(t, forests, 1)
	assert.Equal(t, "auth", forests[0].Table)
	assert.Len(t, forests[0].Scores, 60)
	assert.Greater(t, forests[0].AnomalyCount, 0)

	// event_time is detected as the series column automatically
	series, ok := contextValue[map[string]*domain.SeriesDecomposition](state, ContextKeySeries)
	require.True(t, ok)
	assert.Contains(t, series, "auth")
}

func TestReportStepWritesArtifacts(t *testing.T) {
	paths := stepTestPaths(t)
	writeAuthDataset(t, paths.DatasetsDir)
	state := pipelineState(t, paths)
	logger := testLogger()

	ctx := context.Background()
	require.NoError(t, NewIngestStep(paths, logger, nil).Execute(ctx, state))
	require.NoError(t, NewProfileStep(paths, logger, nil).Execute(ctx, state))
	require.NoError(t, NewReduceStep(paths, logger, nil).Execute(ctx, state))
	require.NoError(t, NewIdentifyStep(paths, logger, nil).Execute(ctx, state))
	require.NoError(t, NewSignatureStep(paths, logger, nil).Execute(ctx, state))
	require.NoError(t, NewAnomalyStep(paths, logger, nil).Execute(ctx, state))
	require.NoError(t, NewReportStep(paths, logger, nil).Execute(ctx, state))

	written, ok := contextValue[[]string](state, ContextKeyReports)
	require.True(t, ok)
	assert.NotEmpty(t, written)

	entries, err := os.ReadDir(paths.ReportsDir)
	require.NoError(t, err)

	var names []string
	workbooks := 0
	for _, entry := range entries {
		names = append(names, entry.Name())
		if strings.HasSuffix(entry.Name(), ".xlsx") {
			workbooks++
		}
	}
	assert.Equal(t, len(written), len(names))
	assert.Equal(t, 1, workbooks)

	joined := strings.Join(names, " ")
	assert.Contains(t, joined, "loglens_profiles_")
	assert.Contains(t, joined, "loglens_signatures_")
	assert.Contains(t, joined, "loglens_anomalies_")
	assert.Contains(t, joined, "loglens_entity_map_")
}

func TestFullPipelineThroughManager(t *testing.T) {
	paths := stepTestPaths(t)
	writeAuthDataset(t, paths.DatasetsDir)

	m := newTestManager(t, nil)
	require.NoError(t, RegisterPipeline(m, paths, testLogger(), nil))

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "op-pipeline"})
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, resp.Status)
	require.Len(t, resp.Steps, 7)
	for id, step := range resp.Steps {
		assert.Equal(t, StepStatusCompleted, step.Status, "step %s", id)
	}

	entries, err := os.ReadDir(paths.ReportsDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestConfigHelpersCoerceJSONTypes(t *testing.T) {
	state := NewOperationState("op-cfg")
	state.SetConfig("name", "auth")
	state.SetConfig("count", float64(7)) // JSON numbers decode as float64
	state.SetConfig("ratio", 0.25)
	state.SetConfig("flag", true)
	state.SetConfig("list", []interface{}{"a", "b", 3})

	assert.Equal(t, "auth", configString(state, "name", "fallback"))
	assert.Equal(t, "fallback", configString(state, "absent", "fallback"))
	assert.Equal(t, 7, configInt(state, "count", 0))
	assert.Equal(t, 9, configInt(state, "absent", 9))
	assert.Equal(t, 0.25, configFloat(state, "ratio", 0))
	assert.True(t, configBool(state, "flag", false))
	assert.Equal(t, []string{"a", "b"}, configStringSlice(state, "list"))
	assert.Nil(t, configStringSlice(state, "absent"))
}
