package operations

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestDataTracking(t *testing.T) {
	m := NewRunManifest("op-1", "prod_logs")

	assert.False(t, m.HasData(DataTypeDatasetFiles))

	m.AddData(DataTypeDatasetFiles, &DataInfo{
		Type:      DataTypeDatasetFiles,
		Location:  "/data/datasets",
		FileCount: 3,
		CreatedBy: StepIDIngest,
	})

	assert.True(t, m.HasData(DataTypeDatasetFiles))
	info, ok := m.GetData(DataTypeDatasetFiles)
	require.True(t, ok)
	assert.Equal(t, 3, info.FileCount)
	assert.False(t, info.CreatedAt.IsZero())
}

func TestManifestStepLifecycle(t *testing.T) {
	m := NewRunManifest("op-2", "prod_logs")

	m.RecordStepStart(StepIDIngest, StepNameIngest)
	assert.False(t, m.IsStepCompleted(StepIDIngest))

	m.RecordStepCompletion(StepIDIngest, []string{DataTypeDatasetFiles}, map[string]interface{}{"tables": 4})
	assert.True(t, m.IsStepCompleted(StepIDIngest))

	m.RecordStepStart(StepIDProfile, StepNameProfile)
	m.RecordStepFailure(StepIDProfile, errors.New("boom"))
	assert.False(t, m.IsStepCompleted(StepIDProfile))
	assert.Equal(t, "failed", m.Status)
	assert.Contains(t, m.Error, StepIDProfile)
}

func TestManifestStepRetryReusesEntry(t *testing.T) {
	m := NewRunManifest("op-3", "")

	m.RecordStepStart(StepIDIngest, StepNameIngest)
	m.RecordStepFailure(StepIDIngest, errors.New("transient"))
	m.RecordStepStart(StepIDIngest, StepNameIngest)
	m.RecordStepCompletion(StepIDIngest, nil, nil)

	require.Len(t, m.CompletedSteps, 1)
	assert.Equal(t, "completed", m.CompletedSteps[0].Status)
}

func TestManifestScanDataDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.csv"), []byte("a,b\n1,2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dns.csv"), []byte("a,b\n3,4\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	m := NewRunManifest("op-4", "")
	require.NoError(t, m.ScanDataDirectory(DataTypeDatasetFiles, dir, "*.csv"))

	info, ok := m.GetData(DataTypeDatasetFiles)
	require.True(t, ok)
	assert.Equal(t, 2, info.FileCount)
	assert.ElementsMatch(t, []string{"auth.csv", "dns.csv"}, info.Files)
	assert.Greater(t, info.TotalSize, int64(0))

	err := m.ScanDataDirectory(DataTypeDatasetFiles, filepath.Join(dir, "absent"), "*")
	assert.Error(t, err)
}

func TestManifestGetProgress(t *testing.T) {
	m := NewRunManifest("op-5", "")
	assert.Equal(t, 0, m.GetProgress())

	for _, id := range []string{StepIDIngest, StepIDProfile, StepIDReduce} {
		m.RecordStepStart(id, id)
		m.RecordStepCompletion(id, nil, nil)
	}

	// 3 of the 7 pipeline steps
	assert.Equal(t, 42, m.GetProgress())
}

func TestManifestSaveLoadRoundtrip(t *testing.T) {
	m := NewRunManifest("op-6", "prod_logs")
	m.RecordStepStart(StepIDIngest, StepNameIngest)
	m.RecordStepCompletion(StepIDIngest, []string{DataTypeDatasetFiles}, nil)
	m.AddData(DataTypeDatasetFiles, &DataInfo{Type: DataTypeDatasetFiles, FileCount: 2})

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, m.SaveToFile(path))

	loaded, err := LoadManifestFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.ID, loaded.ID)
	assert.Equal(t, "prod_logs", loaded.Dataset)
	assert.True(t, loaded.IsStepCompleted(StepIDIngest))
	assert.True(t, loaded.HasData(DataTypeDatasetFiles))

	_, err = LoadManifestFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestManifestCloneIsIndependent(t *testing.T) {
	m := NewRunManifest("op-7", "")
	m.AddData(DataTypeDatasetFiles, &DataInfo{Type: DataTypeDatasetFiles, FileCount: 1})

	clone := m.Clone()
	clone.AddData(DataTypeReportFiles, &DataInfo{Type: DataTypeReportFiles})

	assert.False(t, m.HasData(DataTypeReportFiles))
	assert.True(t, clone.HasData(DataTypeDatasetFiles))
}
