package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateDatasetDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "signin.csv", "a,b\n1,2\n")
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "~$locked.xlsx", "")

	v := NewFileValidator(nil)
	count, err := v.ValidateDatasetDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestValidateDatasetDirectoryEmpty(t *testing.T) {
	v := NewFileValidator(nil)
	count, err := v.ValidateDatasetDirectory(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestValidateDatasetDirectoryMissing(t *testing.T) {
	v := NewFileValidator(nil)
	_, err := v.ValidateDatasetDirectory(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestValidateDatasetDirectoryNotADir(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "data.csv", "a\n")

	v := NewFileValidator(nil)
	_, err := v.ValidateDatasetDirectory(file)
	assert.Error(t, err)
}

func TestValidateOutputDirectoryCreates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")
	v := NewFileValidator(nil)
	require.NoError(t, v.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", "a,b\n")

	v := NewFileValidator(nil)
	assert.NoError(t, v.ValidateFile(path))
	assert.Error(t, v.ValidateFile(filepath.Join(dir, "missing.csv")))
	assert.Error(t, v.ValidateFile(dir))
}

func TestValidateDataFile(t *testing.T) {
	dir := t.TempDir()
	csv := writeFile(t, dir, "data.csv", "a\n1\n")
	txt := writeFile(t, dir, "data.txt", "x")
	locked := writeFile(t, dir, "~$data.xlsx", "")

	v := NewFileValidator(nil)
	assert.NoError(t, v.ValidateDataFile(csv))
	assert.Error(t, v.ValidateDataFile(txt))
	assert.Error(t, v.ValidateDataFile(locked))
}

func TestCountDataFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "x\n")
	writeFile(t, dir, "b.xlsx", "")
	writeFile(t, dir, "c.json", "{}")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	v := NewFileValidator(nil)
	count, err := v.CountDataFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
