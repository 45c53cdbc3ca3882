package tables

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/pkg/contracts/domain"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "signin.csv",
		"TimeGenerated,ClientIP,Account\n"+
			"2025-01-01T10:00:00Z,10.0.0.1,alice\n"+
			"2025-01-01T11:00:00Z,10.0.0.2,bob\n"+
			"2025-01-01T12:00:00Z,,carol\n")

	table, err := LoadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, "signin", table.Name)
	assert.Equal(t, 3, table.RowCount)
	assert.Equal(t, 3, table.ColumnCount)
	assert.Equal(t, []string{"TimeGenerated", "ClientIP", "Account"}, table.ColumnNames())

	ip := table.Columns[1]
	assert.Equal(t, 1, ip.BlankCount)
	assert.Equal(t, 2, ip.DistinctCount)
}

func TestLoadCSVPadsShortRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "ragged.csv",
		"A,B,C\n1,2,3\n4,5\n6\n")

	table, err := LoadCSV(path)
	require.NoError(t, err)

	require.Equal(t, 3, table.RowCount)
	for _, row := range table.Rows {
		assert.Len(t, row, 3)
	}
	assert.Equal(t, "", table.Rows[1][2])
	assert.Equal(t, "", table.Rows[2][1])
}

func TestLoadCSVStripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bom.csv", "\xEF\xBB\xBFName,Value\na,1\n")

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "Name", table.Columns[0].Name)
}

func TestLoadCSVEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "empty.csv", "")

	_, err := LoadCSV(path)
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "one.csv", "A\n1\n")
	writeCSV(t, dir, "two.csv", "B\n2\n")
	writeCSV(t, dir, "notes.txt", "not a table")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	loaded, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestLoadDirNoTables(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.Error(t, err)
}

func TestIsBlank(t *testing.T) {
	blanks := []string{"", "  ", "\t", "NaN", "nan", "null", "NULL", "None", "-"}
	for _, v := range blanks {
		assert.True(t, IsBlank(v), "expected %q to be blank", v)
	}

	filled := []string{"0", "false", "10.0.0.1", "a-b", "--"}
	for _, v := range filled {
		assert.False(t, IsBlank(v), "expected %q to be populated", v)
	}
}

func TestInferKind(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   domain.ColumnKind
	}{
		{"numeric", []string{"1", "2.5", "-3", ""}, domain.ColumnKindNumeric},
		{"bool", []string{"true", "FALSE", "True"}, domain.ColumnKindBool},
		{"time", []string{"2025-01-01T10:00:00Z", "2025-01-02 11:00:00"}, domain.ColumnKindTime},
		{"text", []string{"alice", "10.0.0.1", "3"}, domain.ColumnKindText},
		{"empty", []string{"", "NaN", "  "}, domain.ColumnKindEmpty},
		{"mixed numeric and text", []string{"1", "x"}, domain.ColumnKindText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, inferKind(tc.values))
		})
	}
}

func TestSampleDeterministic(t *testing.T) {
	rows := make([][]string, 500)
	for i := range rows {
		rows[i] = []string{string(rune('a' + i%26))}
	}
	table := buildTable("big", "", []string{"Letter"}, rows)

	first := Sample(table, 100, 42)
	second := Sample(table, 100, 42)
	require.Equal(t, 100, first.RowCount)
	assert.Equal(t, first.Rows, second.Rows)

	other := Sample(table, 100, 7)
	assert.NotEqual(t, first.Rows, other.Rows)
}

func TestSampleSmallTableUnchanged(t *testing.T) {
	table := buildTable("small", "", []string{"A"}, [][]string{{"1"}, {"2"}})
	sampled := Sample(table, 100, 42)
	assert.Equal(t, table, sampled)
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "data.csv", "A\n1\n")

	fp1, err := Fingerprint(path)
	require.NoError(t, err)
	require.Len(t, fp1, 64)

	fp2, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	other := writeCSV(t, dir, "other.csv", "A\n2\n")
	fp3, err := Fingerprint(other)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}

func TestLoadCSVSetsFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "data.csv", "A\n1\n")

	table, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, table.Fingerprint, 64)

	want, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, want, table.Fingerprint)

	other, err := LoadCSV(writeCSV(t, dir, "other.csv", "A\n2\n"))
	require.NoError(t, err)
	assert.NotEqual(t, table.Fingerprint, other.Fingerprint)
}
