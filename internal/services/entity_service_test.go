package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/pkg/contracts/domain"
)

func TestNewEntityServiceLoadsDefaults(t *testing.T) {
	paths := servicePaths(t)

	es, err := NewEntityService(paths, serviceLogger())
	require.NoError(t, err)

	defs := es.ListDefinitions(context.Background())
	assert.NotEmpty(t, defs)

	_, err = es.GetDefinition(context.Background(), "IPV4")
	assert.NoError(t, err)

	_, err = es.GetDefinition(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrDefinitionNotFound)
}

func TestAddDefinitionPersistsAcrossRestarts(t *testing.T) {
	paths := servicePaths(t)

	es, err := NewEntityService(paths, serviceLogger())
	require.NoError(t, err)

	def := domain.EntityDefinition{
		Name:     "TICKET",
		Regex:    `^TCK-\d{6}$`,
		Priority: domain.PriorityStrong,
		Entity:   domain.EntityNone,
	}
	require.NoError(t, es.AddDefinition(context.Background(), def))

	// A fresh service over the same paths reads the persisted store
	reloaded, err := NewEntityService(paths, serviceLogger())
	require.NoError(t, err)
	got, err := reloaded.GetDefinition(context.Background(), "TICKET")
	require.NoError(t, err)
	assert.Equal(t, def.Regex, got.Regex)
}

func TestAddDefinitionRejectsBadRegex(t *testing.T) {
	paths := servicePaths(t)
	es, err := NewEntityService(paths, serviceLogger())
	require.NoError(t, err)

	err = es.AddDefinition(context.Background(), domain.EntityDefinition{
		Name:     "BROKEN",
		Regex:    "([",
		Priority: domain.PriorityStrong,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRemoveDefinition(t *testing.T) {
	paths := servicePaths(t)
	es, err := NewEntityService(paths, serviceLogger())
	require.NoError(t, err)

	require.NoError(t, es.RemoveDefinition(context.Background(), "IPV4"))
	_, err = es.GetDefinition(context.Background(), "IPV4")
	assert.ErrorIs(t, err, ErrDefinitionNotFound)

	err = es.RemoveDefinition(context.Background(), "IPV4")
	assert.ErrorIs(t, err, ErrDefinitionNotFound)
}

func TestScanTableFindsIPColumn(t *testing.T) {
	paths := servicePaths(t)
	prodDir := filepath.Join(paths.DatasetsDir, "prod")
	require.NoError(t, os.MkdirAll(prodDir, 0755))
	writeTableCSV(t, filepath.Join(prodDir, "auth.csv"))

	es, err := NewEntityService(paths, serviceLogger())
	require.NoError(t, err)

	result, err := es.ScanTable(context.Background(), ScanRequest{
		Dataset: "prod",
		Table:   "auth",
	})
	require.NoError(t, err)

	assert.Equal(t, "auth", result.Table)
	assert.NotEmpty(t, result.Matches)

	var ipAssigned bool
	for _, a := range result.Assignments {
		if a.Column == "src_ip" && a.Entity == domain.EntityIPAddress {
			ipAssigned = true
		}
	}
	assert.True(t, ipAssigned, "src_ip should map to the IP address entity")
	assert.NotEmpty(t, result.EntityMap.Entities[domain.EntityIPAddress])
}

func TestScanTableMissingDataset(t *testing.T) {
	paths := servicePaths(t)
	es, err := NewEntityService(paths, serviceLogger())
	require.NoError(t, err)

	_, err = es.ScanTable(context.Background(), ScanRequest{Dataset: "missing", Table: "auth"})
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestLatestEntityMapPicksNewest(t *testing.T) {
	paths := servicePaths(t)
	es, err := NewEntityService(paths, serviceLogger())
	require.NoError(t, err)

	older := `{"entities":{"ipaddress":[{"table":"auth","column":"src_ip"}]}}`
	newer := `{"entities":{"account":[{"table":"auth","column":"user"}]}}`
	require.NoError(t, os.WriteFile(filepath.Join(paths.ReportsDir, "loglens_entity_map_20260301.json"), []byte(older), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(paths.ReportsDir, "loglens_entity_map_20260310.json"), []byte(newer), 0644))

	entityMap, err := es.LatestEntityMap(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, entityMap.Entities[domain.EntityAccount])
	assert.Empty(t, entityMap.Entities[domain.EntityIPAddress])
}

func TestLatestEntityMapMissing(t *testing.T) {
	paths := servicePaths(t)
	es, err := NewEntityService(paths, serviceLogger())
	require.NoError(t, err)

	_, err = es.LatestEntityMap(context.Background())
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestHuntingQueriesFromLatestMap(t *testing.T) {
	paths := servicePaths(t)
	es, err := NewEntityService(paths, serviceLogger())
	require.NoError(t, err)

	mapJSON := `{"entities":{"ipaddress":[{"table":"auth","column":"src_ip"},{"table":"dns","column":"client"}]}}`
	require.NoError(t, os.WriteFile(filepath.Join(paths.ReportsDir, "loglens_entity_map_20260310.json"), []byte(mapJSON), 0644))

	queries, err := es.HuntingQueries(context.Background(), domain.EntityIPAddress, "10.0.0.9", "")
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, `auth | where src_ip == "10.0.0.9"`, queries[0].Query)

	_, err = es.HuntingQueries(context.Background(), domain.EntityHash, "*", "")
	assert.ErrorIs(t, err, ErrNoMatchesFound)
}
