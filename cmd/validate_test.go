package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmxops/plantctl/internal/reconcile"
)

func TestReadRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	payload := `[
		{
			"row_number": 1,
			"product_code": "250-STD-20",
			"client_name": "Constructora ABC",
			"site_name": "Torre Norte",
			"materials": {"CEM-I": {"theoretical": 320, "actual": 318}}
		},
		{"row_number": 2, "product_code": "300-BOM-20", "client_name": "Desarrollos XYZ"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	records, err := readRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "250-STD-20", records[0].ProductCode)
	assert.Equal(t, 320.0, records[0].Materials["CEM-I"].Theoretical)
	assert.Equal(t, 2, records[1].RowNumber)
}

func TestReadRecords_BadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := readRecords(path)
	assert.Error(t, err)
}

func TestReadRecords_MissingFile(t *testing.T) {
	_, err := readRecords(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestWriteResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	result := &reconcile.BatchResult{
		BatchID: "b1",
		Validated: []*reconcile.StagingRecord{
			{RowNumber: 1, Status: reconcile.StatusValid},
		},
	}

	require.NoError(t, writeResult(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"batch_id": "b1"`)
	assert.Contains(t, string(data), `"status": "valid"`)
}

func TestSummarize(t *testing.T) {
	result := &reconcile.BatchResult{
		Validated: []*reconcile.StagingRecord{
			{Status: reconcile.StatusValid},
			{Status: reconcile.StatusValid},
			{Status: reconcile.StatusWarning},
			{Status: reconcile.StatusError},
		},
	}

	valid, warnings, errored := summarize(result)
	assert.Equal(t, 2, valid)
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 1, errored)
}
