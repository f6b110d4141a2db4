package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmxops/plantctl/internal/catalog"
)

func materialLookup() *fakeLookup {
	return &fakeLookup{
		mats: map[string]catalog.Material{
			"cem1": {ID: "m1", Code: "CEM1", Active: true},
			"are2": {ID: "m2", Code: "ARE2", Active: true},
			"adi9": {ID: "m3", Code: "ADI9", Active: false},
		},
	}
}

func TestResolveMaterials_AllKnownAndActive(t *testing.T) {
	rec := &StagingRecord{RowNumber: 1, Materials: map[string]MaterialUsage{
		"CEM1": {Theoretical: 320, Actual: 318.5},
		"ARE2": {Theoretical: 800, Actual: 812},
	}}

	errs, err := ResolveMaterials(context.Background(), materialLookup(), rec)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestResolveMaterials_ZeroQuantityIgnored(t *testing.T) {
	// "GHOST" is not in the catalog but both readings are zero, so it is
	// not a material reference and must produce no error.
	rec := &StagingRecord{RowNumber: 1, Materials: map[string]MaterialUsage{
		"CEM1":  {Theoretical: 320, Actual: 318.5},
		"GHOST": {Theoretical: 0, Actual: 0},
	}}

	errs, err := ResolveMaterials(context.Background(), materialLookup(), rec)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestResolveMaterials_MissingGroupedIntoOneError(t *testing.T) {
	rec := &StagingRecord{RowNumber: 4, Materials: map[string]MaterialUsage{
		"NOPE1": {Theoretical: 10},
		"NOPE2": {Actual: 5},
		"CEM1":  {Theoretical: 320},
	}}

	errs, err := ResolveMaterials(context.Background(), materialLookup(), rec)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMaterialNotFound, errs[0].Type)
	assert.Equal(t, 4, errs[0].RowNumber)
	assert.True(t, errs[0].Recoverable)
	assert.Contains(t, errs[0].Message, "NOPE1")
	assert.Contains(t, errs[0].Message, "NOPE2")
}

func TestResolveMaterials_InactiveSeparateFromMissing(t *testing.T) {
	rec := &StagingRecord{RowNumber: 2, Materials: map[string]MaterialUsage{
		"ADI9":  {Actual: 1.5},
		"NOPE1": {Theoretical: 10},
	}}

	errs, err := ResolveMaterials(context.Background(), materialLookup(), rec)
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Message, "not in catalog")
	assert.Contains(t, errs[0].Message, "NOPE1")
	assert.Contains(t, errs[1].Message, "inactive")
	assert.Contains(t, errs[1].Message, "ADI9")
}

func TestResolveMaterials_NoReferences(t *testing.T) {
	rec := &StagingRecord{RowNumber: 1}

	errs, err := ResolveMaterials(context.Background(), materialLookup(), rec)
	require.NoError(t, err)
	assert.Empty(t, errs)
}
