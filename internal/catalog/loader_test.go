package catalog

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeStore serves canned catalog data and records which bulk calls ran.
type fakeStore struct {
	recipes []Recipe
	mats    []Material
	entries []PriceEntry
	quotes  []Quote
	sites   []ConstructionSite

	failBulk bool

	materialCodes []string
	clientNames   []string
}

func (f *fakeStore) RecipesByPlant(_ context.Context, _ string) ([]Recipe, error) {
	if f.failBulk {
		return nil, eris.New("connection refused")
	}
	return f.recipes, nil
}

func (f *fakeStore) MaterialsByCodes(_ context.Context, codes []string) ([]Material, error) {
	f.materialCodes = codes
	return f.mats, nil
}

func (f *fakeStore) PriceEntriesByPlant(_ context.Context, _ string) ([]PriceEntry, error) {
	return f.entries, nil
}

func (f *fakeStore) ApprovedQuotesByPlant(_ context.Context, _ string) ([]Quote, error) {
	return f.quotes, nil
}

func (f *fakeStore) SitesByClientNames(_ context.Context, names []string) ([]ConstructionSite, error) {
	f.clientNames = names
	return f.sites, nil
}

func (f *fakeStore) MaterialByCode(_ context.Context, code string) (*Material, error) {
	for _, m := range f.mats {
		if m.Code == code {
			mat := m
			return &mat, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) PriceEntriesByRecipe(_ context.Context, _, recipeID string) ([]PriceEntry, error) {
	var out []PriceEntry
	for _, e := range f.entries {
		if e.RecipeID == recipeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ApprovedQuotesByRecipe(_ context.Context, _, recipeID string) ([]Quote, error) {
	var out []Quote
	for _, q := range f.quotes {
		var lines []QuoteLine
		for _, l := range q.Lines {
			if l.RecipeID == recipeID {
				lines = append(lines, l)
			}
		}
		if len(lines) > 0 {
			qq := q
			qq.Lines = lines
			out = append(out, qq)
		}
	}
	return out, nil
}

func (f *fakeStore) SitesByClient(_ context.Context, clientID string) ([]ConstructionSite, error) {
	var out []ConstructionSite
	for _, s := range f.sites {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

func TestLoad_BuildsRecipeIndexUnderEveryCode(t *testing.T) {
	store := &fakeStore{
		recipes: []Recipe{
			{ID: "r1", LongCode: "5-250-2-B-28-12-D-2-000", ShortCode: "250-B", Code: "SER002"},
		},
	}

	idx, err := Load(context.Background(), store, "plant-1", BatchProfile{})
	require.NoError(t, err)

	for _, code := range []string{"5-250-2-B-28-12-D-2-000", "250-b", "  SER002 "} {
		r, err := idx.RecipeByCode(context.Background(), code)
		require.NoError(t, err)
		require.NotNil(t, r, "code %q should resolve", code)
		assert.Equal(t, "r1", r.ID)
	}

	entries, err := idx.RecipeCodeIndex(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestLoad_DuplicateCodeKeepsFirstRecipe(t *testing.T) {
	store := &fakeStore{
		recipes: []Recipe{
			{ID: "r1", Code: "SER002"},
			{ID: "r2", Code: "ser002"},
		},
	}

	idx, err := Load(context.Background(), store, "plant-1", BatchProfile{})
	require.NoError(t, err)

	r, err := idx.RecipeByCode(context.Background(), "SER002")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
}

func TestLoad_PassesProfileFilters(t *testing.T) {
	store := &fakeStore{}
	profile := BatchProfile{
		MaterialCodes: []string{"CEM1", "ARE2"},
		ClientNames:   []string{"constructora abc"},
	}

	_, err := Load(context.Background(), store, "plant-1", profile)
	require.NoError(t, err)
	assert.Equal(t, profile.MaterialCodes, store.materialCodes)
	assert.Equal(t, profile.ClientNames, store.clientNames)
}

func TestLoad_EmptyProfileSkipsFilteredQueries(t *testing.T) {
	store := &fakeStore{}

	_, err := Load(context.Background(), store, "plant-1", BatchProfile{})
	require.NoError(t, err)
	assert.Nil(t, store.materialCodes)
	assert.Nil(t, store.clientNames)
}

func TestLoad_BulkFailureIsReturned(t *testing.T) {
	store := &fakeStore{failBulk: true}

	_, err := Load(context.Background(), store, "plant-1", BatchProfile{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load recipes")
}

func TestIndexes_QuoteLineFindsSuppressedLines(t *testing.T) {
	// The standing entry supersedes the quote line, so no quote-sourced
	// option exists, but the line itself must remain resolvable.
	store := &fakeStore{
		entries: []PriceEntry{
			{ID: "e1", RecipeID: "r1", ClientID: "c1", ClientName: "Constructora ABC", SiteName: "Torre Norte", UnitPrice: 1900, QuoteID: "q1"},
		},
		quotes: []Quote{
			{ID: "q1", ClientID: "c1", ClientName: "Constructora ABC", Lines: []QuoteLine{
				{ID: "ql1", QuoteID: "q1", RecipeID: "r1", SiteName: "Torre Norte", UnitPrice: 1900},
			}},
		},
	}

	idx, err := Load(context.Background(), store, "plant-1", BatchProfile{})
	require.NoError(t, err)

	opts, err := idx.OptionsForRecipe(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, SourceClientSite, opts[0].Source)

	line, err := idx.QuoteLine(context.Background(), "q1", "r1")
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, "ql1", line.ID)
}

func TestIndexes_MaterialsByCodes(t *testing.T) {
	store := &fakeStore{
		mats: []Material{
			{ID: "m1", Code: "CEM1", Active: true},
			{ID: "m2", Code: "ARE2", Active: false},
		},
	}

	idx, err := Load(context.Background(), store, "plant-1", BatchProfile{MaterialCodes: []string{"CEM1", "ARE2"}})
	require.NoError(t, err)

	found, err := idx.MaterialsByCodes(context.Background(), []string{"cem1", "ARE2", "NOPE"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.True(t, found["cem1"].Active)
	assert.False(t, found["are2"].Active)
}
