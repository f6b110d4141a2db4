package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptions_SourceTagging(t *testing.T) {
	entries := []PriceEntry{
		{ID: "e1", RecipeID: "r1", ClientID: "c1", ClientName: "Constructora ABC", SiteName: "Torre Norte", UnitPrice: 1900},
		{ID: "e2", RecipeID: "r1", ClientID: "c1", ClientName: "Constructora ABC", SiteName: "", UnitPrice: 1850},
		{ID: "e3", RecipeID: "r1", ClientID: "", ClientName: "", SiteName: "  ", UnitPrice: 1700},
	}

	opts := BuildOptions(entries, nil)
	require.Len(t, opts, 3)
	assert.Equal(t, SourceClientSite, opts[0].Source)
	assert.Equal(t, SourceClient, opts[1].Source)
	assert.Equal(t, SourcePlant, opts[2].Source)
}

func TestBuildOptions_QuoteLinesCarryIdentifiers(t *testing.T) {
	quotes := []Quote{
		{ID: "q1", ClientID: "c1", ClientName: "Constructora ABC", Lines: []QuoteLine{
			{ID: "ql1", QuoteID: "q1", RecipeID: "r1", SiteName: "Torre Norte", UnitPrice: 1820},
			{ID: "ql2", QuoteID: "q1", RecipeID: "r2", SiteName: "", UnitPrice: 1500},
		}},
	}

	opts := BuildOptions(nil, quotes)
	require.Len(t, opts, 2)
	for _, opt := range opts {
		assert.Equal(t, SourceQuote, opt.Source)
		assert.Equal(t, "q1", opt.QuoteID)
		assert.NotEmpty(t, opt.QuoteLineID)
	}
}

func TestBuildOptions_SupersededQuoteLineSuppressed(t *testing.T) {
	entries := []PriceEntry{
		{ID: "e1", RecipeID: "r1", ClientID: "c1", ClientName: "Constructora ABC", SiteName: "Torre Norte", UnitPrice: 1900, QuoteID: "q1"},
	}
	quotes := []Quote{
		{ID: "q1", ClientID: "c1", ClientName: "Constructora ABC", Lines: []QuoteLine{
			// Same (recipe, client, site, quote) tuple: suppressed.
			{ID: "ql1", QuoteID: "q1", RecipeID: "r1", SiteName: "torre norte", UnitPrice: 1820},
			// Different site within the same quote: kept.
			{ID: "ql2", QuoteID: "q1", RecipeID: "r1", SiteName: "Plaza Sur", UnitPrice: 1820},
		}},
	}

	opts := BuildOptions(entries, quotes)
	require.Len(t, opts, 2)
	assert.Equal(t, SourceClientSite, opts[0].Source)
	assert.Equal(t, SourceQuote, opts[1].Source)
	assert.Equal(t, "ql2", opts[1].QuoteLineID)
}

func TestBuildOptions_DifferentQuoteNotSuppressed(t *testing.T) {
	entries := []PriceEntry{
		{ID: "e1", RecipeID: "r1", ClientID: "c1", ClientName: "Constructora ABC", SiteName: "Torre Norte", UnitPrice: 1900, QuoteID: "q-old"},
	}
	quotes := []Quote{
		{ID: "q-new", ClientID: "c1", ClientName: "Constructora ABC", Lines: []QuoteLine{
			{ID: "ql1", QuoteID: "q-new", RecipeID: "r1", SiteName: "Torre Norte", UnitPrice: 1820},
		}},
	}

	opts := BuildOptions(entries, quotes)
	require.Len(t, opts, 2)
	assert.Equal(t, SourceQuote, opts[1].Source)
}

func TestBuildOptions_EntriesPrecedeQuotes(t *testing.T) {
	entries := []PriceEntry{{ID: "e1", RecipeID: "r1", ClientID: "c1", UnitPrice: 1850}}
	quotes := []Quote{
		{ID: "q1", ClientID: "c2", Lines: []QuoteLine{{ID: "ql1", QuoteID: "q1", RecipeID: "r1", UnitPrice: 1800}}},
	}

	opts := BuildOptions(entries, quotes)
	require.Len(t, opts, 2)
	assert.Equal(t, SourceClient, opts[0].Source)
	assert.Equal(t, SourceQuote, opts[1].Source)
}
