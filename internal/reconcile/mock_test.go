package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rmxops/plantctl/internal/catalog"
	"github.com/rmxops/plantctl/internal/normalize"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeLookup is an in-memory Lookup for resolver tests.
type fakeLookup struct {
	recipes  []catalog.Recipe
	mats     map[string]catalog.Material
	options  map[string][]catalog.PricingOption
	fresh    map[string][]catalog.PriceEntry
	sites    map[string][]catalog.ConstructionSite
	lines    map[string][]catalog.QuoteLine
	failWith error
}

func (f *fakeLookup) codeIndex() []catalog.CodeEntry {
	var entries []catalog.CodeEntry
	seen := make(map[string]bool)
	for i := range f.recipes {
		r := &f.recipes[i]
		for _, code := range r.Codes() {
			key := normalize.Text(code)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, catalog.CodeEntry{Code: key, Recipe: r})
		}
	}
	return entries
}

func (f *fakeLookup) RecipeByCode(_ context.Context, code string) (*catalog.Recipe, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	key := normalize.Text(code)
	for _, e := range f.codeIndex() {
		if e.Code == key {
			return e.Recipe, nil
		}
	}
	return nil, nil
}

func (f *fakeLookup) RecipeCodeIndex(_ context.Context) ([]catalog.CodeEntry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.codeIndex(), nil
}

func (f *fakeLookup) MaterialsByCodes(_ context.Context, codes []string) (map[string]catalog.Material, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	found := make(map[string]catalog.Material)
	for _, c := range codes {
		if m, ok := f.mats[normalize.Text(c)]; ok {
			found[normalize.Text(c)] = m
		}
	}
	return found, nil
}

func (f *fakeLookup) OptionsForRecipe(_ context.Context, recipeID string) ([]catalog.PricingOption, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.options[recipeID], nil
}

func (f *fakeLookup) FreshEntries(_ context.Context, recipeID string) ([]catalog.PriceEntry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.fresh[recipeID], nil
}

func (f *fakeLookup) SitesForClient(_ context.Context, clientID string) ([]catalog.ConstructionSite, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.sites[clientID], nil
}

func (f *fakeLookup) QuoteLine(_ context.Context, quoteID, recipeID string) (*catalog.QuoteLine, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, line := range f.lines[quoteID] {
		if line.RecipeID == recipeID {
			l := line
			return &l, nil
		}
	}
	return nil, nil
}

// testStore is an in-memory catalog.Store for engine tests. failPreload
// fails PriceEntriesByPlant, which only the batch preload uses, so the
// engine is forced onto the fallback path while per-record queries still
// work; entityCalls counts fallback traffic.
type testStore struct {
	recipes []catalog.Recipe
	mats    []catalog.Material
	entries []catalog.PriceEntry
	quotes  []catalog.Quote
	sites   []catalog.ConstructionSite

	failPreload bool
	entityCalls int
}

func (s *testStore) RecipesByPlant(_ context.Context, _ string) ([]catalog.Recipe, error) {
	return s.recipes, nil
}

func (s *testStore) MaterialsByCodes(_ context.Context, codes []string) ([]catalog.Material, error) {
	var out []catalog.Material
	for _, m := range s.mats {
		for _, c := range codes {
			if normalize.Text(m.Code) == normalize.Text(c) {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func (s *testStore) PriceEntriesByPlant(_ context.Context, _ string) ([]catalog.PriceEntry, error) {
	if s.failPreload {
		return nil, eris.New("bulk query refused")
	}
	return s.entries, nil
}

func (s *testStore) ApprovedQuotesByPlant(_ context.Context, _ string) ([]catalog.Quote, error) {
	return s.quotes, nil
}

func (s *testStore) SitesByClientNames(_ context.Context, _ []string) ([]catalog.ConstructionSite, error) {
	return s.sites, nil
}

func (s *testStore) MaterialByCode(_ context.Context, code string) (*catalog.Material, error) {
	s.entityCalls++
	for _, m := range s.mats {
		if normalize.Text(m.Code) == normalize.Text(code) {
			mat := m
			return &mat, nil
		}
	}
	return nil, nil
}

func (s *testStore) PriceEntriesByRecipe(_ context.Context, _, recipeID string) ([]catalog.PriceEntry, error) {
	s.entityCalls++
	var out []catalog.PriceEntry
	for _, e := range s.entries {
		if e.RecipeID == recipeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *testStore) ApprovedQuotesByRecipe(_ context.Context, _, recipeID string) ([]catalog.Quote, error) {
	s.entityCalls++
	var out []catalog.Quote
	for _, q := range s.quotes {
		var lines []catalog.QuoteLine
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

func (s *testStore) SitesByClient(_ context.Context, clientID string) ([]catalog.ConstructionSite, error) {
	s.entityCalls++
	var out []catalog.ConstructionSite
	for _, site := range s.sites {
		if site.ClientID == clientID {
			out = append(out, site)
		}
	}
	return out, nil
}

func (s *testStore) Close() error { return nil }
