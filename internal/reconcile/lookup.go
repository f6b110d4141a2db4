package reconcile

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/rmxops/plantctl/internal/catalog"
	"github.com/rmxops/plantctl/internal/normalize"
)

// Lookup is the capability the resolvers run against. The batch path serves
// it from the preloaded catalog.Indexes; the fallback path serves it with
// per-record store queries. Keeping the resolvers on this interface means the
// two paths share one set of resolution algorithms.
type Lookup interface {
	RecipeByCode(ctx context.Context, code string) (*catalog.Recipe, error)
	RecipeCodeIndex(ctx context.Context) ([]catalog.CodeEntry, error)
	MaterialsByCodes(ctx context.Context, codes []string) (map[string]catalog.Material, error)
	OptionsForRecipe(ctx context.Context, recipeID string) ([]catalog.PricingOption, error)
	FreshEntries(ctx context.Context, recipeID string) ([]catalog.PriceEntry, error)
	SitesForClient(ctx context.Context, clientID string) ([]catalog.ConstructionSite, error)
	QuoteLine(ctx context.Context, quoteID, recipeID string) (*catalog.QuoteLine, error)
}

// storeLookup serves Lookup straight from the catalog store, one query per
// call. It is the slow path: no cross-record reuse, every record pays its own
// round trips. The limiter keeps the per-record query storm from saturating
// the shared database.
type storeLookup struct {
	store   catalog.Store
	plantID string
	limiter *rate.Limiter
}

func (l *storeLookup) wait(ctx context.Context) error {
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

func (l *storeLookup) RecipeByCode(ctx context.Context, code string) (*catalog.Recipe, error) {
	entries, err := l.RecipeCodeIndex(ctx)
	if err != nil {
		return nil, err
	}
	key := normalize.Text(code)
	for _, e := range entries {
		if e.Code == key {
			return e.Recipe, nil
		}
	}
	return nil, nil
}

func (l *storeLookup) RecipeCodeIndex(ctx context.Context) ([]catalog.CodeEntry, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	recipes, err := l.store.RecipesByPlant(ctx, l.plantID)
	if err != nil {
		return nil, err
	}

	var entries []catalog.CodeEntry
	seen := make(map[string]bool)
	for i := range recipes {
		r := &recipes[i]
		for _, code := range r.Codes() {
			key := normalize.Text(code)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, catalog.CodeEntry{Code: key, Recipe: r})
		}
	}
	return entries, nil
}

func (l *storeLookup) MaterialsByCodes(ctx context.Context, codes []string) (map[string]catalog.Material, error) {
	found := make(map[string]catalog.Material, len(codes))
	for _, code := range codes {
		if err := l.wait(ctx); err != nil {
			return nil, err
		}
		m, err := l.store.MaterialByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if m != nil {
			found[normalize.Text(code)] = *m
		}
	}
	return found, nil
}

func (l *storeLookup) OptionsForRecipe(ctx context.Context, recipeID string) ([]catalog.PricingOption, error) {
	entries, err := l.FreshEntries(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	quotes, err := l.store.ApprovedQuotesByRecipe(ctx, l.plantID, recipeID)
	if err != nil {
		return nil, err
	}
	return catalog.BuildOptions(entries, quotes), nil
}

func (l *storeLookup) FreshEntries(ctx context.Context, recipeID string) ([]catalog.PriceEntry, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.store.PriceEntriesByRecipe(ctx, l.plantID, recipeID)
}

func (l *storeLookup) SitesForClient(ctx context.Context, clientID string) ([]catalog.ConstructionSite, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.store.SitesByClient(ctx, clientID)
}

func (l *storeLookup) QuoteLine(ctx context.Context, quoteID, recipeID string) (*catalog.QuoteLine, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	quotes, err := l.store.ApprovedQuotesByRecipe(ctx, l.plantID, recipeID)
	if err != nil {
		return nil, err
	}
	for _, q := range quotes {
		if q.ID != quoteID {
			continue
		}
		for _, line := range q.Lines {
			if line.RecipeID == recipeID {
				l := line
				return &l, nil
			}
		}
	}
	return nil, nil
}
