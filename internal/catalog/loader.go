package catalog

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rmxops/plantctl/internal/normalize"
)

// BatchProfile describes what a batch can possibly reference: the material
// codes with a strictly positive theoretical or actual quantity somewhere in
// the batch, and every distinct client name the records mention. The loader
// restricts its bulk queries to this profile.
type BatchProfile struct {
	MaterialCodes []string
	ClientNames   []string
}

// Indexes holds the immutable in-memory lookup structures for one batch.
// Built once by Load before any record is processed and never mutated after;
// records may then be resolved concurrently against it.
type Indexes struct {
	recipeByCode  map[string]*Recipe
	recipeCodes   []CodeEntry
	materials     map[string]Material
	options       map[string][]PricingOption
	freshEntries  map[string][]PriceEntry
	quoteLines    map[string][]QuoteLine
	sitesByClient map[string][]ConstructionSite
}

// Load issues the five bulk catalog queries concurrently and assembles the
// batch indexes. Any single retrieval failure fails the whole load; partial
// catalogs would silently mis-price records, so the caller falls back to
// per-record lookups instead.
func Load(ctx context.Context, store Store, plantID string, profile BatchProfile) (*Indexes, error) {
	var (
		recipes []Recipe
		mats    []Material
		entries []PriceEntry
		quotes  []Quote
		sites   []ConstructionSite
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		recipes, err = store.RecipesByPlant(gctx, plantID)
		return eris.Wrap(err, "catalog: load recipes")
	})
	g.Go(func() (err error) {
		if len(profile.MaterialCodes) == 0 {
			return nil
		}
		mats, err = store.MaterialsByCodes(gctx, profile.MaterialCodes)
		return eris.Wrap(err, "catalog: load materials")
	})
	g.Go(func() (err error) {
		entries, err = store.PriceEntriesByPlant(gctx, plantID)
		return eris.Wrap(err, "catalog: load price entries")
	})
	g.Go(func() (err error) {
		quotes, err = store.ApprovedQuotesByPlant(gctx, plantID)
		return eris.Wrap(err, "catalog: load quotes")
	})
	g.Go(func() (err error) {
		if len(profile.ClientNames) == 0 {
			return nil
		}
		sites, err = store.SitesByClientNames(gctx, profile.ClientNames)
		return eris.Wrap(err, "catalog: load sites")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := build(recipes, mats, entries, quotes, sites)

	zap.L().Debug("catalog preload complete",
		zap.String("plant_id", plantID),
		zap.Int("recipes", len(recipes)),
		zap.Int("materials", len(mats)),
		zap.Int("price_entries", len(entries)),
		zap.Int("quotes", len(quotes)),
		zap.Int("sites", len(sites)),
	)

	return idx, nil
}

func build(recipes []Recipe, mats []Material, entries []PriceEntry, quotes []Quote, sites []ConstructionSite) *Indexes {
	idx := &Indexes{
		recipeByCode:  make(map[string]*Recipe),
		materials:     make(map[string]Material, len(mats)),
		options:       make(map[string][]PricingOption),
		freshEntries:  make(map[string][]PriceEntry),
		quoteLines:    make(map[string][]QuoteLine, len(quotes)),
		sitesByClient: make(map[string][]ConstructionSite),
	}

	// Index every alternate code of every recipe under its normalized form.
	// First registration wins so duplicated short codes cannot redirect an
	// already-indexed variant.
	for i := range recipes {
		r := &recipes[i]
		for _, code := range r.Codes() {
			key := normalize.Text(code)
			if key == "" {
				continue
			}
			if _, exists := idx.recipeByCode[key]; exists {
				continue
			}
			idx.recipeByCode[key] = r
			idx.recipeCodes = append(idx.recipeCodes, CodeEntry{Code: key, Recipe: r})
		}
	}

	for _, m := range mats {
		idx.materials[normalize.Text(m.Code)] = m
	}

	for _, opt := range BuildOptions(entries, quotes) {
		idx.options[opt.RecipeID] = append(idx.options[opt.RecipeID], opt)
	}
	for _, e := range entries {
		idx.freshEntries[e.RecipeID] = append(idx.freshEntries[e.RecipeID], e)
	}

	for _, q := range quotes {
		idx.quoteLines[q.ID] = q.Lines
	}

	for _, s := range sites {
		idx.sitesByClient[s.ClientID] = append(idx.sitesByClient[s.ClientID], s)
	}

	return idx
}

// RecipeByCode returns the recipe indexed under the normalized code, or nil.
func (idx *Indexes) RecipeByCode(_ context.Context, code string) (*Recipe, error) {
	return idx.recipeByCode[normalize.Text(code)], nil
}

// RecipeCodeIndex returns every indexed (code, recipe) pair in index order.
func (idx *Indexes) RecipeCodeIndex(_ context.Context) ([]CodeEntry, error) {
	return idx.recipeCodes, nil
}

// MaterialsByCodes returns the loaded materials for the given codes, keyed by
// normalized code. Codes absent from the catalog are absent from the map.
func (idx *Indexes) MaterialsByCodes(_ context.Context, codes []string) (map[string]Material, error) {
	found := make(map[string]Material, len(codes))
	for _, c := range codes {
		key := normalize.Text(c)
		if m, ok := idx.materials[key]; ok {
			found[key] = m
		}
	}
	return found, nil
}

// OptionsForRecipe returns the assembled pricing options for a recipe.
func (idx *Indexes) OptionsForRecipe(_ context.Context, recipeID string) ([]PricingOption, error) {
	return idx.options[recipeID], nil
}

// FreshEntries returns the active standing price entries for a recipe, the
// freshness context for quote scoring.
func (idx *Indexes) FreshEntries(_ context.Context, recipeID string) ([]PriceEntry, error) {
	return idx.freshEntries[recipeID], nil
}

// SitesForClient returns the preloaded construction sites for a client.
func (idx *Indexes) SitesForClient(_ context.Context, clientID string) ([]ConstructionSite, error) {
	return idx.sitesByClient[clientID], nil
}

// QuoteLine returns the quote line covering the given recipe within a quote,
// or nil when the quote has no line for it. Lines suppressed during option
// assembly are still found here; a superseding standing entry keeps the quote
// reference, and downstream needs the line id behind it.
func (idx *Indexes) QuoteLine(_ context.Context, quoteID, recipeID string) (*QuoteLine, error) {
	for _, line := range idx.quoteLines[quoteID] {
		if line.RecipeID == recipeID {
			l := line
			return &l, nil
		}
	}
	return nil, nil
}
