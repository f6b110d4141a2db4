package catalog

import "context"

// Store is the read-only query surface over the five pricing catalogs. The
// bulk methods serve the batch preload; the per-entity methods serve the
// sequential fallback with the same filters at single-entity granularity.
type Store interface {
	// Bulk retrievals, one call per catalog per batch.
	RecipesByPlant(ctx context.Context, plantID string) ([]Recipe, error)
	MaterialsByCodes(ctx context.Context, codes []string) ([]Material, error)
	PriceEntriesByPlant(ctx context.Context, plantID string) ([]PriceEntry, error)
	ApprovedQuotesByPlant(ctx context.Context, plantID string) ([]Quote, error)
	SitesByClientNames(ctx context.Context, names []string) ([]ConstructionSite, error)

	// Per-entity retrievals for the fallback path.
	MaterialByCode(ctx context.Context, code string) (*Material, error)
	PriceEntriesByRecipe(ctx context.Context, plantID, recipeID string) ([]PriceEntry, error)
	ApprovedQuotesByRecipe(ctx context.Context, plantID, recipeID string) ([]Quote, error)
	SitesByClient(ctx context.Context, clientID string) ([]ConstructionSite, error)

	Close() error
}
