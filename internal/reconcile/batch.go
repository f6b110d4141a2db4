package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rmxops/plantctl/internal/catalog"
	"github.com/rmxops/plantctl/internal/normalize"
)

// Engine validates batches of staging records against the pricing catalogs.
type Engine struct {
	store   catalog.Store
	plantID string
	workers int
	limiter *rate.Limiter
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets how many records are processed concurrently after the
// catalog preload. Records are independent once the indexes are built.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithFallbackRate caps the query rate of the sequential fallback path.
func WithFallbackRate(perSecond float64) Option {
	return func(e *Engine) {
		if perSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewEngine creates a reconciliation engine for one plant.
func NewEngine(store catalog.Store, plantID string, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		plantID: plantID,
		workers: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateBatch resolves every record in the batch. The catalogs are
// preloaded once; if that preload fails the engine falls back to per-record
// lookups rather than failing the batch. Validation failures never surface
// as an error: they live in the records and the result's error list. The
// returned error is context cancellation only.
func (e *Engine) ValidateBatch(ctx context.Context, records []*StagingRecord) (*BatchResult, error) {
	batchID := uuid.NewString()
	log := zap.L().With(
		zap.String("component", "reconcile"),
		zap.String("batch_id", batchID),
		zap.Int("records", len(records)),
	)

	lk, err := e.batchLookup(ctx, records)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("catalog preload failed, falling back to per-record lookups", zap.Error(err))
		lk = &storeLookup{store: e.store, plantID: e.plantID, limiter: e.limiter}
		return e.run(ctx, lk, records, batchID, 1)
	}

	return e.run(ctx, lk, records, batchID, e.workers)
}

// batchLookup preloads the catalogs into immutable indexes.
func (e *Engine) batchLookup(ctx context.Context, records []*StagingRecord) (Lookup, error) {
	return catalog.Load(ctx, e.store, e.plantID, buildProfile(records))
}

// run processes every record independently. With workers > 1 the records are
// fanned out; errors accumulate per record and are concatenated in record
// order afterwards, so the final error list is deterministic either way.
func (e *Engine) run(ctx context.Context, lk Lookup, records []*StagingRecord, batchID string, workers int) (*BatchResult, error) {
	if workers <= 1 {
		for _, rec := range records {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.processSafely(ctx, lk, rec)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, rec := range records {
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.processSafely(gctx, lk, rec)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	result := &BatchResult{
		BatchID:   batchID,
		Validated: records,
	}
	for _, rec := range records {
		result.Errors = append(result.Errors, rec.Errors...)
	}

	zap.L().Info("batch validated",
		zap.String("batch_id", batchID),
		zap.Int("records", len(records)),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// processSafely guards the row boundary: any panic or lookup failure while
// processing one record becomes a non-recoverable DataTypeError on that row
// and the batch continues.
func (e *Engine) processSafely(ctx context.Context, lk Lookup, rec *StagingRecord) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("row processing panic",
				zap.Int("row", rec.RowNumber),
				zap.Any("panic", r),
			)
			e.failRow(rec, fmt.Sprintf("row processing failed: %v", r))
		}
	}()

	if err := e.process(ctx, lk, rec); err != nil {
		zap.L().Error("row processing failed",
			zap.Int("row", rec.RowNumber),
			zap.Error(err),
		)
		e.failRow(rec, fmt.Sprintf("row processing failed: %v", err))
	}
}

func (e *Engine) failRow(rec *StagingRecord, message string) {
	rec.Status = StatusError
	rec.Errors = append(rec.Errors, ValidationError{
		RowNumber:   rec.RowNumber,
		Type:        ErrDataType,
		Field:       "row",
		Value:       fmt.Sprintf("%d", rec.RowNumber),
		Message:     message,
		Recoverable: false,
	})
}

// process runs the resolution pipeline for one record: recipe, materials,
// pricing (which fixes the client), then site. A missing recipe or a recipe
// without pricing options returns the record early with what was resolved so
// far.
func (e *Engine) process(ctx context.Context, lk Lookup, rec *StagingRecord) error {
	recipe, verr, err := ResolveRecipe(ctx, lk, rec)
	if err != nil {
		return err
	}
	if verr != nil {
		rec.Status = StatusError
		rec.Errors = append(rec.Errors, *verr)
		return nil
	}
	rec.RecipeID = recipe.ID

	materialErrs, err := ResolveMaterials(ctx, lk, rec)
	if err != nil {
		return err
	}
	rec.Errors = append(rec.Errors, materialErrs...)

	options, err := lk.OptionsForRecipe(ctx, recipe.ID)
	if err != nil {
		return err
	}
	if len(options) == 0 {
		rec.Status = StatusError
		rec.Errors = append(rec.Errors, ValidationError{
			RowNumber:   rec.RowNumber,
			Type:        ErrRecipeNoPrice,
			Field:       "recipe_id",
			Value:       recipe.ID,
			Message:     fmt.Sprintf("no pricing option exists for recipe %s", firstCode(recipe)),
			Recoverable: true,
		})
		return nil
	}

	fresh, err := lk.FreshEntries(ctx, recipe.ID)
	if err != nil {
		return err
	}
	best := SelectBestPricing(options, rec.ClientName, rec.SiteName, fresh)

	rec.ClientID = best.Option.ClientID
	rec.UnitPrice = best.Option.UnitPrice
	rec.PriceSource = best.Option.Source
	if best.Option.Source == catalog.SourceQuote {
		rec.QuoteID = best.Option.QuoteID
		rec.QuoteLineID = best.Option.QuoteLineID
		if rec.QuoteLineID == "" {
			lineID, err := ResolveQuoteLineID(ctx, lk, best.Option.QuoteID, recipe.ID)
			if err != nil {
				return err
			}
			rec.QuoteLineID = lineID
		}
	}

	// Site resolution uses the winning option's site when it names one;
	// otherwise the record's own site text.
	siteName := best.Option.SiteName
	if normalize.Text(siteName) == "" {
		siteName = rec.SiteName
	}
	siteID, err := ResolveSiteID(ctx, lk, best.Option.ClientID, siteName)
	if err != nil {
		return err
	}
	rec.SiteID = siteID

	if len(rec.Errors) > 0 {
		rec.Status = StatusWarning
	} else {
		rec.Status = StatusValid
	}

	zap.L().Debug("record resolved",
		zap.Int("row", rec.RowNumber),
		zap.String("recipe_id", rec.RecipeID),
		zap.String("client_id", rec.ClientID),
		zap.Float64("unit_price", rec.UnitPrice),
		zap.String("price_source", string(rec.PriceSource)),
		zap.String("reason", best.Trace.Reason),
	)
	return nil
}

func firstCode(r *catalog.Recipe) string {
	if codes := r.Codes(); len(codes) > 0 {
		return codes[0]
	}
	return r.ID
}

// buildProfile collects what the batch can reference: every material code
// with a strictly positive reading and every distinct client name, both
// deduplicated and sorted so the loader's queries are deterministic.
func buildProfile(records []*StagingRecord) catalog.BatchProfile {
	codeSet := make(map[string]bool)
	nameSet := make(map[string]bool)
	var profile catalog.BatchProfile

	for _, rec := range records {
		for code, usage := range rec.Materials {
			if !usage.Referenced() {
				continue
			}
			if key := normalize.Text(code); key != "" && !codeSet[key] {
				codeSet[key] = true
				profile.MaterialCodes = append(profile.MaterialCodes, code)
			}
		}
		if name := normalize.Text(rec.ClientName); name != "" && !nameSet[name] {
			nameSet[name] = true
			profile.ClientNames = append(profile.ClientNames, rec.ClientName)
		}
	}

	sort.Strings(profile.MaterialCodes)
	sort.Strings(profile.ClientNames)
	return profile
}
