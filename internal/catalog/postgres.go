package catalog

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/rmxops/plantctl/internal/db"
)

// PostgresStore implements Store over the hosted operations database.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a PostgresStore on an existing pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// RecipesByPlant returns every active recipe registered for a plant.
func (s *PostgresStore) RecipesByPlant(ctx context.Context, plantID string) ([]Recipe, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, plant_id, COALESCE(long_code,''), COALESCE(short_code,''), COALESCE(code,'')
		FROM recipes
		WHERE plant_id = $1 AND status = 'active'
		ORDER BY long_code`, plantID)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: query recipes")
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var r Recipe
		if err := rows.Scan(&r.ID, &r.PlantID, &r.LongCode, &r.ShortCode, &r.Code); err != nil {
			return nil, eris.Wrap(err, "catalog: scan recipe")
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// MaterialsByCodes returns catalog materials whose code matches any of the
// given codes, case-insensitively. Inactive materials are included so the
// resolver can flag them instead of reporting them missing.
func (s *PostgresStore) MaterialsByCodes(ctx context.Context, codes []string) ([]Material, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(codes))
	for i, c := range codes {
		lowered[i] = strings.ToLower(strings.TrimSpace(c))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, code, COALESCE(category,''), active
		FROM materials
		WHERE LOWER(code) = ANY($1)
		ORDER BY code`, lowered)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: query materials")
	}
	defer rows.Close()
	return scanMaterials(rows)
}

// MaterialByCode returns one material by code, or nil when absent.
func (s *PostgresStore) MaterialByCode(ctx context.Context, code string) (*Material, error) {
	var m Material
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, COALESCE(category,''), active
		FROM materials
		WHERE LOWER(code) = LOWER($1)
		LIMIT 1`, strings.TrimSpace(code)).
		Scan(&m.ID, &m.Code, &m.Category, &m.Active)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "catalog: get material %s", code)
	}
	return &m, nil
}

const priceEntryColumns = `
	e.id, e.plant_id, e.recipe_id, COALESCE(e.client_id,''), COALESCE(c.name,''),
	COALESCE(e.site_name,''), e.unit_price, COALESCE(e.quote_id,'')`

// PriceEntriesByPlant returns every active standing price-list entry for a
// plant, joined with the client display name.
func (s *PostgresStore) PriceEntriesByPlant(ctx context.Context, plantID string) ([]PriceEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+priceEntryColumns+`
		FROM price_list_entries e
		LEFT JOIN clients c ON c.id = e.client_id
		WHERE e.plant_id = $1 AND e.active
		ORDER BY e.created_at, e.id`, plantID)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: query price entries")
	}
	defer rows.Close()
	return scanPriceEntries(rows)
}

// PriceEntriesByRecipe is the per-recipe form used by the fallback path.
func (s *PostgresStore) PriceEntriesByRecipe(ctx context.Context, plantID, recipeID string) ([]PriceEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+priceEntryColumns+`
		FROM price_list_entries e
		LEFT JOIN clients c ON c.id = e.client_id
		WHERE e.plant_id = $1 AND e.recipe_id = $2 AND e.active
		ORDER BY e.created_at, e.id`, plantID, recipeID)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: query price entries for recipe %s", recipeID)
	}
	defer rows.Close()
	return scanPriceEntries(rows)
}

const quoteLineColumns = `
	q.id, q.plant_id, COALESCE(q.client_id,''), COALESCE(c.name,''),
	l.id, l.recipe_id, COALESCE(l.site_name,''), l.unit_price`

// ApprovedQuotesByPlant returns approved quotes with at least one line,
// joined with client display names.
func (s *PostgresStore) ApprovedQuotesByPlant(ctx context.Context, plantID string) ([]Quote, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+quoteLineColumns+`
		FROM quotes q
		JOIN quote_lines l ON l.quote_id = q.id
		LEFT JOIN clients c ON c.id = q.client_id
		WHERE q.plant_id = $1 AND q.status = 'approved'
		ORDER BY q.created_at, q.id, l.id`, plantID)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: query quotes")
	}
	defer rows.Close()
	return scanQuotes(rows)
}

// ApprovedQuotesByRecipe returns approved quotes restricted to lines covering
// one recipe, for the fallback path.
func (s *PostgresStore) ApprovedQuotesByRecipe(ctx context.Context, plantID, recipeID string) ([]Quote, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+quoteLineColumns+`
		FROM quotes q
		JOIN quote_lines l ON l.quote_id = q.id
		LEFT JOIN clients c ON c.id = q.client_id
		WHERE q.plant_id = $1 AND q.status = 'approved' AND l.recipe_id = $2
		ORDER BY q.created_at, q.id, l.id`, plantID, recipeID)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: query quotes for recipe %s", recipeID)
	}
	defer rows.Close()
	return scanQuotes(rows)
}

// SitesByClientNames returns construction sites owned by any client whose
// display name matches one of the given names, case-insensitively.
func (s *PostgresStore) SitesByClientNames(ctx context.Context, names []string) ([]ConstructionSite, error) {
	if len(names) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(strings.TrimSpace(n))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.client_id, s.name
		FROM construction_sites s
		JOIN clients c ON c.id = s.client_id
		WHERE LOWER(c.name) = ANY($1)
		ORDER BY s.client_id, s.name`, lowered)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: query sites by client names")
	}
	defer rows.Close()
	return scanSites(rows)
}

// SitesByClient returns one client's construction sites.
func (s *PostgresStore) SitesByClient(ctx context.Context, clientID string) ([]ConstructionSite, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, name
		FROM construction_sites
		WHERE client_id = $1
		ORDER BY name`, clientID)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: query sites for client %s", clientID)
	}
	defer rows.Close()
	return scanSites(rows)
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanMaterials(rows pgx.Rows) ([]Material, error) {
	var mats []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Category, &m.Active); err != nil {
			return nil, eris.Wrap(err, "catalog: scan material")
		}
		mats = append(mats, m)
	}
	return mats, rows.Err()
}

func scanPriceEntries(rows pgx.Rows) ([]PriceEntry, error) {
	var entries []PriceEntry
	for rows.Next() {
		var e PriceEntry
		if err := rows.Scan(&e.ID, &e.PlantID, &e.RecipeID, &e.ClientID, &e.ClientName,
			&e.SiteName, &e.UnitPrice, &e.QuoteID); err != nil {
			return nil, eris.Wrap(err, "catalog: scan price entry")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// scanQuotes groups joined quote/line rows back into quotes. Rows arrive
// ordered by quote id, so lines for one quote are contiguous.
func scanQuotes(rows pgx.Rows) ([]Quote, error) {
	var quotes []Quote
	for rows.Next() {
		var (
			q    Quote
			line QuoteLine
		)
		if err := rows.Scan(&q.ID, &q.PlantID, &q.ClientID, &q.ClientName,
			&line.ID, &line.RecipeID, &line.SiteName, &line.UnitPrice); err != nil {
			return nil, eris.Wrap(err, "catalog: scan quote line")
		}
		line.QuoteID = q.ID

		if n := len(quotes); n > 0 && quotes[n-1].ID == q.ID {
			quotes[n-1].Lines = append(quotes[n-1].Lines, line)
			continue
		}
		q.Lines = []QuoteLine{line}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func scanSites(rows pgx.Rows) ([]ConstructionSite, error) {
	var sites []ConstructionSite
	for rows.Next() {
		var s ConstructionSite
		if err := rows.Scan(&s.ID, &s.ClientID, &s.Name); err != nil {
			return nil, eris.Wrap(err, "catalog: scan site")
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}
