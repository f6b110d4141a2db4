package catalog

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store over a local catalog snapshot. Plant-floor
// machines validate against a snapshot file when the hosted database is
// unreachable; the snapshot is produced by sync tooling outside this
// repository.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a snapshot database at the given path.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "catalog: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS recipes (
	id         TEXT PRIMARY KEY,
	plant_id   TEXT NOT NULL,
	long_code  TEXT NOT NULL DEFAULT '',
	short_code TEXT NOT NULL DEFAULT '',
	code       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS materials (
	id       TEXT PRIMARY KEY,
	code     TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	active   INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS clients (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS price_list_entries (
	id         TEXT PRIMARY KEY,
	plant_id   TEXT NOT NULL,
	recipe_id  TEXT NOT NULL,
	client_id  TEXT NOT NULL DEFAULT '',
	site_name  TEXT NOT NULL DEFAULT '',
	unit_price REAL NOT NULL,
	quote_id   TEXT NOT NULL DEFAULT '',
	active     INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS quotes (
	id         TEXT PRIMARY KEY,
	plant_id   TEXT NOT NULL,
	client_id  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'draft',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS quote_lines (
	id         TEXT PRIMARY KEY,
	quote_id   TEXT NOT NULL REFERENCES quotes(id),
	recipe_id  TEXT NOT NULL,
	site_name  TEXT NOT NULL DEFAULT '',
	unit_price REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS construction_sites (
	id        TEXT PRIMARY KEY,
	client_id TEXT NOT NULL REFERENCES clients(id),
	name      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recipes_plant ON recipes(plant_id);
CREATE INDEX IF NOT EXISTS idx_entries_plant ON price_list_entries(plant_id);
CREATE INDEX IF NOT EXISTS idx_entries_recipe ON price_list_entries(recipe_id);
CREATE INDEX IF NOT EXISTS idx_quotes_plant ON quotes(plant_id);
CREATE INDEX IF NOT EXISTS idx_quote_lines_quote ON quote_lines(quote_id);
CREATE INDEX IF NOT EXISTS idx_sites_client ON construction_sites(client_id);
`

// Migrate creates the snapshot schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "catalog: sqlite migrate")
	}
	return nil
}

// RecipesByPlant returns every active recipe in the snapshot for a plant.
func (s *SQLiteStore) RecipesByPlant(ctx context.Context, plantID string) ([]Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plant_id, long_code, short_code, code
		FROM recipes
		WHERE plant_id = ? AND status = 'active'
		ORDER BY long_code`, plantID)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: sqlite query recipes")
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var r Recipe
		if err := rows.Scan(&r.ID, &r.PlantID, &r.LongCode, &r.ShortCode, &r.Code); err != nil {
			return nil, eris.Wrap(err, "catalog: sqlite scan recipe")
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// MaterialsByCodes returns snapshot materials matching the codes,
// case-insensitively, inactive ones included.
func (s *SQLiteStore) MaterialsByCodes(ctx context.Context, codes []string) ([]Material, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(codes))
	args := make([]any, len(codes))
	for i, c := range codes {
		placeholders[i] = "?"
		args[i] = strings.ToLower(strings.TrimSpace(c))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, category, active
		FROM materials
		WHERE LOWER(code) IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY code`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: sqlite query materials")
	}
	defer rows.Close()

	var mats []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Category, &m.Active); err != nil {
			return nil, eris.Wrap(err, "catalog: sqlite scan material")
		}
		mats = append(mats, m)
	}
	return mats, rows.Err()
}

// MaterialByCode returns one material by code, or nil when absent.
func (s *SQLiteStore) MaterialByCode(ctx context.Context, code string) (*Material, error) {
	var m Material
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, category, active
		FROM materials
		WHERE LOWER(code) = LOWER(?)
		LIMIT 1`, strings.TrimSpace(code)).
		Scan(&m.ID, &m.Code, &m.Category, &m.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "catalog: sqlite get material %s", code)
	}
	return &m, nil
}

const sqlitePriceEntryQuery = `
	SELECT e.id, e.plant_id, e.recipe_id, e.client_id, COALESCE(c.name, ''),
		e.site_name, e.unit_price, e.quote_id
	FROM price_list_entries e
	LEFT JOIN clients c ON c.id = e.client_id`

// PriceEntriesByPlant returns every active standing price entry for a plant.
func (s *SQLiteStore) PriceEntriesByPlant(ctx context.Context, plantID string) ([]PriceEntry, error) {
	rows, err := s.db.QueryContext(ctx, sqlitePriceEntryQuery+`
		WHERE e.plant_id = ? AND e.active = 1
		ORDER BY e.created_at, e.id`, plantID)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: sqlite query price entries")
	}
	defer rows.Close()
	return scanSQLitePriceEntries(rows)
}

// PriceEntriesByRecipe is the per-recipe form used by the fallback path.
func (s *SQLiteStore) PriceEntriesByRecipe(ctx context.Context, plantID, recipeID string) ([]PriceEntry, error) {
	rows, err := s.db.QueryContext(ctx, sqlitePriceEntryQuery+`
		WHERE e.plant_id = ? AND e.recipe_id = ? AND e.active = 1
		ORDER BY e.created_at, e.id`, plantID, recipeID)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: sqlite query price entries for recipe %s", recipeID)
	}
	defer rows.Close()
	return scanSQLitePriceEntries(rows)
}

const sqliteQuoteQuery = `
	SELECT q.id, q.plant_id, q.client_id, COALESCE(c.name, ''),
		l.id, l.recipe_id, l.site_name, l.unit_price
	FROM quotes q
	JOIN quote_lines l ON l.quote_id = q.id
	LEFT JOIN clients c ON c.id = q.client_id`

// ApprovedQuotesByPlant returns approved quotes with their lines.
func (s *SQLiteStore) ApprovedQuotesByPlant(ctx context.Context, plantID string) ([]Quote, error) {
	rows, err := s.db.QueryContext(ctx, sqliteQuoteQuery+`
		WHERE q.plant_id = ? AND q.status = 'approved'
		ORDER BY q.created_at, q.id, l.id`, plantID)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: sqlite query quotes")
	}
	defer rows.Close()
	return scanSQLiteQuotes(rows)
}

// ApprovedQuotesByRecipe restricts quote lines to one recipe.
func (s *SQLiteStore) ApprovedQuotesByRecipe(ctx context.Context, plantID, recipeID string) ([]Quote, error) {
	rows, err := s.db.QueryContext(ctx, sqliteQuoteQuery+`
		WHERE q.plant_id = ? AND q.status = 'approved' AND l.recipe_id = ?
		ORDER BY q.created_at, q.id, l.id`, plantID, recipeID)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: sqlite query quotes for recipe %s", recipeID)
	}
	defer rows.Close()
	return scanSQLiteQuotes(rows)
}

// SitesByClientNames returns sites of clients whose name matches any given
// name case-insensitively.
func (s *SQLiteStore) SitesByClientNames(ctx context.Context, names []string) ([]ConstructionSite, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		placeholders[i] = "?"
		args[i] = strings.ToLower(strings.TrimSpace(n))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.client_id, s.name
		FROM construction_sites s
		JOIN clients c ON c.id = s.client_id
		WHERE LOWER(c.name) IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY s.client_id, s.name`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: sqlite query sites by client names")
	}
	defer rows.Close()
	return scanSQLiteSites(rows)
}

// SitesByClient returns one client's construction sites.
func (s *SQLiteStore) SitesByClient(ctx context.Context, clientID string) ([]ConstructionSite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, name
		FROM construction_sites
		WHERE client_id = ?
		ORDER BY name`, clientID)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: sqlite query sites for client %s", clientID)
	}
	defer rows.Close()
	return scanSQLiteSites(rows)
}

// Close closes the snapshot database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanSQLitePriceEntries(rows *sql.Rows) ([]PriceEntry, error) {
	var entries []PriceEntry
	for rows.Next() {
		var e PriceEntry
		if err := rows.Scan(&e.ID, &e.PlantID, &e.RecipeID, &e.ClientID, &e.ClientName,
			&e.SiteName, &e.UnitPrice, &e.QuoteID); err != nil {
			return nil, eris.Wrap(err, "catalog: sqlite scan price entry")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanSQLiteQuotes(rows *sql.Rows) ([]Quote, error) {
	var quotes []Quote
	for rows.Next() {
		var (
			q    Quote
			line QuoteLine
		)
		if err := rows.Scan(&q.ID, &q.PlantID, &q.ClientID, &q.ClientName,
			&line.ID, &line.RecipeID, &line.SiteName, &line.UnitPrice); err != nil {
			return nil, eris.Wrap(err, "catalog: sqlite scan quote line")
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

func scanSQLiteSites(rows *sql.Rows) ([]ConstructionSite, error) {
	var sites []ConstructionSite
	for rows.Next() {
		var s ConstructionSite
		if err := rows.Scan(&s.ID, &s.ClientID, &s.Name); err != nil {
			return nil, eris.Wrap(err, "catalog: sqlite scan site")
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}
