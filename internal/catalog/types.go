// Package catalog reads the pricing catalogs (recipes, materials, standing
// prices, quotes, construction sites) and assembles the in-memory indexes the
// reconciliation engine resolves against.
package catalog

// Recipe is a concrete mix design. A recipe is known by up to three textual
// codes; plant-control exports may reference any of them.
type Recipe struct {
	ID        string `json:"id"`
	PlantID   string `json:"plant_id"`
	LongCode  string `json:"long_code"`
	ShortCode string `json:"short_code"`
	Code      string `json:"code"`
}

// Codes returns the recipe's non-empty alternate codes, long code first.
func (r Recipe) Codes() []string {
	var codes []string
	for _, c := range []string{r.LongCode, r.ShortCode, r.Code} {
		if c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

// Material is a raw-material catalog entry.
type Material struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

// PriceSource tags which catalog produced a pricing option.
type PriceSource string

const (
	// SourceClient is a standing price scoped to a client.
	SourceClient PriceSource = "client"
	// SourceClientSite is a standing price scoped to a client and site.
	SourceClientSite PriceSource = "client-site"
	// SourcePlant is a plant-wide standing price with no client.
	SourcePlant PriceSource = "plant"
	// SourceQuote is a price taken from an approved quote line.
	SourceQuote PriceSource = "quote"
)

// PriceEntry is an active standing price-list row joined with the client
// display name. QuoteID is set when the entry was created from a quote and
// still references it; the freshness rule keys off that reference.
type PriceEntry struct {
	ID         string  `json:"id"`
	PlantID    string  `json:"plant_id"`
	RecipeID   string  `json:"recipe_id"`
	ClientID   string  `json:"client_id"`
	ClientName string  `json:"client_name"`
	SiteName   string  `json:"site_name"`
	UnitPrice  float64 `json:"unit_price"`
	QuoteID    string  `json:"quote_id"`
}

// Quote is an approved commercial quotation with its per-recipe lines.
type Quote struct {
	ID         string      `json:"id"`
	PlantID    string      `json:"plant_id"`
	ClientID   string      `json:"client_id"`
	ClientName string      `json:"client_name"`
	Lines      []QuoteLine `json:"lines"`
}

// QuoteLine is one recipe's price within a quote.
type QuoteLine struct {
	ID        string  `json:"id"`
	QuoteID   string  `json:"quote_id"`
	RecipeID  string  `json:"recipe_id"`
	SiteName  string  `json:"site_name"`
	UnitPrice float64 `json:"unit_price"`
}

// PricingOption is one candidate price for a delivery record. Options from
// quotes carry the originating quote and quote-line identifiers; the line id
// is mandatory downstream when a quote price wins, so it is never dropped
// during assembly.
type PricingOption struct {
	RecipeID    string      `json:"recipe_id"`
	ClientID    string      `json:"client_id"`
	ClientName  string      `json:"client_name"`
	SiteName    string      `json:"site_name"`
	UnitPrice   float64     `json:"unit_price"`
	Source      PriceSource `json:"source"`
	QuoteID     string      `json:"quote_id,omitempty"`
	QuoteLineID string      `json:"quote_line_id,omitempty"`
}

// ConstructionSite is a client's registered delivery site.
type ConstructionSite struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

// CodeEntry is one (normalized code, recipe) pair in the recipe index. The
// slice form preserves index order so fuzzy scans are deterministic.
type CodeEntry struct {
	Code   string
	Recipe *Recipe
}
