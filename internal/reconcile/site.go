package reconcile

import (
	"context"
	"strings"

	"github.com/rmxops/plantctl/internal/normalize"
)

// ResolveSiteID maps a site name to a construction site belonging to the
// client chosen by pricing resolution: exact normalized match first, then
// bidirectional containment. Returns "" when nothing matches; many valid
// deliveries carry no fixed site, so an unresolved site is not an error.
func ResolveSiteID(ctx context.Context, lk Lookup, clientID, siteName string) (string, error) {
	name := normalize.Text(siteName)
	if clientID == "" || name == "" {
		return "", nil
	}

	sites, err := lk.SitesForClient(ctx, clientID)
	if err != nil {
		return "", err
	}

	for _, s := range sites {
		if normalize.Text(s.Name) == name {
			return s.ID, nil
		}
	}
	for _, s := range sites {
		candidate := normalize.Text(s.Name)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, name) || strings.Contains(name, candidate) {
			return s.ID, nil
		}
	}
	return "", nil
}

// ResolveQuoteLineID recovers the specific quote line behind a quote-sourced
// price; a quote can cover multiple recipes, so downstream needs the line,
// not just the quote. Returns "" non-fatally when no line matches.
func ResolveQuoteLineID(ctx context.Context, lk Lookup, quoteID, recipeID string) (string, error) {
	if quoteID == "" || recipeID == "" {
		return "", nil
	}
	line, err := lk.QuoteLine(ctx, quoteID, recipeID)
	if err != nil {
		return "", err
	}
	if line == nil {
		return "", nil
	}
	return line.ID, nil
}
