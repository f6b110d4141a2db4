package catalog

import (
	"github.com/rmxops/plantctl/internal/normalize"
)

// supersededKey identifies the (recipe, client, site, quote) tuple used to
// detect quote lines already represented by a standing price entry.
type supersededKey struct {
	recipeID string
	clientID string
	site     string
	quoteID  string
}

// BuildOptions assembles pricing options from active standing price entries
// and approved quotes. Every entry becomes one option: "client-site" when it
// names a site, "client" when it only names a client, "plant" when it names
// neither. Every quote line becomes a "quote" option unless a standing entry
// already covers the exact same (recipe, client, site, quote) tuple, in which
// case the line is suppressed as superseded. Entry options precede quote
// options in the returned slice, both in input order.
func BuildOptions(entries []PriceEntry, quotes []Quote) []PricingOption {
	options := make([]PricingOption, 0, len(entries))
	covered := make(map[supersededKey]bool, len(entries))

	for _, e := range entries {
		source := SourcePlant
		switch {
		case normalize.Text(e.SiteName) != "":
			source = SourceClientSite
		case e.ClientID != "":
			source = SourceClient
		}
		options = append(options, PricingOption{
			RecipeID:   e.RecipeID,
			ClientID:   e.ClientID,
			ClientName: e.ClientName,
			SiteName:   e.SiteName,
			UnitPrice:  e.UnitPrice,
			Source:     source,
			QuoteID:    e.QuoteID,
		})
		if e.QuoteID != "" {
			covered[supersededKey{e.RecipeID, e.ClientID, normalize.Text(e.SiteName), e.QuoteID}] = true
		}
	}

	for _, q := range quotes {
		for _, line := range q.Lines {
			key := supersededKey{line.RecipeID, q.ClientID, normalize.Text(line.SiteName), q.ID}
			if covered[key] {
				continue
			}
			options = append(options, PricingOption{
				RecipeID:    line.RecipeID,
				ClientID:    q.ClientID,
				ClientName:  q.ClientName,
				SiteName:    line.SiteName,
				UnitPrice:   line.UnitPrice,
				Source:      SourceQuote,
				QuoteID:     q.ID,
				QuoteLineID: line.ID,
			})
		}
	}

	return options
}
