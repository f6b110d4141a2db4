package reconcile

import (
	"fmt"
	"sort"

	"github.com/rmxops/plantctl/internal/catalog"
	"github.com/rmxops/plantctl/internal/fuzzy"
	"github.com/rmxops/plantctl/internal/normalize"
)

// Scoring constants. These are contractual design values shared with the
// reviewer UI's score display, not tunables.
const (
	quoteBonus          = 1.0
	freshQuoteBonus     = 2.0
	staleQuotePenalty   = -1.0
	singleOptionScore   = 2.0
	singleOptionQuoteUp = 2.0
)

// OptionScore is the per-option scoring breakdown kept in the trace.
type OptionScore struct {
	Option         catalog.PricingOption `json:"option"`
	ClientScore    float64               `json:"client_score"`
	SiteScore      float64               `json:"site_score"`
	QuoteBonus     float64               `json:"quote_bonus"`
	FreshnessBonus float64               `json:"freshness_bonus"`
	Total          float64               `json:"total"`
	Note           string                `json:"note,omitempty"`
}

// MatchTrace records how a pricing decision was made so the rationale is
// inspectable without coupling the engine to a logging sink.
type MatchTrace struct {
	Options []OptionScore `json:"options"`
	Reason  string        `json:"reason"`
}

// BestMatch is the selected pricing option and its decision trace.
type BestMatch struct {
	Option catalog.PricingOption `json:"option"`
	Score  float64               `json:"score"`
	Trace  MatchTrace            `json:"trace"`
}

// SelectBestPricing picks the single best pricing option for a record. The
// caller guarantees options is non-empty; zero options is a blocking
// no-price condition handled before this point.
//
// A lone option is taken as-is with a fixed score and a short reason.
// For multiple options each is scored clientSimilarity + siteSimilarity +
// quote bonus + freshness bonus, where a quote-sourced option earns +2.0 when
// an active standing entry still references the same (client, site, recipe,
// quote) and -1.0 otherwise: presumed superseded, kept only as a fallback
// candidate. Ties keep incoming order (stable sort).
func SelectBestPricing(options []catalog.PricingOption, clientName, siteName string, fresh []catalog.PriceEntry) BestMatch {
	if len(options) == 1 {
		opt := options[0]
		score := singleOptionScore
		if opt.QuoteID != "" {
			score += singleOptionQuoteUp
		}
		note := "single pricing option available"
		return BestMatch{
			Option: opt,
			Score:  score,
			Trace: MatchTrace{
				Options: []OptionScore{{Option: opt, Total: score, Note: note}},
				Reason:  note,
			},
		}
	}

	scored := make([]OptionScore, len(options))
	for i, opt := range options {
		s := OptionScore{
			Option:      opt,
			ClientScore: fuzzy.ClientSimilarity(clientName, opt.ClientName),
			SiteScore:   fuzzy.SiteSimilarity(siteName, opt.SiteName),
		}
		if opt.Source == catalog.SourceQuote {
			s.QuoteBonus = quoteBonus
			if hasFreshEntry(fresh, opt) {
				s.FreshnessBonus = freshQuoteBonus
				s.Note = "quote confirmed by active standing price"
			} else {
				s.FreshnessBonus = staleQuotePenalty
				s.Note = "quote presumed superseded, kept as fallback"
			}
		}
		s.Total = s.ClientScore + s.SiteScore + s.QuoteBonus + s.FreshnessBonus
		scored[i] = s
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Total > scored[j].Total
	})

	best := scored[0]
	return BestMatch{
		Option: best.Option,
		Score:  best.Total,
		Trace: MatchTrace{
			Options: scored,
			Reason: fmt.Sprintf("best of %d options: client %.2f + site %.2f + quote %.1f + freshness %.1f = %.2f",
				len(scored), best.ClientScore, best.SiteScore, best.QuoteBonus, best.FreshnessBonus, best.Total),
		},
	}
}

// hasFreshEntry reports whether an active standing entry references the same
// client, site, recipe, and quote as a quote-sourced option.
func hasFreshEntry(fresh []catalog.PriceEntry, opt catalog.PricingOption) bool {
	site := normalize.Text(opt.SiteName)
	for _, e := range fresh {
		if e.RecipeID == opt.RecipeID &&
			e.ClientID == opt.ClientID &&
			normalize.Text(e.SiteName) == site &&
			e.QuoteID == opt.QuoteID {
			return true
		}
	}
	return false
}
