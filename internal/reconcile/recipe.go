package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rmxops/plantctl/internal/catalog"
	"github.com/rmxops/plantctl/internal/fuzzy"
	"github.com/rmxops/plantctl/internal/normalize"
)

// maxCodeSuggestions caps the near-miss codes attached to a RecipeNotFound.
const maxCodeSuggestions = 3

// ResolveRecipe maps a record's product code to exactly one recipe. Attempts
// short-circuit in order: exact normalized match on the primary code, exact
// match on the fallback code, then the first fuzzy hit scanning every indexed
// key. No global best-match ranking; the first fuzzy hit wins.
//
// A nil recipe with a non-nil ValidationError means the record carries no
// resolvable code; the error return is reserved for lookup failures.
func ResolveRecipe(ctx context.Context, lk Lookup, rec *StagingRecord) (*catalog.Recipe, *ValidationError, error) {
	primary := normalize.Text(rec.ProductCode)
	fallback := normalize.Text(rec.ProductCodeAlt)

	if primary == "" && fallback == "" {
		return nil, recipeNotFound(rec, nil), nil
	}

	for _, code := range []string{primary, fallback} {
		if code == "" {
			continue
		}
		r, err := lk.RecipeByCode(ctx, code)
		if err != nil {
			return nil, nil, err
		}
		if r != nil {
			return r, nil, nil
		}
	}

	entries, err := lk.RecipeCodeIndex(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, code := range []string{primary, fallback} {
		if code == "" {
			continue
		}
		for _, e := range entries {
			if fuzzy.IsFuzzyMatch(code, e.Code) {
				return e.Recipe, nil, nil
			}
		}
	}

	return nil, recipeNotFound(rec, entries), nil
}

func recipeNotFound(rec *StagingRecord, entries []catalog.CodeEntry) *ValidationError {
	attempted := []string{}
	for _, c := range []string{rec.ProductCode, rec.ProductCodeAlt} {
		if strings.TrimSpace(c) != "" {
			attempted = append(attempted, strings.TrimSpace(c))
		}
	}

	message := "no recipe matches the product code"
	if len(attempted) == 0 {
		message = "record has no product code"
	}

	verr := &ValidationError{
		RowNumber:   rec.RowNumber,
		Type:        ErrRecipeNotFound,
		Field:       "product_code",
		Value:       strings.Join(attempted, " / "),
		Message:     fmt.Sprintf("%s (attempted: %s)", message, strings.Join(attempted, ", ")),
		Recoverable: true,
	}
	if len(attempted) == 0 {
		verr.Message = message
	}

	if suggestions := nearestCodes(attempted, entries); len(suggestions) > 0 {
		verr.Suggestion = suggestions
	}
	return verr
}

// nearestCodes ranks indexed codes by edit distance to the attempted codes so
// the reviewer sees likely correction candidates.
func nearestCodes(attempted []string, entries []catalog.CodeEntry) []CodeSuggestion {
	if len(attempted) == 0 || len(entries) == 0 {
		return nil
	}

	suggestions := make([]CodeSuggestion, 0, len(entries))
	for _, e := range entries {
		best := -1
		for _, code := range attempted {
			if d := fuzzy.EditDistance(normalize.Text(code), e.Code); best < 0 || d < best {
				best = d
			}
		}
		suggestions = append(suggestions, CodeSuggestion{Code: e.Code, RecipeID: e.Recipe.ID, Distance: best})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Distance < suggestions[j].Distance
	})
	if len(suggestions) > maxCodeSuggestions {
		suggestions = suggestions[:maxCodeSuggestions]
	}
	return suggestions
}
