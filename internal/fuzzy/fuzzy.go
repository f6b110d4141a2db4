// Package fuzzy implements the string comparisons used by recipe lookup and
// pricing-option scoring. The thresholds and score values here are design
// constants shared with the reviewer UI; they are not tunable.
package fuzzy

import (
	"strings"

	"github.com/rmxops/plantctl/internal/normalize"
)

// maxEditDistance is the largest Levenshtein distance still considered a match.
const maxEditDistance = 2

// EditDistance returns the Levenshtein distance between a and b using the
// classic DP matrix. Inputs are short product codes and names, so the
// O(len(a)*len(b)) cost is irrelevant.
func EditDistance(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	d := make([][]int, la+1)
	for i := range d {
		d[i] = make([]int, lb+1)
		d[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j] = j
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
		}
	}
	return d[la][lb]
}

// IsFuzzyMatch reports whether input and candidate refer to the same code:
// equal after normalization, one contains the other, or edit distance <= 2.
func IsFuzzyMatch(input, candidate string) bool {
	in := normalize.Text(input)
	cand := normalize.Text(candidate)
	if in == "" || cand == "" {
		return false
	}
	if in == cand {
		return true
	}
	if strings.Contains(in, cand) || strings.Contains(cand, in) {
		return true
	}
	return EditDistance(in, cand) <= maxEditDistance
}

// ClientSimilarity scores how well an imported client name matches a catalog
// client display name, in [0,1]:
//
//	1.0  exact normalized match
//	0.8  substring containment either direction
//	0.6..0.8  proportional to the fraction of significant input words
//	          (length > 2) with a containment match among candidate words
//	0    no word overlap and neither contains the other
func ClientSimilarity(inputName, candidateName string) float64 {
	in := normalize.Text(inputName)
	cand := normalize.Text(candidateName)

	if in == cand {
		return 1.0
	}
	if in == "" || cand == "" {
		return 0
	}
	if strings.Contains(in, cand) || strings.Contains(cand, in) {
		return 0.8
	}

	candWords := strings.Fields(cand)
	var significant, matched int
	for _, w := range strings.Fields(in) {
		if len(w) <= 2 {
			continue
		}
		significant++
		for _, cw := range candWords {
			if strings.Contains(cw, w) || strings.Contains(w, cw) {
				matched++
				break
			}
		}
	}
	if significant == 0 || matched == 0 {
		return 0
	}
	return 0.6 + 0.2*float64(matched)/float64(significant)
}

// SiteSimilarity scores how well an imported site name matches a pricing
// option's site name: 1.0 exact, 0.9 containment, 0.1 otherwise. The floor is
// 0.1 rather than 0 so an unspecified site never categorically excludes a
// pricing option; an empty name on either side also scores 0.1.
func SiteSimilarity(inputSite, candidateSite string) float64 {
	in := normalize.Text(inputSite)
	cand := normalize.Text(candidateSite)

	if in == "" || cand == "" {
		return 0.1
	}
	if in == cand {
		return 1.0
	}
	if strings.Contains(in, cand) || strings.Contains(cand, in) {
		return 0.9
	}
	return 0.1
}
