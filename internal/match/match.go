// Package match holds the two matching policies run against extracted
// tokens: exact substring containment and weighted-ratio fuzzy similarity.
package match

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// ratioThreshold is the WRatio score a token must strictly exceed to count
// as a fuzzy hit, and lengthSlack is how much shorter than the query term a
// token may be. Together they encode the tool's precision/recall tradeoff
// and are deliberately not configurable.
const (
	ratioThreshold = 90
	lengthSlack    = 1
)

// Specific reports whether the candidate terms satisfy the query terms by
// substring containment: a candidate hits a query term when the candidate is
// contained within it. Any-mode returns on the first hit; all-mode requires
// a single candidate to be contained in every query term.
func Specific(terms, queryTerms []string, allMatch bool) bool {
	for _, term := range terms {
		hits := 0
		for _, q := range queryTerms {
			if !strings.Contains(q, term) {
				continue
			}
			if !allMatch {
				return true
			}
			hits++
		}
		if allMatch && hits == len(queryTerms) {
			return true
		}
	}
	return false
}

// Ratio reports whether the token list satisfies the query terms under the
// weighted-ratio scorer. Any-mode returns on the first hit; all-mode
// requires every query term to be hit by at least one token.
func Ratio(tokens, queryTerms []string, allMatch bool) bool {
	if !allMatch {
		for _, tok := range tokens {
			for _, q := range queryTerms {
				if ratioHit(tok, q) {
					return true
				}
			}
		}
		return false
	}

	satisfied := make([]bool, len(queryTerms))
	MarkRatioHits(tokens, queryTerms, satisfied)
	return AllSatisfied(satisfied)
}

// MarkRatioHits sets satisfied[i] for every query term hit by some token.
// Callers accumulate all-match state across message parts by passing the
// same slice for each part.
func MarkRatioHits(tokens, queryTerms []string, satisfied []bool) {
	for i, q := range queryTerms {
		if satisfied[i] {
			continue
		}
		for _, tok := range tokens {
			if ratioHit(tok, q) {
				satisfied[i] = true
				break
			}
		}
	}
}

// AllSatisfied reports whether every query term has been hit. An empty
// slice is unsatisfied; queries are validated non-empty before dispatch.
func AllSatisfied(satisfied []bool) bool {
	if len(satisfied) == 0 {
		return false
	}
	for _, s := range satisfied {
		if !s {
			return false
		}
	}
	return true
}

// ratioHit reports whether the token counts as a fuzzy hit for the query
// term. The length guard suppresses spurious high-ratio matches on tokens
// much shorter than the term.
func ratioHit(token, term string) bool {
	if len(token) < len(term)-lengthSlack {
		return false
	}
	return aboveThreshold(fuzzy.WRatio(token, term))
}

// aboveThreshold applies the strict score cutoff: exactly 90 is not a hit.
func aboveThreshold(score int) bool {
	return score > ratioThreshold
}
