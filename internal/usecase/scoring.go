package usecase

import "fmt"

// Similarity bands per precision tier. The chain's stop-on-first-success
// policy keeps a lower tier from ever outranking a higher one.
const (
	scoreExactMatch   = 0.95 // tier 1: exact brand + category
	scoreCategoryBase = 0.8  // tier 2 base, before brand bonus
	brandBonus        = 0.2  // tier 2: identification brand equals row brand
	scoreKeyword      = 0.6  // tier 3: keyword containment
	tagScoreCeiling   = 0.6  // tier 4: best possible tag score
	tagScoreFloor     = 0.2  // tier 4: worst possible tag score
)

// maxSearchTerms caps how many identification search terms a strategy
// consults; the first terms are assumed most salient.
const maxSearchTerms = 3

func categoryKeywordScore(bonus float64) float64 {
	score := scoreCategoryBase + bonus
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// tagScore scales the per-product tag match count against the best count in
// the result set, into the [tagScoreFloor, tagScoreCeiling] band.
func tagScore(tagMatches, maxTags int) float64 {
	if maxTags < 1 {
		maxTags = 1
	}
	score := float64(tagMatches) / float64(maxTags) * tagScoreCeiling
	if score < tagScoreFloor {
		score = tagScoreFloor
	}
	return score
}

func exactMatchReason(brand, category string) string {
	return fmt.Sprintf("Exact brand (%s) and category (%s) match", brand, category)
}

func tagMatchReason(tagMatches int) string {
	return fmt.Sprintf("Tag-based match (%d matching tags)", tagMatches)
}

const (
	reasonCategoryKeyword = "Category and keyword match"
	reasonKeyword         = "Keyword search match"
)
