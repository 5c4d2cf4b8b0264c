package usecase

import "strings"

// normalizeSearchTerms trims, drops empty and duplicate terms
// (case-insensitively, keeping the first occurrence), and caps the list at
// maxSearchTerms. Order is preserved: earlier terms are the most salient.
func normalizeSearchTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	var out []string
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, term)
		if len(out) == maxSearchTerms {
			break
		}
	}
	return out
}

// lowercaseTerms returns a lowercased copy, for stores that compare tags
// against pre-lowered values.
func lowercaseTerms(terms []string) []string {
	out := make([]string, len(terms))
	for i, term := range terms {
		out[i] = strings.ToLower(term)
	}
	return out
}
