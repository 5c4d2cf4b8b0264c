package domain

// Search outcome statuses. Exactly one applies to every search.
const (
	StatusFound    = "found"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// SearchResponse is the envelope returned for every visual match request.
// SearchTime is wall-clock seconds spent inside the engine. StrategyUsed is
// the 1-based precision tier that produced the candidates, 0 when none did.
type SearchResponse struct {
	Status          string          `json:"status"`
	Message         string          `json:"message"`
	Identification  *Identification `json:"identification,omitempty"`
	SimilarProducts []ProductMatch  `json:"similar_products"`
	TotalFound      int             `json:"total_found"`
	SearchTime      float64         `json:"search_time"`
	StrategyUsed    int             `json:"strategy_used,omitempty"`
}
