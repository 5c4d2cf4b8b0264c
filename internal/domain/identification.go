package domain

// Identification is the structured guess about the product shown in an
// image, produced by the vision service. Matching consumes it as-is.
type Identification struct {
	IdentifiedObject string         `json:"identified_object"`
	Category         string         `json:"category,omitempty"`
	Brand            string         `json:"brand,omitempty"`
	ObjectType       string         `json:"type,omitempty"`
	Confidence       float64        `json:"confidence"`
	SearchTerms      []string       `json:"search_terms"`
	Attributes       map[string]any `json:"attributes,omitempty"`
}

// KnownCategories is the fixed category set the vision prompt chooses from.
// Matching never assumes a category is one of these; an unrecognized value
// simply matches nothing.
var KnownCategories = []string{
	"Electronics",
	"Fashion",
	"Home & Living",
	"Beauty & Health",
	"Sports & Outdoors",
}

// FailedIdentification is the record used when vision analysis fails
// entirely. It carries zero confidence and no search terms, so the strategy
// chain runs and reports not_found rather than erroring the request.
func FailedIdentification() *Identification {
	return &Identification{
		IdentifiedObject: "Analysis Failed",
		ObjectType:       "unknown",
		Confidence:       0,
		SearchTerms:      []string{},
		Attributes:       map[string]any{"error": "Failed to analyze image"},
	}
}
