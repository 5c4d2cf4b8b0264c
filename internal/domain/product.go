package domain

import "time"

// Product represents a single catalog product row
type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	Price       float64    `json:"price"`
	Brand       string     `json:"brand"`
	ImageURL    string     `json:"image_url,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	ReviewCount *int       `json:"review_count,omitempty"`
	InStock     bool       `json:"in_stock"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// ProductMatch is a catalog product annotated with how closely it matches
// an identification, as judged by the strategy that found it
type ProductMatch struct {
	Product
	SimilarityScore float64 `json:"similarity_score"`
	MatchReason     string  `json:"match_reason,omitempty"`
}

// TagMatch pairs a product with the number of searched terms that matched its tags
type TagMatch struct {
	Product    Product
	TagMatches int
}

// ProductQuery is a conjunction of simple comparisons resolved by the catalog
// store. Zero-valued fields impose no constraint.
type ProductQuery struct {
	Brand       string   // case-insensitive equality
	Category    string   // case-insensitive equality
	Terms       []string // case-insensitive substring, OR across terms
	SearchBrand bool     // include brand among the substring-searched fields
	PreferBrand string   // order rows whose brand equals this before the rest
	InStockOnly bool
	Limit       int
}

// ProductFilter describes the catalog listing filter. Pointer fields
// distinguish "unset" from a legitimate zero value.
type ProductFilter struct {
	Category    string
	Brand       string
	MinPrice    *float64
	MaxPrice    *float64
	MinRating   *float64
	InStockOnly bool
	Limit       int
	Offset      int
}

// CatalogStats holds aggregate catalog counters. All fields are zero, never
// null, for an empty catalog.
type CatalogStats struct {
	TotalProducts   int     `json:"total_products"`
	TotalCategories int     `json:"total_categories"`
	TotalBrands     int     `json:"total_brands"`
	AveragePrice    float64 `json:"average_price"`
	AverageRating   float64 `json:"average_rating"`
	InStockProducts int     `json:"in_stock_products"`
}
