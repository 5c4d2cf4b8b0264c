package domain

import (
	"context"
	"time"
)

// CatalogStore defines the read operations the matching engine needs from
// the product catalog. Implementations must be safe for concurrent use.
type CatalogStore interface {
	// Ping reports whether the store is reachable at all. A failure here is
	// fatal for a search; per-query failures are not.
	Ping(ctx context.Context) error

	QueryProducts(ctx context.Context, q ProductQuery) ([]Product, error)

	// QueryTagMatches returns in-stock products having at least one tag equal
	// to one of the given lowercase terms, with the per-product match count.
	QueryTagMatches(ctx context.Context, terms []string, limit int) ([]TagMatch, error)

	ListProducts(ctx context.Context, f ProductFilter) ([]Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (CatalogStats, error)
}

// VisionClient defines the interface for identifying the product in an image
type VisionClient interface {
	IdentifyProduct(ctx context.Context, image []byte) (*Identification, error)
}

// ImageProcessor validates and normalizes an uploaded image
type ImageProcessor interface {
	Process(data []byte) ([]byte, error)
}

// IdentificationCache stores vision results keyed by image content hash
type IdentificationCache interface {
	Get(ctx context.Context, key string) (*Identification, bool)
	Set(ctx context.Context, key string, ident *Identification, ttl time.Duration)
}
