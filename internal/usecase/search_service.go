package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lenscart/backend/internal/domain"
)

// Listing pagination bounds, enforced regardless of what the caller asks for.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// SearchConfig holds configuration for the search service
type SearchConfig struct {
	DefaultLimit int
}

// SearchService drives the strategy chain over the catalog store and exposes
// the plain catalog read operations. It holds no per-request state and is
// safe for concurrent use.
type SearchService struct {
	store        domain.CatalogStore
	strategies   []Strategy
	log          *zap.Logger
	defaultLimit int
}

// NewSearchService creates a search service with the default strategy chain
func NewSearchService(store domain.CatalogStore, log *zap.Logger, config SearchConfig) *SearchService {
	limit := config.DefaultLimit
	if limit <= 0 {
		limit = defaultListLimit
	}
	return &SearchService{
		store:        store,
		strategies:   defaultStrategies(),
		log:          log,
		defaultLimit: limit,
	}
}

// FindSimilarProducts tries each strategy in precision order and returns the
// first non-empty candidate list. A strategy's query fault is logged and
// treated as zero candidates; only an unreachable store aborts the search,
// before any strategy runs. The returned envelope always carries the total
// elapsed seconds.
func (s *SearchService) FindSimilarProducts(
	ctx context.Context,
	ident *domain.Identification,
	limit int,
) *domain.SearchResponse {
	start := time.Now()
	if limit <= 0 {
		limit = s.defaultLimit
	}

	if err := s.store.Ping(ctx); err != nil {
		s.log.Error("catalog store unreachable", zap.Error(err))
		return &domain.SearchResponse{
			Status:          domain.StatusError,
			Message:         fmt.Sprintf("Database error: %v", err),
			Identification:  ident,
			SimilarProducts: []domain.ProductMatch{},
			SearchTime:      time.Since(start).Seconds(),
		}
	}

	for i, strategy := range s.strategies {
		matches, err := strategy.Search(ctx, s.store, ident, limit)
		if err != nil {
			s.log.Warn("search strategy failed",
				zap.Int("tier", i+1),
				zap.String("strategy", strategy.Name()),
				zap.Error(err))
			continue
		}
		if len(matches) == 0 {
			continue
		}
		if len(matches) > limit {
			matches = matches[:limit]
		}

		elapsed := time.Since(start).Seconds()
		s.log.Info("products matched",
			zap.Int("tier", i+1),
			zap.String("strategy", strategy.Name()),
			zap.Int("count", len(matches)),
			zap.Float64("seconds", elapsed))

		return &domain.SearchResponse{
			Status:          domain.StatusFound,
			Message:         fmt.Sprintf("Found %d similar products", len(matches)),
			Identification:  ident,
			SimilarProducts: matches,
			TotalFound:      len(matches),
			SearchTime:      elapsed,
			StrategyUsed:    i + 1,
		}
	}

	return &domain.SearchResponse{
		Status:          domain.StatusNotFound,
		Message:         "This product is not available in the database",
		Identification:  ident,
		SimilarProducts: []domain.ProductMatch{},
		SearchTime:      time.Since(start).Seconds(),
	}
}

// ListProducts returns a filtered catalog listing with pagination clamped to
// the [1, 100] limit range and a non-negative offset.
func (s *SearchService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = s.defaultLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListProducts(ctx, filter)
}

// Categories returns the distinct catalog categories in ascending order
func (s *SearchService) Categories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

// Stats returns aggregate catalog statistics
func (s *SearchService) Stats(ctx context.Context) (domain.CatalogStats, error) {
	return s.store.Stats(ctx)
}

// SearchByText filters a catalog listing by substring over name,
// description, brand, and category. Plain containment, same as the match
// strategies use; no scoring is involved.
func (s *SearchService) SearchByText(ctx context.Context, query, category string, limit int) ([]domain.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	products, err := s.store.ListProducts(ctx, domain.ProductFilter{
		Category:    category,
		InStockOnly: true,
		Limit:       maxListLimit,
	})
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	matched := make([]domain.Product, 0, limit)
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Brand), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			matched = append(matched, p)
			if len(matched) == limit {
				break
			}
		}
	}
	return matched, nil
}
