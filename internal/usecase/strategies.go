package usecase

import (
	"context"
	"strings"

	"github.com/lenscart/backend/internal/domain"
)

// Strategy is one precision tier of the product search chain. A strategy
// whose preconditions are not met returns an empty result, not an error;
// errors are reserved for query-level faults.
type Strategy interface {
	Name() string
	Search(ctx context.Context, store domain.CatalogStore, ident *domain.Identification, limit int) ([]domain.ProductMatch, error)
}

// defaultStrategies returns the chain in fixed order of decreasing
// evidentiary precision.
func defaultStrategies() []Strategy {
	return []Strategy{
		exactBrandCategoryStrategy{},
		categoryKeywordStrategy{},
		keywordStrategy{},
		tagStrategy{},
	}
}

// exactBrandCategoryStrategy matches in-stock products whose brand and
// category both equal the identification's, case-insensitively.
type exactBrandCategoryStrategy struct{}

func (exactBrandCategoryStrategy) Name() string { return "exact_brand_category" }

func (exactBrandCategoryStrategy) Search(
	ctx context.Context,
	store domain.CatalogStore,
	ident *domain.Identification,
	limit int,
) ([]domain.ProductMatch, error) {
	if ident.Brand == "" || ident.Category == "" {
		return nil, nil
	}

	products, err := store.QueryProducts(ctx, domain.ProductQuery{
		Brand:       ident.Brand,
		Category:    ident.Category,
		InStockOnly: true,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]domain.ProductMatch, 0, len(products))
	for _, p := range products {
		// Reason cites the catalog's canonical casing, not the
		// identification's guess.
		matches = append(matches, domain.ProductMatch{
			Product:         p,
			SimilarityScore: scoreExactMatch,
			MatchReason:     exactMatchReason(p.Brand, p.Category),
		})
	}
	return matches, nil
}

// categoryKeywordStrategy matches in-stock products in the identification's
// category whose name or description contains one of the leading search
// terms. Rows sharing the identification's brand sort first and earn a
// score bonus.
type categoryKeywordStrategy struct{}

func (categoryKeywordStrategy) Name() string { return "category_keyword" }

func (categoryKeywordStrategy) Search(
	ctx context.Context,
	store domain.CatalogStore,
	ident *domain.Identification,
	limit int,
) ([]domain.ProductMatch, error) {
	terms := normalizeSearchTerms(ident.SearchTerms)
	if ident.Category == "" || len(terms) == 0 {
		return nil, nil
	}

	products, err := store.QueryProducts(ctx, domain.ProductQuery{
		Category:    ident.Category,
		Terms:       terms,
		PreferBrand: ident.Brand,
		InStockOnly: true,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]domain.ProductMatch, 0, len(products))
	for _, p := range products {
		bonus := 0.0
		if ident.Brand != "" && strings.EqualFold(p.Brand, ident.Brand) {
			bonus = brandBonus
		}
		matches = append(matches, domain.ProductMatch{
			Product:         p,
			SimilarityScore: categoryKeywordScore(bonus),
			MatchReason:     reasonCategoryKeyword,
		})
	}
	return matches, nil
}

// keywordStrategy matches in-stock products whose name, description, or
// brand contains one of the leading search terms. No category constraint:
// broader recall, lower precision.
type keywordStrategy struct{}

func (keywordStrategy) Name() string { return "keyword" }

func (keywordStrategy) Search(
	ctx context.Context,
	store domain.CatalogStore,
	ident *domain.Identification,
	limit int,
) ([]domain.ProductMatch, error) {
	terms := normalizeSearchTerms(ident.SearchTerms)
	if len(terms) == 0 {
		return nil, nil
	}

	products, err := store.QueryProducts(ctx, domain.ProductQuery{
		Terms:       terms,
		SearchBrand: true,
		InStockOnly: true,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]domain.ProductMatch, 0, len(products))
	for _, p := range products {
		matches = append(matches, domain.ProductMatch{
			Product:         p,
			SimilarityScore: scoreKeyword,
			MatchReason:     reasonKeyword,
		})
	}
	return matches, nil
}

// tagStrategy matches in-stock products by tag equality against the leading
// search terms, ranked by how many terms matched. Last and weakest tier: a
// query fault here (e.g. a catalog without a tag table) counts as no
// candidates rather than failing the search.
type tagStrategy struct{}

func (tagStrategy) Name() string { return "tag" }

func (tagStrategy) Search(
	ctx context.Context,
	store domain.CatalogStore,
	ident *domain.Identification,
	limit int,
) ([]domain.ProductMatch, error) {
	terms := lowercaseTerms(normalizeSearchTerms(ident.SearchTerms))
	if len(terms) == 0 {
		return nil, nil
	}

	rows, err := store.QueryTagMatches(ctx, terms, limit)
	if err != nil {
		return nil, nil
	}
	if len(rows) == 0 {
		return nil, nil
	}

	maxTags := 1
	for _, row := range rows {
		if row.TagMatches > maxTags {
			maxTags = row.TagMatches
		}
	}

	matches := make([]domain.ProductMatch, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, domain.ProductMatch{
			Product:         row.Product,
			SimilarityScore: tagScore(row.TagMatches, maxTags),
			MatchReason:     tagMatchReason(row.TagMatches),
		})
	}
	return matches, nil
}
