package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lenscart/backend/internal/domain"
)

const productColumns = `id, name, description, category, price, brand, image_url, rating, review_count, in_stock, created_at, updated_at`

// Store is the Postgres-backed catalog store. It only ever reads product
// data; writes happen through whatever seeds the catalog.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database handle
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens a pooled connection to the catalog database and verifies it is
// reachable.
func Open(dsn string, maxOpen, maxIdle int, maxLifetime time.Duration) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the product tables if they do not exist yet
func (s *Store) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	category TEXT NOT NULL,
	price NUMERIC(10,2) NOT NULL,
	brand TEXT NOT NULL,
	image_url TEXT,
	rating NUMERIC(3,2),
	review_count INTEGER,
	in_stock BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS product_tags (
	product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	tag TEXT NOT NULL,
	PRIMARY KEY (product_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products(LOWER(category));
CREATE INDEX IF NOT EXISTS idx_products_brand ON products(LOWER(brand));
CREATE INDEX IF NOT EXISTS idx_product_tags_tag ON product_tags(LOWER(tag));
`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	return nil
}

// Ping reports store reachability. The wrapped sentinel lets the engine tell
// a dead store apart from a single failed query.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// QueryProducts resolves a ProductQuery into SQL. Equality comparisons are
// case-insensitive; term conditions are substring containment OR-ed across
// terms and fields. NULLS LAST keeps unrated products at the bottom, the
// same placement MySQL's plain DESC gives.
func (s *Store) QueryProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Brand != "" {
		conds = append(conds, fmt.Sprintf("LOWER(brand) = LOWER(%s)", arg(q.Brand)))
	}
	if q.Category != "" {
		conds = append(conds, fmt.Sprintf("LOWER(category) = LOWER(%s)", arg(q.Category)))
	}
	if len(q.Terms) > 0 {
		var termConds []string
		for _, term := range q.Terms {
			p := arg("%" + strings.ToLower(term) + "%")
			cond := fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(COALESCE(description, '')) LIKE %s", p, p)
			if q.SearchBrand {
				cond += fmt.Sprintf(" OR LOWER(brand) LIKE %s", p)
			}
			cond += ")"
			termConds = append(termConds, cond)
		}
		conds = append(conds, "("+strings.Join(termConds, " OR ")+")")
	}
	if q.InStockOnly {
		conds = append(conds, "in_stock")
	}

	order := "rating DESC NULLS LAST, review_count DESC NULLS LAST"
	if q.PreferBrand != "" {
		order = fmt.Sprintf("(CASE WHEN LOWER(brand) = LOWER(%s) THEN 1 ELSE 0 END) DESC, %s", arg(q.PreferBrand), order)
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + order + " LIMIT " + arg(q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// QueryTagMatches joins products against their tags and counts, per
// product, how many of the given lowercase terms matched.
func (s *Store) QueryTagMatches(ctx context.Context, terms []string, limit int) ([]domain.TagMatch, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(terms))
	args := make([]any, 0, len(terms)+1)
	for i, term := range terms {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, term)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
SELECT p.id, p.name, p.description, p.category, p.price, p.brand, p.image_url,
	p.rating, p.review_count, p.in_stock, p.created_at, p.updated_at,
	COUNT(pt.tag) AS tag_matches
FROM products p
JOIN product_tags pt ON p.id = pt.product_id
WHERE LOWER(pt.tag) IN (%s)
AND p.in_stock
GROUP BY p.id
ORDER BY tag_matches DESC, p.rating DESC NULLS LAST, p.review_count DESC NULLS LAST
LIMIT $%d`, strings.Join(placeholders, ","), len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tag matches: %w", err)
	}
	defer rows.Close()

	var out []domain.TagMatch
	for rows.Next() {
		var (
			p   domain.Product
			raw scanRow
			n   int
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &raw.description, &p.Category, &raw.price, &p.Brand, &raw.imageURL,
			&raw.rating, &raw.reviewCount, &p.InStock, &raw.createdAt, &raw.updatedAt, &n,
		); err != nil {
			return nil, fmt.Errorf("scan tag match: %w", err)
		}
		raw.apply(&p)
		out = append(out, domain.TagMatch{Product: p, TagMatches: n})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag matches: %w", err)
	}
	return out, nil
}

// ListProducts returns a filtered, paginated listing ordered by rating desc,
// review count desc, price asc.
func (s *Store) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		conds = append(conds, fmt.Sprintf("LOWER(category) = LOWER(%s)", arg(f.Category)))
	}
	if f.Brand != "" {
		conds = append(conds, fmt.Sprintf("LOWER(brand) = LOWER(%s)", arg(f.Brand)))
	}
	if f.MinPrice != nil {
		conds = append(conds, fmt.Sprintf("price >= %s", arg(*f.MinPrice)))
	}
	if f.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("price <= %s", arg(*f.MaxPrice)))
	}
	if f.MinRating != nil {
		conds = append(conds, fmt.Sprintf("rating >= %s", arg(*f.MinRating)))
	}
	if f.InStockOnly {
		conds = append(conds, "in_stock")
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rating DESC NULLS LAST, review_count DESC NULLS LAST, price ASC"
	query += " LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ListCategories returns the distinct categories in ascending order
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// Stats returns aggregate catalog counters, all zero for an empty catalog
func (s *Store) Stats(ctx context.Context) (domain.CatalogStats, error) {
	const query = `
SELECT COUNT(*),
	COUNT(DISTINCT category),
	COUNT(DISTINCT brand),
	COALESCE(AVG(price), 0),
	COALESCE(AVG(rating), 0),
	COUNT(*) FILTER (WHERE in_stock)
FROM products`

	var stats domain.CatalogStats
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalProducts,
		&stats.TotalCategories,
		&stats.TotalBrands,
		&stats.AveragePrice,
		&stats.AverageRating,
		&stats.InStockProducts,
	)
	if err != nil {
		return domain.CatalogStats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

// scanRow holds the nullable and store-native numeric columns before they
// are normalized onto the domain product. NUMERIC values leave this layer
// as float64 only.
type scanRow struct {
	description sql.NullString
	imageURL    sql.NullString
	price       float64
	rating      sql.NullFloat64
	reviewCount sql.NullInt64
	createdAt   sql.NullTime
	updatedAt   sql.NullTime
}

func (r *scanRow) apply(p *domain.Product) {
	p.Description = r.description.String
	p.ImageURL = r.imageURL.String
	p.Price = r.price
	if r.rating.Valid {
		v := r.rating.Float64
		p.Rating = &v
	}
	if r.reviewCount.Valid {
		v := int(r.reviewCount.Int64)
		p.ReviewCount = &v
	}
	if r.createdAt.Valid {
		v := r.createdAt.Time
		p.CreatedAt = &v
	}
	if r.updatedAt.Valid {
		v := r.updatedAt.Time
		p.UpdatedAt = &v
	}
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	var out []domain.Product
	for rows.Next() {
		var (
			p   domain.Product
			raw scanRow
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &raw.description, &p.Category, &raw.price, &p.Brand, &raw.imageURL,
			&raw.rating, &raw.reviewCount, &p.InStock, &raw.createdAt, &raw.updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		raw.apply(&p)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}
