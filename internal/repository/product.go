package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/graphcrm/graphcrm/internal/model"
)

// Prices are read as text so no precision is lost on the way to decimal.Decimal.
const productColumns = `id, name, price::text, stock, created_at`

// CreateProduct inserts a new product and sets its ID.
func (r *Repository) CreateProduct(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (name, price, stock, created_at)
		VALUES ($1, $2::numeric, $3, $4)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		p.Name,
		p.Price.String(),
		p.Stock,
		p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetProduct retrieves a product by ID.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// GetProductsByIDs retrieves the products whose IDs are in ids.
// Missing IDs are silently skipped; callers compare lengths.
func (r *Repository) GetProductsByIDs(ctx context.Context, ids []int64) ([]*model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1::bigint[]) ORDER BY id`

	rows, err := r.pool.Query(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get products by IDs: %w", err)
	}
	return collectProducts(rows)
}

// ListProducts retrieves products matching filter within page.
func (r *Repository) ListProducts(ctx context.Context, filter model.ProductFilter, page model.Page) ([]*model.Product, error) {
	w := &whereBuilder{}
	if filter.Name != "" {
		w.add(`LOWER(name) LIKE ? ESCAPE '\'`, ContainsPattern(filter.Name))
	}
	if filter.PriceMin != nil {
		w.add("price >= ?::numeric", filter.PriceMin.String())
	}
	if filter.PriceMax != nil {
		w.add("price <= ?::numeric", filter.PriceMax.String())
	}
	if filter.StockMin != nil {
		w.add("stock >= ?", *filter.StockMin)
	}
	if filter.StockMax != nil {
		w.add("stock <= ?", *filter.StockMax)
	}

	query := `SELECT ` + productColumns + ` FROM products` + w.sql() +
		` ORDER BY ` + OrderClause(filter.OrderBy, ProductOrdering, "id") +
		limitOffset(w, page.Limit, page.Offset)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]*model.Product, error) {
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// scanProduct scans a single row into a Product model.
func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p     model.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Stock, &p.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = parsed

	return &p, nil
}
