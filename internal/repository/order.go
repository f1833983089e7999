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

const orderSelect = `
	SELECT o.id, o.customer_id, o.total_amount::text, o.order_date,
	       c.id, c.name, c.email, COALESCE(c.phone, ''), c.created_at
	FROM orders o
	JOIN customers c ON c.id = o.customer_id
`

// CreateOrder inserts an order and its product links in one transaction.
// A customer or product deleted since the caller checked it surfaces as
// ErrCustomerNotFound or ErrProductNotFound.
func (r *Repository) CreateOrder(ctx context.Context, o *model.Order) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO orders (customer_id, total_amount, order_date)
			VALUES ($1, $2::numeric, $3)
			RETURNING id
		`
		err := tx.QueryRow(ctx, query, o.CustomerID, o.TotalAmount.String(), o.OrderDate).Scan(&o.ID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		batch := &pgx.Batch{}
		for _, p := range o.Products {
			batch.Queue(`INSERT INTO order_products (order_id, product_id) VALUES ($1, $2)`, o.ID, p.ID)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range o.Products {
			if _, err := results.Exec(); err != nil {
				results.Close()
				if isForeignKeyViolation(err) {
					return fmt.Errorf("%w: %d", ErrProductNotFound, o.Products[i].ID)
				}
				return fmt.Errorf("link product %d: %w", o.Products[i].ID, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to link products: %w", err)
		}
		return nil
	})
}

// GetOrder retrieves an order with its customer and products.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.loadOrderProducts(ctx, []*model.Order{o}); err != nil {
		return nil, err
	}

	return o, nil
}

// ListOrders retrieves orders matching filter within page.
func (r *Repository) ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]*model.Order, error) {
	w := &whereBuilder{}
	if filter.CustomerName != "" {
		w.add(`LOWER(c.name) LIKE ? ESCAPE '\'`, ContainsPattern(filter.CustomerName))
	}
	if filter.ProductName != "" {
		w.add(`EXISTS (
			SELECT 1 FROM order_products op
			JOIN products p ON p.id = op.product_id
			WHERE op.order_id = o.id AND LOWER(p.name) LIKE ? ESCAPE '\'
		)`, ContainsPattern(filter.ProductName))
	}
	if filter.TotalMin != nil {
		w.add("o.total_amount >= ?::numeric", filter.TotalMin.String())
	}
	if filter.TotalMax != nil {
		w.add("o.total_amount <= ?::numeric", filter.TotalMax.String())
	}
	if filter.OrderedAfter != nil {
		w.add("o.order_date >= ?", *filter.OrderedAfter)
	}
	if filter.OrderedBefore != nil {
		w.add("o.order_date <= ?", *filter.OrderedBefore)
	}

	query := orderSelect + w.sql() +
		` ORDER BY ` + OrderClause(filter.OrderBy, OrderOrdering, "o.id") +
		limitOffset(w, page.Limit, page.Offset)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.loadOrderProducts(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// loadOrderProducts fills Products for each order with a single query.
func (r *Repository) loadOrderProducts(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := `
		SELECT op.order_id, p.id, p.name, p.price::text, p.stock, p.created_at
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = ANY($1::bigint[])
		ORDER BY op.order_id, p.id
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load order products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			p       model.Product
			price   string
		)
		if err := rows.Scan(&orderID, &p.ID, &p.Name, &price, &p.Stock, &p.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan order product: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("parse price %q: %w", price, err)
		}
		if o, ok := byID[orderID]; ok {
			o.Products = append(o.Products, &p)
		}
	}

	return rows.Err()
}

// scanOrder scans a joined order/customer row.
func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o     model.Order
		c     model.Customer
		total string
	)
	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&total,
		&o.OrderDate,
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total %q: %w", total, err)
	}
	o.Customer = &c

	return &o, nil
}
