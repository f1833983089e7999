package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/graphcrm/graphcrm/internal/model"
)

// DeleteInactiveCustomers deletes customers created before cutoff that have
// never placed an order. Returns the number of deleted rows.
func (r *Repository) DeleteInactiveCustomers(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM customers c
		WHERE c.created_at < $1
		  AND NOT EXISTS (SELECT 1 FROM orders o WHERE o.customer_id = c.id)
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete inactive customers: %w", err)
	}

	return result.RowsAffected(), nil
}

// RestockLowStock adds amount to every product whose stock is below
// threshold and returns the updated products.
func (r *Repository) RestockLowStock(ctx context.Context, threshold, amount int) ([]*model.Product, error) {
	query := `
		UPDATE products
		SET stock = stock + $2
		WHERE stock < $1
		RETURNING ` + productColumns

	rows, err := r.pool.Query(ctx, query, threshold, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to restock products: %w", err)
	}
	return collectProducts(rows)
}

// Report aggregates customer and order totals.
func (r *Repository) Report(ctx context.Context) (*model.Report, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total_amount), 0)::text FROM orders)
	`

	var (
		report  model.Report
		revenue string
	)
	if err := r.pool.QueryRow(ctx, query).Scan(&report.Customers, &report.Orders, &revenue); err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	parsed, err := decimal.NewFromString(revenue)
	if err != nil {
		return nil, fmt.Errorf("parse revenue %q: %w", revenue, err)
	}
	report.Revenue = parsed

	return &report, nil
}
