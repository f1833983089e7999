package gormrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/graphcrm/graphcrm/internal/model"
)

// DeleteInactiveCustomers deletes customers created before cutoff that have
// never placed an order.
func (r *Repository) DeleteInactiveCustomers(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", utc(cutoff)).
		Where("NOT EXISTS (SELECT 1 FROM orders o WHERE o.customer_id = customers.id)").
		Delete(&customerRow{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete inactive customers: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RestockLowStock adds amount to every product whose stock is below
// threshold and returns the updated products.
func (r *Repository) RestockLowStock(ctx context.Context, threshold, amount int) ([]*model.Product, error) {
	var rows []productRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Model(&productRow{}).Where("stock < ?", threshold).Order("id").Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		err := tx.Model(&productRow{}).
			Where("id IN ?", ids).
			UpdateColumn("stock", gorm.Expr("stock + ?", amount)).Error
		if err != nil {
			return err
		}

		return tx.Where("id IN ?", ids).Order("id").Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to restock products: %w", err)
	}
	return productModels(rows), nil
}

// Report aggregates customer and order totals.
func (r *Repository) Report(ctx context.Context) (*model.Report, error) {
	var report model.Report
	db := r.db.WithContext(ctx)

	if err := db.Model(&customerRow{}).Count(&report.Customers).Error; err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	if err := db.Model(&orderRow{}).Count(&report.Orders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var revenue decimal.NullDecimal
	if err := db.Model(&orderRow{}).Select("SUM(total_amount)").Row().Scan(&revenue); err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	report.Revenue = decimal.Zero
	if revenue.Valid {
		report.Revenue = revenue.Decimal.Round(2)
	}

	return &report, nil
}
