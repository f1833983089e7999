package service

import (
	"context"
	"fmt"
	"time"

	"github.com/graphcrm/graphcrm/internal/model"
)

// Maintenance defaults.
const (
	DefaultInactiveAfter     = 365 * 24 * time.Hour
	DefaultLowStockThreshold = 10
	DefaultRestockAmount     = 10
)

// CleanupInactiveCustomers deletes customers created more than inactiveAfter
// ago that have never placed an order.
func (s *CRMService) CleanupInactiveCustomers(ctx context.Context, inactiveAfter time.Duration) (int64, error) {
	if inactiveAfter <= 0 {
		inactiveAfter = DefaultInactiveAfter
	}

	cutoff := s.clock.Now().UTC().Add(-inactiveAfter)
	deleted, err := s.store.DeleteInactiveCustomers(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup inactive customers: %w", err)
	}
	return deleted, nil
}

// RestockLowStock raises stock by amount for every product below threshold.
func (s *CRMService) RestockLowStock(ctx context.Context, threshold, amount int) ([]*model.Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	if amount <= 0 {
		amount = DefaultRestockAmount
	}

	products, err := s.store.RestockLowStock(ctx, threshold, amount)
	if err != nil {
		return nil, fmt.Errorf("restock low stock: %w", err)
	}
	return products, nil
}

// Report returns customer, order and revenue totals.
func (s *CRMService) Report(ctx context.Context) (*model.Report, error) {
	report, err := s.store.Report(ctx)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	return report, nil
}
