package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/repository"
)

// CreateOrderInput defines input for creating an order.
// A nil OrderDate defaults to now.
type CreateOrderInput struct {
	CustomerID int64
	ProductIDs []int64
	OrderDate  *time.Time
}

// CreateOrder validates the customer and product references, computes the
// total from the product prices, and persists the order.
func (s *CRMService) CreateOrder(ctx context.Context, input CreateOrderInput) (*model.Order, error) {
	ids := uniqueIDs(input.ProductIDs)
	if len(ids) == 0 {
		return nil, s.rejected(invalid("productIds", "At least one product is required"))
	}

	customer, err := s.store.GetCustomer(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, s.rejected(invalid("customerId", "Invalid customer ID"))
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if missing := missingIDs(ids, products); len(missing) > 0 {
		return nil, s.rejected(invalid("productIds", fmt.Sprintf("Invalid product ID: %d", missing[0])))
	}

	orderDate := s.clock.Now().UTC()
	if input.OrderDate != nil {
		orderDate = input.OrderDate.UTC()
	}

	order := &model.Order{
		CustomerID:  customer.ID,
		Customer:    customer,
		Products:    products,
		TotalAmount: model.SumPrices(products),
		OrderDate:   orderDate,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		// References deleted between the checks above and the insert.
		switch {
		case errors.Is(err, repository.ErrCustomerNotFound):
			return nil, s.rejected(invalid("customerId", "Invalid customer ID"))
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, s.rejected(invalid("productIds", "Invalid product ID"))
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.metrics.IncOrderCreated()

	return order, nil
}

// GetOrder retrieves an order by ID.
func (s *CRMService) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListOrders retrieves orders matching filter within page.
func (s *CRMService) ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]*model.Order, error) {
	return s.store.ListOrders(ctx, filter, page)
}

// uniqueIDs drops duplicates while keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []int64, products []*model.Product) []int64 {
	found := make(map[int64]struct{}, len(products))
	for _, p := range products {
		found[p.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
