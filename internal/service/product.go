package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/repository"
)

// maxPrice fits NUMERIC(10,2).
var maxPrice = decimal.New(1, 8)

// CreateProductInput defines input for creating a product.
// A nil Stock defaults to zero.
type CreateProductInput struct {
	Name  string
	Price decimal.Decimal
	Stock *int
}

// CreateProduct validates input and persists a new product.
func (s *CRMService) CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	// Stored with two decimals, so the bounds apply to the rounded value.
	price := input.Price.Round(2)
	stock := 0
	if input.Stock != nil {
		stock = *input.Stock
	}

	switch {
	case name == "":
		return nil, s.rejected(invalid("name", "Name is required"))
	case len(name) > maxNameLength:
		return nil, s.rejected(invalid("name", fmt.Sprintf("Name must be at most %d characters", maxNameLength)))
	case !price.IsPositive():
		return nil, s.rejected(invalid("price", "Price must be positive"))
	case price.GreaterThanOrEqual(maxPrice):
		return nil, s.rejected(invalid("price", "Price is too large"))
	case stock < 0:
		return nil, s.rejected(invalid("stock", "Stock cannot be negative"))
	}

	product := &model.Product{
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: s.clock.Now().UTC(),
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.metrics.IncProductCreated()

	return product, nil
}

// GetProduct retrieves a product by ID.
func (s *CRMService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// ListProducts retrieves products matching filter within page.
func (s *CRMService) ListProducts(ctx context.Context, filter model.ProductFilter, page model.Page) ([]*model.Product, error) {
	return s.store.ListProducts(ctx, filter, page)
}
