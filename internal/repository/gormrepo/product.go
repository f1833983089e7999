package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/repository"
)

// CreateProduct inserts a new product and sets its ID.
func (r *Repository) CreateProduct(ctx context.Context, p *model.Product) error {
	row := productRow{
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: utc(p.CreatedAt),
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	p.ID = row.ID
	return nil
}

// GetProduct retrieves a product by ID.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var row productRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return row.toModel(), nil
}

// GetProductsByIDs retrieves the products whose IDs are in ids.
func (r *Repository) GetProductsByIDs(ctx context.Context, ids []int64) ([]*model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []productRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get products by IDs: %w", err)
	}
	return productModels(rows), nil
}

// ListProducts retrieves products matching filter within page.
func (r *Repository) ListProducts(ctx context.Context, filter model.ProductFilter, page model.Page) ([]*model.Product, error) {
	q := r.db.WithContext(ctx).Model(&productRow{})
	if filter.Name != "" {
		q = q.Where(`unicode_lower(name) LIKE ? ESCAPE '\'`, repository.ContainsPattern(filter.Name))
	}
	if filter.PriceMin != nil {
		q = q.Where("price >= ?", filter.PriceMin.InexactFloat64())
	}
	if filter.PriceMax != nil {
		q = q.Where("price <= ?", filter.PriceMax.InexactFloat64())
	}
	if filter.StockMin != nil {
		q = q.Where("stock >= ?", *filter.StockMin)
	}
	if filter.StockMax != nil {
		q = q.Where("stock <= ?", *filter.StockMax)
	}

	q = q.Order(repository.OrderClause(filter.OrderBy, repository.ProductOrdering, "id"))
	q = paginate(q, page.Limit, page.Offset)

	var rows []productRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return productModels(rows), nil
}

func (row *productRow) toModel() *model.Product {
	return &model.Product{
		ID:        row.ID,
		Name:      row.Name,
		Price:     row.Price,
		Stock:     row.Stock,
		CreatedAt: row.CreatedAt,
	}
}

func productModels(rows []productRow) []*model.Product {
	products := make([]*model.Product, 0, len(rows))
	for i := range rows {
		products = append(products, rows[i].toModel())
	}
	return products
}
