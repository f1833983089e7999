package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/repository"
)

// CreateOrder inserts an order and its product links in one transaction.
// Dangling references map to the repository not-found errors.
func (r *Repository) CreateOrder(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := orderRow{
			CustomerID:  o.CustomerID,
			TotalAmount: o.TotalAmount,
			OrderDate:   utc(o.OrderDate),
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return repository.ErrCustomerNotFound
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		if len(o.Products) > 0 {
			links := make([]orderProductRow, 0, len(o.Products))
			for _, p := range o.Products {
				links = append(links, orderProductRow{OrderID: row.ID, ProductID: p.ID})
			}
			if err := tx.Create(&links).Error; err != nil {
				if errors.Is(err, gorm.ErrForeignKeyViolated) {
					return repository.ErrProductNotFound
				}
				return fmt.Errorf("failed to link products: %w", err)
			}
		}

		o.ID = row.ID
		return nil
	})
}

// GetOrder retrieves an order with its customer and products.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	var row orderRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	orders, err := r.hydrateOrders(ctx, []orderRow{row})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

// ListOrders retrieves orders matching filter within page.
func (r *Repository) ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]*model.Order, error) {
	q := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.*").
		Joins("JOIN customers c ON c.id = o.customer_id")

	if filter.CustomerName != "" {
		q = q.Where(`unicode_lower(c.name) LIKE ? ESCAPE '\'`, repository.ContainsPattern(filter.CustomerName))
	}
	if filter.ProductName != "" {
		q = q.Where(`EXISTS (
			SELECT 1 FROM order_products op
			JOIN products p ON p.id = op.product_id
			WHERE op.order_id = o.id AND unicode_lower(p.name) LIKE ? ESCAPE '\'
		)`, repository.ContainsPattern(filter.ProductName))
	}
	if filter.TotalMin != nil {
		q = q.Where("o.total_amount >= ?", filter.TotalMin.InexactFloat64())
	}
	if filter.TotalMax != nil {
		q = q.Where("o.total_amount <= ?", filter.TotalMax.InexactFloat64())
	}
	if filter.OrderedAfter != nil {
		q = q.Where("o.order_date >= ?", utc(*filter.OrderedAfter))
	}
	if filter.OrderedBefore != nil {
		q = q.Where("o.order_date <= ?", utc(*filter.OrderedBefore))
	}

	q = q.Order(repository.OrderClause(filter.OrderBy, repository.OrderOrdering, "o.id"))
	q = paginate(q, page.Limit, page.Offset)

	var rows []orderRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return r.hydrateOrders(ctx, rows)
}

// hydrateOrders converts rows and loads customers and products in two
// queries regardless of the number of orders.
func (r *Repository) hydrateOrders(ctx context.Context, rows []orderRow) ([]*model.Order, error) {
	orders := make([]*model.Order, 0, len(rows))
	if len(rows) == 0 {
		return orders, nil
	}

	byID := make(map[int64]*model.Order, len(rows))
	orderIDs := make([]int64, 0, len(rows))
	customerIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		o := &model.Order{
			ID:          row.ID,
			CustomerID:  row.CustomerID,
			TotalAmount: row.TotalAmount,
			OrderDate:   row.OrderDate,
		}
		orders = append(orders, o)
		byID[o.ID] = o
		orderIDs = append(orderIDs, o.ID)
		customerIDs = append(customerIDs, o.CustomerID)
	}

	var customers []customerRow
	if err := r.db.WithContext(ctx).Where("id IN ?", customerIDs).Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("failed to load order customers: %w", err)
	}
	customerByID := make(map[int64]*model.Customer, len(customers))
	for i := range customers {
		customerByID[customers[i].ID] = customers[i].toModel()
	}
	for _, o := range orders {
		o.Customer = customerByID[o.CustomerID]
	}

	type linkedProduct struct {
		OrderID int64
		productRow
	}
	var linked []linkedProduct
	err := r.db.WithContext(ctx).
		Table("order_products AS op").
		Select("op.order_id, p.*").
		Joins("JOIN products p ON p.id = op.product_id").
		Where("op.order_id IN ?", orderIDs).
		Order("op.order_id, p.id").
		Scan(&linked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load order products: %w", err)
	}
	for i := range linked {
		if o, ok := byID[linked[i].OrderID]; ok {
			o.Products = append(o.Products, linked[i].productRow.toModel())
		}
	}

	return orders, nil
}
