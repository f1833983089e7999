package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/repository"
)

// CreateCustomer inserts a new customer and sets its ID.
func (r *Repository) CreateCustomer(ctx context.Context, c *model.Customer) error {
	row := customerRow{
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: utc(c.CreatedAt),
	}
	if c.Phone != "" {
		phone := c.Phone
		row.Phone = &phone
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return repository.ErrEmailExists
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	c.ID = row.ID
	return nil
}

// EmailExists checks if a customer with the given email already exists.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&customerRow{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

// GetCustomer retrieves a customer by ID.
func (r *Repository) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	var row customerRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return row.toModel(), nil
}

// ListCustomers retrieves customers matching filter within page.
func (r *Repository) ListCustomers(ctx context.Context, filter model.CustomerFilter, page model.Page) ([]*model.Customer, error) {
	q := r.db.WithContext(ctx).Model(&customerRow{})
	if filter.Name != "" {
		q = q.Where(`unicode_lower(name) LIKE ? ESCAPE '\'`, repository.ContainsPattern(filter.Name))
	}
	if filter.Email != "" {
		q = q.Where(`unicode_lower(email) LIKE ? ESCAPE '\'`, repository.ContainsPattern(filter.Email))
	}
	if filter.PhonePrefix != "" {
		q = q.Where(`phone LIKE ? ESCAPE '\'`, repository.PrefixPattern(filter.PhonePrefix))
	}
	if filter.CreatedAfter != nil {
		q = q.Where("created_at >= ?", utc(*filter.CreatedAfter))
	}
	if filter.CreatedBefore != nil {
		q = q.Where("created_at <= ?", utc(*filter.CreatedBefore))
	}

	q = q.Order(repository.OrderClause(filter.OrderBy, repository.CustomerOrdering, "id"))
	q = paginate(q, page.Limit, page.Offset)

	var rows []customerRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	customers := make([]*model.Customer, 0, len(rows))
	for i := range rows {
		customers = append(customers, rows[i].toModel())
	}
	return customers, nil
}

func (row *customerRow) toModel() *model.Customer {
	c := &model.Customer{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
	}
	if row.Phone != nil {
		c.Phone = *row.Phone
	}
	return c
}
