package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/graphcrm/graphcrm/internal/model"
)

const customerColumns = `id, name, email, COALESCE(phone, ''), created_at`

// CreateCustomer inserts a new customer and sets its ID.
func (r *Repository) CreateCustomer(ctx context.Context, c *model.Customer) error {
	query := `
		INSERT INTO customers (name, email, phone, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		c.Name,
		c.Email,
		nullableString(c.Phone),
		c.CreatedAt,
	).Scan(&c.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// EmailExists checks if a customer with the given email already exists.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE email = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// GetCustomer retrieves a customer by ID.
func (r *Repository) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return c, nil
}

// ListCustomers retrieves customers matching filter within page.
func (r *Repository) ListCustomers(ctx context.Context, filter model.CustomerFilter, page model.Page) ([]*model.Customer, error) {
	w := &whereBuilder{}
	if filter.Name != "" {
		w.add(`LOWER(name) LIKE ? ESCAPE '\'`, ContainsPattern(filter.Name))
	}
	if filter.Email != "" {
		w.add(`LOWER(email) LIKE ? ESCAPE '\'`, ContainsPattern(filter.Email))
	}
	if filter.PhonePrefix != "" {
		w.add(`phone LIKE ? ESCAPE '\'`, PrefixPattern(filter.PhonePrefix))
	}
	if filter.CreatedAfter != nil {
		w.add("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		w.add("created_at <= ?", *filter.CreatedBefore)
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + w.sql() +
		` ORDER BY ` + OrderClause(filter.OrderBy, CustomerOrdering, "id") +
		limitOffset(w, page.Limit, page.Offset)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []*model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

// scanCustomer scans a single row into a Customer model.
func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.CreatedAt,
	)
	return &c, err
}

// nullableString maps an empty string to SQL NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
