package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/repository"
)

const (
	maxNameLength  = 100
	maxEmailLength = 254
)

// CreateCustomerInput defines input for creating a customer.
type CreateCustomerInput struct {
	Name  string
	Email string
	Phone string
}

// BulkCreateResult holds the outcome of a partial-success bulk insert.
type BulkCreateResult struct {
	Customers []*model.Customer
	Errors    []string
}

// CreateCustomer validates input and persists a new customer.
func (s *CRMService) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*model.Customer, error) {
	customer, err := s.createCustomer(ctx, input)
	if err != nil {
		return nil, err
	}
	s.metrics.IncCustomersCreated(1)
	return customer, nil
}

// BulkCreateCustomers creates each row independently. Invalid rows are
// reported as "Row N: reason" (1-based) and do not affect valid rows.
// Only a store failure aborts the batch.
func (s *CRMService) BulkCreateCustomers(ctx context.Context, inputs []CreateCustomerInput) (*BulkCreateResult, error) {
	result := &BulkCreateResult{
		Customers: make([]*model.Customer, 0, len(inputs)),
		Errors:    []string{},
	}

	for i, input := range inputs {
		customer, err := s.createCustomer(ctx, input)
		if err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+1, ve.Message))
			continue
		}
		result.Customers = append(result.Customers, customer)
	}

	s.metrics.IncCustomersCreated(len(result.Customers))

	return result, nil
}

func (s *CRMService) createCustomer(ctx context.Context, input CreateCustomerInput) (*model.Customer, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)

	if err := validateCustomer(name, email, phone); err != nil {
		return nil, s.rejected(err)
	}

	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, s.rejected(invalid("email", "Email already exists"))
	}

	customer := &model.Customer{
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: s.clock.Now().UTC(),
	}

	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		// Lost a race with a concurrent insert of the same email.
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, s.rejected(invalid("email", "Email already exists"))
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return customer, nil
}

func validateCustomer(name, email, phone string) *ValidationError {
	if name == "" {
		return invalid("name", "Name is required")
	}
	if len(name) > maxNameLength {
		return invalid("name", fmt.Sprintf("Name must be at most %d characters", maxNameLength))
	}
	if email == "" {
		return invalid("email", "Email is required")
	}
	if len(email) > maxEmailLength || !isValidEmail(email) {
		return invalid("email", "Enter a valid email address")
	}
	if !model.IsValidPhone(phone) {
		return invalid("phone", "Invalid phone format")
	}
	return nil
}

// isValidEmail accepts a bare address only, not "Name <addr>" forms.
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// GetCustomer retrieves a customer by ID.
func (s *CRMService) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	customer, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// ListCustomers retrieves customers matching filter within page.
func (s *CRMService) ListCustomers(ctx context.Context, filter model.CustomerFilter, page model.Page) ([]*model.Customer, error) {
	return s.store.ListCustomers(ctx, filter, page)
}
