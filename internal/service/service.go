// Package service provides business logic for the CRM.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/graphcrm/graphcrm/internal/clock"
	"github.com/graphcrm/graphcrm/internal/metrics"
	"github.com/graphcrm/graphcrm/internal/model"
)

// Service errors.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
)

// ValidationError reports rejected mutation input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Store is the persistence contract implemented by the PostgreSQL and
// SQLite repositories.
type Store interface {
	Ping(ctx context.Context) error

	CreateCustomer(ctx context.Context, c *model.Customer) error
	EmailExists(ctx context.Context, email string) (bool, error)
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	ListCustomers(ctx context.Context, filter model.CustomerFilter, page model.Page) ([]*model.Customer, error)

	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter, page model.Page) ([]*model.Product, error)

	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]*model.Order, error)

	DeleteInactiveCustomers(ctx context.Context, cutoff time.Time) (int64, error)
	RestockLowStock(ctx context.Context, threshold, amount int) ([]*model.Product, error)
	Report(ctx context.Context) (*model.Report, error)
}

// CRMService handles customer, product and order business logic.
type CRMService struct {
	store   Store
	clock   clock.Clock
	metrics metrics.Recorder
}

// NewCRMService creates a new CRMService.
func NewCRMService(store Store, clk clock.Clock, recorder metrics.Recorder) *CRMService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CRMService{
		store:   store,
		clock:   clk,
		metrics: recorder,
	}
}

// Ping checks the underlying store.
func (s *CRMService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// rejected counts a validation failure and returns err unchanged.
func (s *CRMService) rejected(err *ValidationError) error {
	s.metrics.IncValidationError()
	return err
}
