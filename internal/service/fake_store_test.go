package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/repository"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	customers map[int64]*model.Customer
	products  map[int64]*model.Product
	orders    map[int64]*model.Order
	failWith  error
	// createOrderErr simulates a reference removed just before the insert.
	createOrderErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: make(map[int64]*model.Customer),
		products:  make(map[int64]*model.Product),
		orders:    make(map[int64]*model.Order),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.failWith }

func (f *fakeStore) CreateCustomer(ctx context.Context, c *model.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.customers {
		if existing.Email == c.Email {
			return repository.ErrEmailExists
		}
	}
	c.ID = f.id()
	copied := *c
	f.customers[c.ID] = &copied
	return nil
}

func (f *fakeStore) EmailExists(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, c := range f.customers {
		if c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) ListCustomers(ctx context.Context, filter model.CustomerFilter, page model.Page) ([]*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Customer
	for _, c := range f.customers {
		if filter.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateProduct(ctx context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id()
	copied := *p
	f.products[p.ID] = &copied
	return nil
}

func (f *fakeStore) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) GetProductsByIDs(ctx context.Context, ids []int64) ([]*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListProducts(ctx context.Context, filter model.ProductFilter, page model.Page) ([]*model.Product, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) CreateOrder(ctx context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createOrderErr != nil {
		return f.createOrderErr
	}
	o.ID = f.id()
	copied := *o
	f.orders[o.ID] = &copied
	return nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeStore) ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]*model.Order, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) DeleteInactiveCustomers(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hasOrders := make(map[int64]bool)
	for _, o := range f.orders {
		hasOrders[o.CustomerID] = true
	}
	var deleted int64
	for id, c := range f.customers {
		if c.CreatedAt.Before(cutoff) && !hasOrders[id] {
			delete(f.customers, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) RestockLowStock(ctx context.Context, threshold, amount int) ([]*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Product
	for _, p := range f.products {
		if p.Stock < threshold {
			p.Stock += amount
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Report(ctx context.Context) (*model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report := &model.Report{
		Customers: int64(len(f.customers)),
		Orders:    int64(len(f.orders)),
	}
	for _, o := range f.orders {
		report.Revenue = report.Revenue.Add(o.TotalAmount)
	}
	return report, nil
}
