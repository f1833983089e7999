package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a purchase by one customer of one or more products.
type Order struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	Customer    *Customer       `json:"customer,omitempty"`
	Products    []*Product      `json:"products,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
}

// ProductIDs returns the ids of the order's products.
func (o *Order) ProductIDs() []int64 {
	ids := make([]int64, 0, len(o.Products))
	for _, p := range o.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

// SumPrices returns the sum of the given products' prices.
func SumPrices(products []*Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return total
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	CustomerName  string
	ProductName   string
	TotalMin      *decimal.Decimal
	TotalMax      *decimal.Decimal
	OrderedAfter  *time.Time
	OrderedBefore *time.Time
	OrderBy       string
}
