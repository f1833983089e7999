package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable item with stock on hand.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
}

// ProductFilter narrows product listings. Ranges are inclusive.
type ProductFilter struct {
	Name     string
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	StockMin *int
	StockMax *int
	OrderBy  string
}
