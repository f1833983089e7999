package model

import "github.com/shopspring/decimal"

// Report summarizes the CRM totals.
type Report struct {
	Customers int64
	Orders    int64
	Revenue   decimal.Decimal
}

// Page is an offset window over a listing.
type Page struct {
	Offset int
	Limit  int
}
