package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/graphcrm/graphcrm/internal/config"
)

const updateLowStockMutation = `
mutation UpdateLowStock {
  updateLowStockProducts {
    products { name stock }
    message
  }
}`

type updateLowStockResult struct {
	UpdateLowStockProducts struct {
		Products []struct {
			Name  string `json:"name"`
			Stock int    `json:"stock"`
		} `json:"products"`
		Message string `json:"message"`
	} `json:"updateLowStockProducts"`
}

// LowStockRestock restocks low products through the GraphQL mutation and
// logs the new stock levels.
type LowStockRestock struct {
	Client GraphQL
	Log    LogWriter
}

func (j *LowStockRestock) Name() string { return config.JobLowStock }

func (j *LowStockRestock) Run(ctx context.Context, now time.Time) error {
	var res updateLowStockResult
	if err := j.Client.Do(ctx, updateLowStockMutation, nil, &res); err != nil {
		return fmt.Errorf("update low stock products: %w", err)
	}

	products := res.UpdateLowStockProducts.Products
	if len(products) == 0 {
		return j.Log.Append(now, "No low-stock products")
	}

	lines := make([]string, len(products))
	for i, p := range products {
		lines[i] = fmt.Sprintf("%s -> %d", p.Name, p.Stock)
	}
	return j.Log.Append(now, lines...)
}
