package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/graphcrm/graphcrm/internal/config"
)

// DefaultReminderWindow is how far back OrderReminders looks.
const DefaultReminderWindow = 7 * 24 * time.Hour

// reminderPageSize matches the server's maximum page size.
const reminderPageSize = 100

const recentOrdersQuery = `
query RecentOrders($since: DateTime!, $first: Int!, $after: String) {
  allOrders(orderDateAfter: $since, first: $first, after: $after, orderBy: "orderDate") {
    edges { node { pk customer { email } } }
    pageInfo { hasNextPage endCursor }
  }
}`

type recentOrdersPage struct {
	AllOrders struct {
		Edges []struct {
			Node struct {
				PK       int64 `json:"pk"`
				Customer struct {
					Email string `json:"email"`
				} `json:"customer"`
			} `json:"node"`
		} `json:"edges"`
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
	} `json:"allOrders"`
}

// OrderReminders logs one line per order placed within Window.
type OrderReminders struct {
	Client GraphQL
	Window time.Duration
	Log    LogWriter
	Logger *slog.Logger
}

func (j *OrderReminders) Name() string { return config.JobOrderReminders }

func (j *OrderReminders) Run(ctx context.Context, now time.Time) error {
	window := j.Window
	if window <= 0 {
		window = DefaultReminderWindow
	}

	vars := map[string]any{
		"since": now.Add(-window).UTC().Format(time.RFC3339),
		"first": reminderPageSize,
	}

	var lines []string
	for {
		var page recentOrdersPage
		if err := j.Client.Do(ctx, recentOrdersQuery, vars, &page); err != nil {
			return fmt.Errorf("query recent orders: %w", err)
		}

		for _, edge := range page.AllOrders.Edges {
			lines = append(lines, fmt.Sprintf("Order %d Customer %s", edge.Node.PK, edge.Node.Customer.Email))
		}

		info := page.AllOrders.PageInfo
		if !info.HasNextPage || info.EndCursor == "" {
			break
		}
		vars["after"] = info.EndCursor
	}

	if len(lines) > 0 {
		if err := j.Log.Append(now, lines...); err != nil {
			return err
		}
	}

	if j.Logger != nil {
		j.Logger.Info("Order reminders processed!", "orders", len(lines))
	}
	return nil
}
