//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/testutil"
)

func TestIntegrationMigration_Columns(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	want := map[string][]string{
		"customers":      {"id", "name", "email", "phone", "created_at"},
		"products":       {"id", "name", "price", "stock", "created_at"},
		"orders":         {"id", "customer_id", "total_amount", "order_date"},
		"order_products": {"order_id", "product_id"},
	}

	for table, cols := range want {
		t.Run(table, func(t *testing.T) {
			got, err := tableColumns(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableColumns: %v", err)
			}
			if diff := cmp.Diff(cols, got); diff != "" {
				t.Errorf("columns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIntegrationMigration_Constraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	rejected := map[string]string{
		"zero price":      `INSERT INTO products (name, price) VALUES ('Free', 0)`,
		"negative stock":  `INSERT INTO products (name, price, stock) VALUES ('Neg', 1, -1)`,
		"orphan order":    `INSERT INTO orders (customer_id) VALUES (999999)`,
		"orphan link":     `INSERT INTO order_products (order_id, product_id) VALUES (999999, 999999)`,
		"missing name":    `INSERT INTO customers (email) VALUES ('noname@example.com')`,
		"oversized phone": `INSERT INTO customers (name, email, phone) VALUES ('P', 'p@example.com', '123456789012345678901')`,
	}
	for name, stmt := range rejected {
		t.Run(name, func(t *testing.T) {
			if _, err := pool.Exec(ctx, stmt); err == nil {
				t.Errorf("expected %q to be rejected", stmt)
			}
		})
	}

	if _, err := pool.Exec(ctx, `INSERT INTO customers (name, email) VALUES ('A', 'dup@example.com')`); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	_, err := pool.Exec(ctx, `INSERT INTO customers (name, email) VALUES ('B', 'dup@example.com')`)
	if !isUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
	_, err = pool.Exec(ctx, `INSERT INTO orders (customer_id) VALUES (999999)`)
	if !isForeignKeyViolation(err) {
		t.Errorf("expected foreign key violation, got %v", err)
	}
}

func TestIntegrationMigration_CascadeOnCustomerDelete(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)
	repo := &Repository{pool: pool}

	c := testutil.NewTestCustomer(t, "cascade")
	if err := repo.CreateCustomer(ctx, c); err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	p := testutil.NewTestProduct(t, "Mug", "8.00", 5)
	if err := repo.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	o := &model.Order{
		CustomerID:  c.ID,
		TotalAmount: decimal.RequireFromString("8.00"),
		OrderDate:   time.Now().UTC(),
		Products:    []*model.Product{p},
	}
	if err := repo.CreateOrder(ctx, o); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, c.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}
	if _, err := repo.GetOrder(ctx, o.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("GetOrder after cascade = %v, want ErrOrderNotFound", err)
	}

	var links int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM order_products WHERE order_id = $1`, o.ID).Scan(&links); err != nil {
		t.Fatalf("count links: %v", err)
	}
	if links != 0 {
		t.Errorf("order_products rows = %d, want 0", links)
	}
}

func TestIntegrationMigration_RollbackAndReapply(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	if err := testutil.ApplyMigration(ctx, pool, "000001_crm.down.sql"); err != nil {
		t.Fatalf("apply down migration: %v", err)
	}
	cols, err := tableColumns(ctx, pool, "customers")
	if err != nil {
		t.Fatalf("tableColumns: %v", err)
	}
	if len(cols) != 0 {
		t.Errorf("customers should be gone after rollback, has %v", cols)
	}

	for i := 0; i < 2; i++ {
		if err := testutil.ApplyMigration(ctx, pool, "000001_crm.up.sql"); err != nil {
			t.Fatalf("apply up migration (pass %d): %v", i+1, err)
		}
	}
}

// tableColumns lists a public table's columns in ordinal order. A missing
// table yields no columns.
func tableColumns(ctx context.Context, pool *pgxpool.Pool, table string) ([]string, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetCRMSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, pool
}
