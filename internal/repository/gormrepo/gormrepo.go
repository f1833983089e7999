// Package gormrepo provides a GORM-backed SQLite data store with the same
// behavior as the PostgreSQL repository. It is the development default.
package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type customerRow struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"size:100;not null"`
	Email     string    `gorm:"size:254;uniqueIndex;not null"`
	Phone     *string   `gorm:"size:20"`
	CreatedAt time.Time `gorm:"index;not null"`
}

func (customerRow) TableName() string { return "customers" }

type productRow struct {
	ID        int64           `gorm:"primaryKey"`
	Name      string          `gorm:"size:100;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock     int             `gorm:"not null;default:0;index"`
	CreatedAt time.Time       `gorm:"not null"`
}

func (productRow) TableName() string { return "products" }

type orderRow struct {
	ID          int64           `gorm:"primaryKey"`
	CustomerID  int64           `gorm:"index;not null"`
	Customer    customerRow     `gorm:"constraint:OnDelete:CASCADE"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OrderDate   time.Time       `gorm:"index;not null"`
}

func (orderRow) TableName() string { return "orders" }

type orderProductRow struct {
	OrderID   int64 `gorm:"primaryKey;autoIncrement:false"`
	ProductID int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

func (orderProductRow) TableName() string { return "order_products" }

// Repository provides database access methods over GORM.
type Repository struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path and migrates the schema.
func Open(ctx context.Context, path string) (*Repository, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: sqliteDriver(), DSN: dsn}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite handle: %w", err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.AutoMigrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return repo, nil
}

// AutoMigrate creates or updates the CRM tables.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	err := r.db.WithContext(ctx).AutoMigrate(
		&customerRow{},
		&productRow{},
		&orderRow{},
		&orderProductRow{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database handle.
func (r *Repository) Close() {
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// utc normalizes times so that text comparisons in SQLite stay ordered.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func paginate(db *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}
	return db
}
