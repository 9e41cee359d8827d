// Package store persists the product catalog and scan history behind a
// driver-agnostic interface. SQLite is the default for single-user use;
// Postgres backs shared deployments.
package store

import (
	"context"
	"time"

	"github.com/freshtrack/expiry-cli/internal/model"
)

// ScanFilter specifies criteria for listing scans.
type ScanFilter struct {
	Barcode string `json:"barcode,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// ExpiringItem is a scan joined with its catalog entry, ordered by urgency.
type ExpiringItem struct {
	Barcode        string     `json:"barcode,omitempty"`
	Name           string     `json:"name,omitempty"`
	ProductionDate model.Date `json:"production_date,omitzero"`
	ExpiryDate     model.Date `json:"expiry_date"`
	DaysRemaining  int        `json:"days_remaining"`
	ScannedAt      time.Time  `json:"scanned_at"`
}

// Store defines the persistence interface for products and scans.
type Store interface {
	// Products
	UpsertProduct(ctx context.Context, p model.Product) (*model.Product, error)
	GetProduct(ctx context.Context, barcode string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	DeleteProduct(ctx context.Context, barcode string) error

	// Scans
	RecordScan(ctx context.Context, scan model.Scan) (*model.Scan, error)
	RecordScans(ctx context.Context, scans []model.Scan) (int, error)
	ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error)

	// Expiry views. DaysRemaining columns go stale as the clock advances;
	// both operations recompute relative to the given date.
	ListExpiring(ctx context.Context, within int, today model.Date) ([]ExpiringItem, error)
	RefreshDaysRemaining(ctx context.Context, today model.Date) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
