package repository

import (
	"context"
	"time"

	"github.com/gonzacha/nordia-pos/internal/domain"
)

// InventoryStore owns the authoritative product records and stock levels.
// Every method returns copies; callers never hold references into the store.
type InventoryStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	// Create stores a new product and assigns its ID
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// AdjustStock atomically adds delta to the stock. It fails with
	// domain.ErrProductNotFound or domain.ErrInsufficientStock and leaves
	// the product unchanged in that case.
	AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error)
	// SetStock replaces the stock level (restock)
	SetStock(ctx context.Context, id int64, stock int) (*domain.Product, error)
}

// SalesLedger is the append-only record of committed sales
type SalesLedger interface {
	// Append assigns the next sale ID and the creation time, then stores the sale
	Append(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	FindByID(ctx context.Context, id int64) (*domain.Sale, error)
	// List returns every sale ordered by ID
	List(ctx context.Context) ([]domain.Sale, error)
	// ListInRange returns sales with start <= CreatedAt < end, oldest first
	ListInRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error)
}

// Store bundles both halves of the persistence layer for one backend
type Store interface {
	Inventory() InventoryStore
	Ledger() SalesLedger
	Ping(ctx context.Context) error
	Close() error
}
