package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gonzacha/nordia-pos/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteStoreForTest(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pos.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// TEST_DATABASE_URL must point at a scratch database: every test truncates it
func newPostgresStoreForTest(t *testing.T) *PostgresStore {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := NewPostgresStore(ctx, os.Getenv("TEST_DATABASE_URL"), zap.NewNop())
	require.NoError(t, err)
	_, err = store.pool.Exec(ctx, `TRUNCATE sale_items, sales, products RESTART IDENTITY`)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// Every backend runs the same behavioral checks. Postgres joins when
// TEST_DATABASE_URL is set.
func storesUnderTest(t *testing.T) map[string]func(t *testing.T) Store {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return newSQLiteStoreForTest(t) },
	}
	if os.Getenv("TEST_DATABASE_URL") != "" {
		stores["postgres"] = func(t *testing.T) Store { return newPostgresStoreForTest(t) }
	}
	return stores
}

// sqlStoresUnderTest are the backends that enforce the schema constraints
func sqlStoresUnderTest(t *testing.T) map[string]func(t *testing.T) Store {
	stores := storesUnderTest(t)
	delete(stores, "memory")
	return stores
}

func createProduct(t *testing.T, inv InventoryStore, name string, price int64, stock int) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(name, decimal.NewFromInt(price), stock, "", "")
	require.NoError(t, err)
	created, err := inv.Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

func TestInventoryStore_CreateAndFind(t *testing.T) {
	for name, newStore := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			inv := newStore(t).Inventory()

			cafe := createProduct(t, inv, "Café", 850, 100)
			medialunas := createProduct(t, inv, "Medialunas", 450, 50)
			assert.Greater(t, medialunas.ID, cafe.ID)

			found, err := inv.FindByID(ctx, cafe.ID)
			require.NoError(t, err)
			assert.Equal(t, "Café", found.Name)
			assert.True(t, decimal.NewFromInt(850).Equal(found.Price))
			assert.Equal(t, 100, found.Stock)

			list, err := inv.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, cafe.ID, list[0].ID)

			_, err = inv.FindByID(ctx, 999)
			assert.ErrorIs(t, err, domain.ErrProductNotFound)
		})
	}
}

func TestInventoryStore_AdjustStock(t *testing.T) {
	for name, newStore := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			inv := newStore(t).Inventory()
			tostado := createProduct(t, inv, "Tostado", 1200, 5)

			p, err := inv.AdjustStock(ctx, tostado.ID, -3)
			require.NoError(t, err)
			assert.Equal(t, 2, p.Stock)

			_, err = inv.AdjustStock(ctx, tostado.ID, -3)
			require.ErrorIs(t, err, domain.ErrInsufficientStock)
			var stockErr *domain.StockError
			require.True(t, errors.As(err, &stockErr))
			assert.Equal(t, 3, stockErr.Requested)
			assert.Equal(t, 2, stockErr.Available)
			assert.Equal(t, "Tostado", stockErr.ProductName)

			current, err := inv.FindByID(ctx, tostado.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, current.Stock)

			_, err = inv.AdjustStock(ctx, 999, -1)
			assert.ErrorIs(t, err, domain.ErrProductNotFound)

			p, err = inv.AdjustStock(ctx, tostado.ID, 10)
			require.NoError(t, err)
			assert.Equal(t, 12, p.Stock)
		})
	}
}

func TestInventoryStore_SetStock(t *testing.T) {
	for name, newStore := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			inv := newStore(t).Inventory()
			jugo := createProduct(t, inv, "Jugo Natural", 600, 45)

			p, err := inv.SetStock(ctx, jugo.ID, 7)
			require.NoError(t, err)
			assert.Equal(t, 7, p.Stock)

			_, err = inv.SetStock(ctx, jugo.ID, -1)
			assert.ErrorIs(t, err, domain.ErrInvalidProduct)

			_, err = inv.SetStock(ctx, 999, 1)
			assert.ErrorIs(t, err, domain.ErrProductNotFound)
		})
	}
}

func TestInventoryStore_ConcurrentDecrementsNeverGoNegative(t *testing.T) {
	for name, newStore := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			inv := newStore(t).Inventory()
			ensalada := createProduct(t, inv, "Ensalada", 1500, 20)

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				succeeded int
			)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := inv.AdjustStock(ctx, ensalada.ID, -1); err == nil {
						mu.Lock()
						succeeded++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			p, err := inv.FindByID(ctx, ensalada.ID)
			require.NoError(t, err)
			assert.Equal(t, 20, succeeded)
			assert.Equal(t, 0, p.Stock)
		})
	}
}

func completedSale(total int64, items ...domain.SaleItem) *domain.Sale {
	s := domain.NewCandidateSale(items, decimal.NewFromInt(total), domain.PaymentCash, "cliente@nordia.com")
	s.Status = domain.SaleStatusCompleted
	return s
}

func TestSalesLedger_AppendAssignsIncreasingIDs(t *testing.T) {
	for name, newStore := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := newStore(t).Ledger()

			item := domain.SaleItem{ProductID: 1, ProductName: "Café", Quantity: 2,
				UnitPrice: decimal.NewFromInt(850), Subtotal: decimal.NewFromInt(1700)}

			first, err := ledger.Append(ctx, completedSale(1700, item))
			require.NoError(t, err)
			second, err := ledger.Append(ctx, completedSale(1700, item))
			require.NoError(t, err)

			assert.Greater(t, second.ID, first.ID)
			assert.False(t, first.CreatedAt.IsZero())
			assert.False(t, second.CreatedAt.Before(first.CreatedAt))

			found, err := ledger.FindByID(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.SaleStatusCompleted, found.Status)
			assert.Equal(t, "cliente@nordia.com", found.CustomerEmail)
			require.Len(t, found.Items, 1)
			assert.Equal(t, "Café", found.Items[0].ProductName)
			assert.True(t, decimal.NewFromInt(1700).Equal(found.Items[0].Subtotal))

			_, err = ledger.FindByID(ctx, 999)
			assert.ErrorIs(t, err, domain.ErrSaleNotFound)

			all, err := ledger.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, first.ID, all[0].ID)
			assert.Equal(t, second.ID, all[1].ID)
		})
	}
}

func TestSalesLedger_PreservesDecimalScale(t *testing.T) {
	for name, newStore := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			price := decimal.RequireFromString("0.125")
			p, err := domain.NewProduct("Caramelo", price, 10, "", "")
			require.NoError(t, err)
			created, err := store.Inventory().Create(ctx, p)
			require.NoError(t, err)

			found, err := store.Inventory().FindByID(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "0.125", found.Price.String())

			item := domain.SaleItem{ProductID: created.ID, ProductName: "Caramelo", Quantity: 3,
				UnitPrice: price, Subtotal: decimal.RequireFromString("0.375")}
			sale := completedSale(0, item)
			sale.Total = decimal.RequireFromString("0.375")
			stored, err := store.Ledger().Append(ctx, sale)
			require.NoError(t, err)

			back, err := store.Ledger().FindByID(ctx, stored.ID)
			require.NoError(t, err)
			assert.Equal(t, "0.375", back.Total.String())
			require.Len(t, back.Items, 1)
			assert.Equal(t, "0.125", back.Items[0].UnitPrice.String())
			assert.Equal(t, "0.375", back.Items[0].Subtotal.String())
		})
	}
}

func TestSalesLedger_FailedAppendConsumesNoID(t *testing.T) {
	for name, newStore := range sqlStoresUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := newStore(t).Ledger()
			good := domain.SaleItem{ProductID: 1, ProductName: "Café", Quantity: 1,
				UnitPrice: decimal.NewFromInt(850), Subtotal: decimal.NewFromInt(850)}

			first, err := ledger.Append(ctx, completedSale(850, good))
			require.NoError(t, err)

			// The item insert violates quantity > 0, so the whole append rolls back
			bad := good
			bad.Quantity = 0
			_, err = ledger.Append(ctx, completedSale(850, good, bad))
			require.Error(t, err)

			second, err := ledger.Append(ctx, completedSale(850, good))
			require.NoError(t, err)
			assert.Equal(t, first.ID+1, second.ID)

			all, err := ledger.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestSalesLedger_AppendDoesNotAliasCaller(t *testing.T) {
	ledger := NewMemoryLedger()
	sale := completedSale(850, domain.SaleItem{ProductID: 1, Quantity: 1,
		UnitPrice: decimal.NewFromInt(850), Subtotal: decimal.NewFromInt(850)})

	stored, err := ledger.Append(context.Background(), sale)
	require.NoError(t, err)

	sale.Items[0].Quantity = 99
	stored.Items[0].Quantity = 42

	found, err := ledger.FindByID(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Items[0].Quantity)
	assert.Zero(t, sale.ID)
}

func TestSalesLedger_ListInRange(t *testing.T) {
	for name, newStore := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := newStore(t).Ledger()
			item := domain.SaleItem{ProductID: 1, Quantity: 1,
				UnitPrice: decimal.NewFromInt(450), Subtotal: decimal.NewFromInt(450)}

			before := time.Now().UTC().Add(-time.Second)
			a, err := ledger.Append(ctx, completedSale(450, item))
			require.NoError(t, err)
			b, err := ledger.Append(ctx, completedSale(450, item))
			require.NoError(t, err)
			after := time.Now().UTC().Add(time.Second)

			sales, err := ledger.ListInRange(ctx, before, after)
			require.NoError(t, err)
			require.Len(t, sales, 2)
			assert.Equal(t, a.ID, sales[0].ID)
			assert.Equal(t, b.ID, sales[1].ID)

			// end is exclusive
			sales, err = ledger.ListInRange(ctx, before, a.CreatedAt)
			require.NoError(t, err)
			assert.Empty(t, sales)

			sales, err = ledger.ListInRange(ctx, after, after.Add(time.Hour))
			require.NoError(t, err)
			assert.Empty(t, sales)
		})
	}
}

func TestMemoryLedger_CreatedAtNeverGoesBackwards(t *testing.T) {
	ledger := NewMemoryLedger()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(-time.Minute)}
	ledger.now = func() time.Time {
		t := times[0]
		times = times[1:]
		return t
	}

	item := domain.SaleItem{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(1), Subtotal: decimal.NewFromInt(1)}
	first, err := ledger.Append(context.Background(), completedSale(1, item))
	require.NoError(t, err)
	second, err := ledger.Append(context.Background(), completedSale(1, item))
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	sales, err := ledger.ListInRange(context.Background(), base, base.Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, sales, 2)
}
