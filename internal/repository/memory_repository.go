package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gonzacha/nordia-pos/internal/domain"
)

// MemoryStore keeps products and sales in process memory
type MemoryStore struct {
	inventory *MemoryInventory
	ledger    *MemoryLedger
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		inventory: NewMemoryInventory(),
		ledger:    NewMemoryLedger(),
	}
}

func (s *MemoryStore) Inventory() InventoryStore { return s.inventory }
func (s *MemoryStore) Ledger() SalesLedger { return s.ledger }
func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error { return nil }

// MemoryInventory is an InventoryStore backed by a map
type MemoryInventory struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	nextID   int64
}

func NewMemoryInventory() *MemoryInventory {
	return &MemoryInventory{
		products: make(map[int64]*domain.Product),
		nextID:   1,
	}
}

func (r *MemoryInventory) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, domain.NewProductNotFound(id)
	}
	cp := *product
	return &cp, nil
}

func (r *MemoryInventory) List(ctx context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, *p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *MemoryInventory) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *product
	stored.ID = r.nextID
	r.nextID++
	r.products[stored.ID] = &stored

	cp := stored
	return &cp, nil
}

func (r *MemoryInventory) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, exists := r.products[id]
	if !exists {
		return nil, domain.NewProductNotFound(id)
	}
	if err := product.AdjustStock(delta); err != nil {
		return nil, err
	}
	cp := *product
	return &cp, nil
}

func (r *MemoryInventory) SetStock(ctx context.Context, id int64, stock int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, exists := r.products[id]
	if !exists {
		return nil, domain.NewProductNotFound(id)
	}
	if err := product.SetStock(stock); err != nil {
		return nil, err
	}
	cp := *product
	return &cp, nil
}

// MemoryLedger is a SalesLedger backed by a slice. Sales are appended in ID
// order, which is also creation-time order since both are assigned under mu.
type MemoryLedger struct {
	mu     sync.RWMutex
	sales  []*domain.Sale
	nextID int64
	now    func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *MemoryLedger) Append(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := sale.Clone()
	stored.ID = l.nextID
	stored.CreatedAt = l.now()
	// Keep creation times non-decreasing even if the wall clock steps back
	if n := len(l.sales); n > 0 && stored.CreatedAt.Before(l.sales[n-1].CreatedAt) {
		stored.CreatedAt = l.sales[n-1].CreatedAt
	}
	l.nextID++
	l.sales = append(l.sales, stored)

	return stored.Clone(), nil
}

func (l *MemoryLedger) FindByID(ctx context.Context, id int64) (*domain.Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// IDs are dense and start at 1
	if id < 1 || id > int64(len(l.sales)) {
		return nil, domain.ErrSaleNotFound
	}
	return l.sales[id-1].Clone(), nil
}

func (l *MemoryLedger) List(ctx context.Context) ([]domain.Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sales := make([]domain.Sale, len(l.sales))
	for i, s := range l.sales {
		sales[i] = *s.Clone()
	}
	return sales, nil
}

func (l *MemoryLedger) ListInRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// sales is sorted by CreatedAt
	from := sort.Search(len(l.sales), func(i int) bool { return !l.sales[i].CreatedAt.Before(start) })
	sales := make([]domain.Sale, 0)
	for _, s := range l.sales[from:] {
		if !s.CreatedAt.Before(end) {
			break
		}
		sales = append(sales, *s.Clone())
	}
	return sales, nil
}
