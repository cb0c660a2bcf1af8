package sales

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gonzacha/nordia-pos/internal/domain"
	"github.com/gonzacha/nordia-pos/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockInventory is a mock implementation of repository.InventoryStore
type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockInventory) List(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockInventory) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockInventory) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockInventory) SetStock(ctx context.Context, id int64, stock int) (*domain.Product, error) {
	args := m.Called(ctx, id, stock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// MockLedger is a mock implementation of repository.SalesLedger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Append(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	args := m.Called(ctx, sale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sale), args.Error(1)
}

func (m *MockLedger) FindByID(ctx context.Context, id int64) (*domain.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sale), args.Error(1)
}

func (m *MockLedger) List(ctx context.Context) ([]domain.Sale, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Sale), args.Error(1)
}

func (m *MockLedger) ListInRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]domain.Sale), args.Error(1)
}

// stubStore pairs arbitrary inventory and ledger implementations
type stubStore struct {
	inventory repository.InventoryStore
	ledger    repository.SalesLedger
}

func (s *stubStore) Inventory() repository.InventoryStore { return s.inventory }
func (s *stubStore) Ledger() repository.SalesLedger { return s.ledger }
func (s *stubStore) Ping(context.Context) error { return nil }
func (s *stubStore) Close() error { return nil }

func seedProduct(t *testing.T, store repository.Store, name string, price int64, stock int) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(name, decimal.NewFromInt(price), stock, "", "")
	require.NoError(t, err)
	created, err := store.Inventory().Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

func line(p *domain.Product, qty int) domain.SaleItem {
	return domain.SaleItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   p.Price,
		Subtotal:    p.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func candidate(items ...domain.SaleItem) *domain.Sale {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return domain.NewCandidateSale(items, total, domain.PaymentCash, "")
}

func stockOf(t *testing.T, store repository.Store, id int64) int {
	t.Helper()
	p, err := store.Inventory().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func ledgerSize(t *testing.T, store repository.Store) int {
	t.Helper()
	sales, err := store.Ledger().List(context.Background())
	require.NoError(t, err)
	return len(sales)
}

func TestEngine_CommitsValidSale(t *testing.T) {
	store := repository.NewMemoryStore()
	cafe := seedProduct(t, store, "Café", 850, 100)
	engine := NewEngine(store, false, zap.NewNop())

	outcome, err := engine.Process(context.Background(), candidate(line(cafe, 5)))

	require.NoError(t, err)
	assert.Equal(t, StateCommitted, outcome.State)
	require.NotNil(t, outcome.Sale)
	assert.Equal(t, int64(1), outcome.Sale.ID)
	assert.Equal(t, domain.SaleStatusCompleted, outcome.Sale.Status)
	assert.True(t, decimal.NewFromInt(4250).Equal(outcome.Sale.Total))
	assert.False(t, outcome.Sale.CreatedAt.IsZero())
	assert.Equal(t, 95, stockOf(t, store, cafe.ID))
	assert.Equal(t, 1, ledgerSize(t, store))
}

func TestEngine_RejectsInsufficientStock(t *testing.T) {
	store := repository.NewMemoryStore()
	tostado := seedProduct(t, store, "Tostado", 1200, 3)
	engine := NewEngine(store, false, zap.NewNop())

	outcome, err := engine.Process(context.Background(), candidate(line(tostado, 5)))

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, tostado.ID, stockErr.ProductID)
	assert.Equal(t, "Tostado", stockErr.ProductName)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	assert.Equal(t, StateRejected, outcome.State)
	assert.Nil(t, outcome.Sale)
	assert.Equal(t, 3, stockOf(t, store, tostado.ID))
	assert.Equal(t, 0, ledgerSize(t, store))
}

func TestEngine_RejectsUnknownProduct(t *testing.T) {
	store := repository.NewMemoryStore()
	cafe := seedProduct(t, store, "Café", 850, 100)
	engine := NewEngine(store, false, zap.NewNop())

	ghost := &domain.Product{ID: 9999, Name: "Fantasma", Price: decimal.NewFromInt(1)}
	outcome, err := engine.Process(context.Background(), candidate(line(ghost, 1)))

	require.ErrorIs(t, err, domain.ErrProductNotFound)
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, int64(9999), stockErr.ProductID)
	assert.Equal(t, StateRejected, outcome.State)
	assert.Equal(t, 100, stockOf(t, store, cafe.ID))
	assert.Equal(t, 0, ledgerSize(t, store))
}

func TestEngine_NoPartialDeduction(t *testing.T) {
	store := repository.NewMemoryStore()
	cafe := seedProduct(t, store, "Café", 850, 100)
	engine := NewEngine(store, false, zap.NewNop())

	ghost := &domain.Product{ID: 9999, Name: "Fantasma", Price: decimal.NewFromInt(1)}
	outcome, err := engine.Process(context.Background(), candidate(line(cafe, 10), line(ghost, 1)))

	require.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, StateRejected, outcome.State)
	assert.Equal(t, 100, stockOf(t, store, cafe.ID))
	assert.Equal(t, 0, ledgerSize(t, store))
}

func TestEngine_ReportsFirstFailingLine(t *testing.T) {
	store := repository.NewMemoryStore()
	short := seedProduct(t, store, "Ensalada", 1500, 1)
	engine := NewEngine(store, false, zap.NewNop())

	ghost := &domain.Product{ID: 9999, Name: "Fantasma", Price: decimal.NewFromInt(1)}

	// Insufficient stock appears before the missing product
	_, err := engine.Process(context.Background(), candidate(line(short, 2), line(ghost, 1)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// And the other way round
	_, err = engine.Process(context.Background(), candidate(line(ghost, 1), line(short, 2)))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestEngine_MalformedLineAfterMissingProduct(t *testing.T) {
	store := repository.NewMemoryStore()
	cafe := seedProduct(t, store, "Café", 850, 10)
	ghost := &domain.Product{ID: 9999, Name: "Fantasma", Price: decimal.NewFromInt(1)}

	// A zero quantity on line 1 must not mask the missing product on line 0
	zero := line(cafe, 1)
	zero.Quantity = 0
	_, err := NewEngine(store, false, zap.NewNop()).Process(context.Background(), candidate(line(ghost, 1), zero))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	// Same for a wrong subtotal under strict totals
	badSubtotal := line(cafe, 2)
	badSubtotal.Subtotal = decimal.NewFromInt(1)
	_, err = NewEngine(store, true, zap.NewNop()).Process(context.Background(), candidate(line(ghost, 1), badSubtotal))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	// And the malformed line still wins when it comes first
	_, err = NewEngine(store, false, zap.NewNop()).Process(context.Background(), candidate(zero, line(ghost, 1)))
	assert.ErrorIs(t, err, domain.ErrInvalidSale)

	assert.Equal(t, 10, stockOf(t, store, cafe.ID))
	assert.Equal(t, 0, ledgerSize(t, store))
}

func TestEngine_AccumulatesRepeatedProduct(t *testing.T) {
	store := repository.NewMemoryStore()
	medialunas := seedProduct(t, store, "Medialunas", 450, 5)
	engine := NewEngine(store, false, zap.NewNop())

	// 3 + 3 exceeds 5 even though each line fits on its own
	outcome, err := engine.Process(context.Background(), candidate(line(medialunas, 3), line(medialunas, 3)))

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, StateRejected, outcome.State)
	assert.Equal(t, 5, stockOf(t, store, medialunas.ID))

	outcome, err = engine.Process(context.Background(), candidate(line(medialunas, 2), line(medialunas, 3)))
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, outcome.State)
	assert.Equal(t, 0, stockOf(t, store, medialunas.ID))
}

func TestEngine_RejectsMalformedSale(t *testing.T) {
	store := repository.NewMemoryStore()
	cafe := seedProduct(t, store, "Café", 850, 10)
	engine := NewEngine(store, false, zap.NewNop())

	testCases := []struct {
		name string
		sale *domain.Sale
	}{
		{"Nil", nil},
		{"NoItems", candidate()},
		{"ZeroQuantity", candidate(domain.SaleItem{ProductID: cafe.ID, Quantity: 0})},
		{"NegativeQuantity", candidate(domain.SaleItem{ProductID: cafe.ID, Quantity: -2})},
		{"UnknownPaymentMethod", domain.NewCandidateSale([]domain.SaleItem{line(cafe, 1)}, cafe.Price, "cheque", "")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := engine.Process(context.Background(), tc.sale)
			assert.ErrorIs(t, err, domain.ErrInvalidSale)
			assert.Equal(t, StateRejected, outcome.State)
		})
	}
	assert.Equal(t, 10, stockOf(t, store, cafe.ID))
	assert.Equal(t, 0, ledgerSize(t, store))
}

func TestEngine_StrictTotals(t *testing.T) {
	store := repository.NewMemoryStore()
	cafe := seedProduct(t, store, "Café", 850, 10)

	wrong := domain.NewCandidateSale([]domain.SaleItem{line(cafe, 2)}, decimal.NewFromInt(1), domain.PaymentCard, "")

	// Trusting by default: the caller's total is recorded as given
	outcome, err := NewEngine(store, false, zap.NewNop()).Process(context.Background(), wrong)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1).Equal(outcome.Sale.Total))

	outcome, err = NewEngine(store, true, zap.NewNop()).Process(context.Background(), wrong)
	assert.ErrorIs(t, err, domain.ErrTotalMismatch)
	assert.Equal(t, StateRejected, outcome.State)
	assert.Equal(t, 8, stockOf(t, store, cafe.ID))
}

func TestEngine_RejectedAttemptsConsumeNoID(t *testing.T) {
	store := repository.NewMemoryStore()
	cafe := seedProduct(t, store, "Café", 850, 10)
	engine := NewEngine(store, false, zap.NewNop())

	first, err := engine.Process(context.Background(), candidate(line(cafe, 1)))
	require.NoError(t, err)
	_, err = engine.Process(context.Background(), candidate(line(cafe, 100)))
	require.Error(t, err)
	second, err := engine.Process(context.Background(), candidate(line(cafe, 1)))
	require.NoError(t, err)

	assert.Equal(t, first.Sale.ID+1, second.Sale.ID)
}

func TestEngine_IgnoresCancellationOnceStarted(t *testing.T) {
	store := repository.NewMemoryStore()
	cafe := seedProduct(t, store, "Café", 850, 10)
	engine := NewEngine(store, false, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := engine.Process(ctx, candidate(line(cafe, 1)))
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, outcome.State)
	assert.Equal(t, 9, stockOf(t, store, cafe.ID))
}

func TestEngine_CompensatesWhenAdjustmentFails(t *testing.T) {
	inventory := new(MockInventory)
	ledger := new(MockLedger)
	engine := NewEngine(&stubStore{inventory: inventory, ledger: ledger}, false, zap.NewNop())

	cafe := &domain.Product{ID: 1, Name: "Café", Price: decimal.NewFromInt(850), Stock: 10}
	tostado := &domain.Product{ID: 2, Name: "Tostado", Price: decimal.NewFromInt(1200), Stock: 10}
	jugo := &domain.Product{ID: 3, Name: "Jugo Natural", Price: decimal.NewFromInt(600), Stock: 10}

	inventory.On("FindByID", mock.Anything, int64(1)).Return(cafe, nil)
	inventory.On("FindByID", mock.Anything, int64(2)).Return(tostado, nil)
	inventory.On("FindByID", mock.Anything, int64(3)).Return(jugo, nil)

	// Stock for the third line drops between validation and commit
	inventory.On("AdjustStock", mock.Anything, int64(1), -2).Return(cafe, nil).Once()
	inventory.On("AdjustStock", mock.Anything, int64(2), -3).Return(tostado, nil).Once()
	inventory.On("AdjustStock", mock.Anything, int64(3), -4).
		Return(nil, domain.NewInsufficientStock(3, "Jugo Natural", 4, 1)).Once()

	var order []int64
	inventory.On("AdjustStock", mock.Anything, int64(2), 3).
		Run(func(args mock.Arguments) { order = append(order, 2) }).Return(tostado, nil).Once()
	inventory.On("AdjustStock", mock.Anything, int64(1), 2).
		Run(func(args mock.Arguments) { order = append(order, 1) }).Return(cafe, nil).Once()

	outcome, err := engine.Process(context.Background(), candidate(line(cafe, 2), line(tostado, 3), line(jugo, 4)))

	require.ErrorIs(t, err, domain.ErrCommitConflict)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, domain.IsRetryable(err))
	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(3), conflict.ProductID)

	assert.Equal(t, StateRolledBack, outcome.State)
	assert.Nil(t, outcome.Sale)
	assert.Equal(t, []int64{2, 1}, order)
	inventory.AssertExpectations(t)
	ledger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestEngine_CompensatesWhenLedgerFails(t *testing.T) {
	inventory := new(MockInventory)
	ledger := new(MockLedger)
	engine := NewEngine(&stubStore{inventory: inventory, ledger: ledger}, false, zap.NewNop())

	cafe := &domain.Product{ID: 1, Name: "Café", Price: decimal.NewFromInt(850), Stock: 10}
	inventory.On("FindByID", mock.Anything, int64(1)).Return(cafe, nil)
	inventory.On("AdjustStock", mock.Anything, int64(1), -2).Return(cafe, nil).Once()
	inventory.On("AdjustStock", mock.Anything, int64(1), 2).Return(cafe, nil).Once()
	ledger.On("Append", mock.Anything, mock.AnythingOfType("*domain.Sale")).Return(nil, errors.New("disk full"))

	outcome, err := engine.Process(context.Background(), candidate(line(cafe, 2)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, domain.IsRetryable(err))
	assert.Equal(t, StateRolledBack, outcome.State)
	inventory.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestEngine_AppendsCompletedSale(t *testing.T) {
	inventory := new(MockInventory)
	ledger := new(MockLedger)
	engine := NewEngine(&stubStore{inventory: inventory, ledger: ledger}, false, zap.NewNop())

	cafe := &domain.Product{ID: 1, Name: "Café", Price: decimal.NewFromInt(850), Stock: 10}
	inventory.On("FindByID", mock.Anything, int64(1)).Return(cafe, nil)
	inventory.On("AdjustStock", mock.Anything, int64(1), -1).Return(cafe, nil)
	ledger.On("Append", mock.Anything, mock.MatchedBy(func(s *domain.Sale) bool {
		return s.Status == domain.SaleStatusCompleted && s.ID == 0
	})).Return(&domain.Sale{ID: 7, Status: domain.SaleStatusCompleted}, nil)

	in := candidate(line(cafe, 1))
	outcome, err := engine.Process(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, int64(7), outcome.Sale.ID)
	// The caller's candidate is left untouched
	assert.Equal(t, domain.SaleStatusPending, in.Status)
	ledger.AssertExpectations(t)
}

func TestEngine_ConcurrentSalesOnSameProduct(t *testing.T) {
	store := repository.NewMemoryStore()
	cafe := seedProduct(t, store, "Café", 850, 100)
	engine := NewEngine(store, false, zap.NewNop())

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = engine.Process(context.Background(), candidate(line(cafe, 60)))
		}(i)
	}
	wg.Wait()

	committed := 0
	for i := range outcomes {
		if outcomes[i].State == StateCommitted {
			committed++
			continue
		}
		assert.True(t, errors.Is(errs[i], domain.ErrInsufficientStock) || errors.Is(errs[i], domain.ErrCommitConflict))
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 40, stockOf(t, store, cafe.ID))
	assert.Equal(t, 1, ledgerSize(t, store))
}

// runStress fires many overlapping sales and checks that stock plus sold
// quantity is conserved and never negative.
func runStress(t *testing.T, store repository.Store) {
	t.Helper()
	products := []*domain.Product{
		seedProduct(t, store, "Café", 850, 30),
		seedProduct(t, store, "Medialunas", 450, 25),
		seedProduct(t, store, "Tostado", 1200, 20),
	}
	engine := NewEngine(store, false, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := products[i%3]
			b := products[(i+1)%3]
			outcome, err := engine.Process(context.Background(), candidate(line(a, 1+i%3), line(b, 1)))
			if err != nil {
				assert.Contains(t, []State{StateRejected, StateRolledBack}, outcome.State)
				assert.True(t, errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrCommitConflict),
					fmt.Sprintf("unexpected error: %v", err))
			}
		}(i)
	}
	wg.Wait()

	sales, err := store.Ledger().List(context.Background())
	require.NoError(t, err)

	sold := make(map[int64]int)
	for i, s := range sales {
		if i > 0 {
			assert.Greater(t, s.ID, sales[i-1].ID)
		}
		for _, item := range s.Items {
			sold[item.ProductID] += item.Quantity
		}
	}

	initial := map[int64]int{products[0].ID: 30, products[1].ID: 25, products[2].ID: 20}
	for id, start := range initial {
		stock := stockOf(t, store, id)
		assert.GreaterOrEqual(t, stock, 0)
		assert.Equal(t, start, stock+sold[id])
	}
}

func TestEngine_StressMemoryStore(t *testing.T) {
	runStress(t, repository.NewMemoryStore())
}

func TestEngine_StressSQLiteStore(t *testing.T) {
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "pos.db"), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	runStress(t, store)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "received", StateReceived.String())
	assert.Equal(t, "rolled_back", StateRolledBack.String())
	assert.True(t, StateCommitted.Terminal())
	assert.False(t, StateValidating.Terminal())
}
