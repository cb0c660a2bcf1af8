package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gonzacha/nordia-pos/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	price NUMERIC NOT NULL CHECK (price >= 0),
	stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	barcode VARCHAR(100) NOT NULL DEFAULT '',
	category VARCHAR(100) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sales (
	id BIGINT PRIMARY KEY,
	total NUMERIC NOT NULL,
	payment_method VARCHAR(50) NOT NULL,
	customer_email VARCHAR(255) NOT NULL DEFAULT '',
	status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'completed')),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sale_items (
	sale_id BIGINT NOT NULL REFERENCES sales(id) ON DELETE RESTRICT,
	position INTEGER NOT NULL,
	product_id BIGINT NOT NULL,
	product_name VARCHAR(255) NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price NUMERIC NOT NULL,
	subtotal NUMERIC NOT NULL,
	PRIMARY KEY (sale_id, position)
);

ALTER TABLE products ALTER COLUMN price TYPE NUMERIC;
ALTER TABLE sales ALTER COLUMN total TYPE NUMERIC;
ALTER TABLE sale_items ALTER COLUMN unit_price TYPE NUMERIC;
ALTER TABLE sale_items ALTER COLUMN subtotal TYPE NUMERIC;
ALTER TABLE sales ALTER COLUMN id DROP DEFAULT;

CREATE INDEX IF NOT EXISTS idx_products_barcode ON products(barcode);
CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);
`

// Serializes ledger appends so ids stay gapless and id order and created_at
// order agree. Ids come from MAX(id)+1 under this lock, so a rolled back
// append consumes nothing.
const ledgerAppendLockKey int64 = 0x4e4f5244

// PostgresStore persists the catalog and the ledger in PostgreSQL
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to dsn, waiting for the database to come up,
// and applies the schema.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ready := false
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			ready = true
			break
		}
		logger.Info("Waiting for database", zap.Int("attempt", i+1))
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	if !ready {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database after 30 attempts")
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("PostgreSQL store ready")

	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Inventory() InventoryStore { return &postgresInventory{pool: s.pool} }
func (s *PostgresStore) Ledger() SalesLedger       { return &postgresLedger{pool: s.pool} }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type postgresInventory struct {
	pool *pgxpool.Pool
}

const pgProductColumns = `id, name, price::text, stock, barcode, category, created_at, updated_at`

func (r *postgresInventory) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+pgProductColumns+` FROM products WHERE id = $1`, id)
	p, err := scanPostgresProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewProductNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

func (r *postgresInventory) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pgProductColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanPostgresProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func (r *postgresInventory) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	stored := *product
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, price, stock, barcode, category, created_at, updated_at)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)
		RETURNING id`,
		product.Name, product.Price.String(), product.Stock, product.Barcode, product.Category,
		product.CreatedAt, product.UpdatedAt,
	).Scan(&stored.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &stored, nil
}

// AdjustStock relies on the row lock taken by UPDATE: the predicate is
// re-evaluated against the latest committed stock.
func (r *postgresInventory) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2 AND stock + $1 >= 0
		RETURNING `+pgProductColumns,
		delta, id,
	)
	p, err := scanPostgresProduct(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, domain.NewInsufficientStock(id, current.Name, -delta, current.Stock)
}

func (r *postgresInventory) SetStock(ctx context.Context, id int64, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, domain.NewInvalidProduct("stock must be >= 0")
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE products SET stock = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+pgProductColumns,
		stock, id,
	)
	p, err := scanPostgresProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewProductNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set stock: %w", err)
	}
	return p, nil
}

type postgresLedger struct {
	pool *pgxpool.Pool
}

func (l *postgresLedger) Append(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	stored := sale.Clone()

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerAppendLockKey); err != nil {
		return nil, fmt.Errorf("failed to lock ledger: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO sales (id, total, payment_method, customer_email, status, created_at)
		VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM sales), $1::numeric, $2, $3, $4, GREATEST(clock_timestamp(), COALESCE((SELECT MAX(created_at) FROM sales), '-infinity')))
		RETURNING id, created_at`,
		stored.Total.String(), string(stored.PaymentMethod), stored.CustomerEmail, string(stored.Status),
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale: %w", err)
	}

	batch := &pgx.Batch{}
	for i, item := range stored.Items {
		batch.Queue(`
			INSERT INTO sale_items (sale_id, position, product_id, product_name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric)`,
			stored.ID, i, item.ProductID, item.ProductName, item.Quantity,
			item.UnitPrice.String(), item.Subtotal.String(),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to insert sale items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()
	return stored, nil
}

const pgSaleColumns = `id, total::text, payment_method, customer_email, status, created_at`

func (l *postgresLedger) FindByID(ctx context.Context, id int64) (*domain.Sale, error) {
	sales, err := l.query(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, domain.ErrSaleNotFound
	}
	return &sales[0], nil
}

func (l *postgresLedger) List(ctx context.Context) ([]domain.Sale, error) {
	return l.query(ctx, `ORDER BY id`)
}

func (l *postgresLedger) ListInRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error) {
	return l.query(ctx, `WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at, id`, start, end)
}

func (l *postgresLedger) query(ctx context.Context, clause string, args ...any) ([]domain.Sale, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+pgSaleColumns+` FROM sales `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	index := make(map[int64]int)
	ids := make([]int64, 0)
	for rows.Next() {
		var (
			sale                  domain.Sale
			total, method, status string
		)
		if err := rows.Scan(&sale.ID, &total, &method, &sale.CustomerEmail, &status, &sale.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		if sale.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invalid total for sale %d: %w", sale.ID, err)
		}
		sale.PaymentMethod = domain.PaymentMethod(method)
		sale.Status = domain.SaleStatus(status)
		sale.CreatedAt = sale.CreatedAt.UTC()
		sale.Items = make([]domain.SaleItem, 0)
		index[sale.ID] = len(sales)
		ids = append(ids, sale.ID)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}
	if len(sales) == 0 {
		return sales, nil
	}

	itemRows, err := l.pool.Query(ctx, `
		SELECT sale_id, product_id, product_name, quantity, unit_price::text, subtotal::text
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			saleID              int64
			item                domain.SaleItem
			unitPrice, subtotal string
		)
		if err := itemRows.Scan(&saleID, &item.ProductID, &item.ProductName, &item.Quantity, &unitPrice, &subtotal); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("invalid unit price for sale %d: %w", saleID, err)
		}
		if item.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, fmt.Errorf("invalid subtotal for sale %d: %w", saleID, err)
		}
		i := index[saleID]
		sales[i].Items = append(sales[i].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale items: %w", err)
	}
	return sales, nil
}

func scanPostgresProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Stock, &p.Barcode, &p.Category, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid price for product %d: %w", p.ID, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
