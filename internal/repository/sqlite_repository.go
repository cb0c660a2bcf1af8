package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gonzacha/nordia-pos/internal/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Fixed width so that TEXT comparison orders like time
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	price TEXT NOT NULL,
	stock INTEGER NOT NULL DEFAULT 0,
	barcode TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	CHECK(stock >= 0)
);

-- AUTOINCREMENT guarantees sale ids are never reused
CREATE TABLE IF NOT EXISTS sales (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	total TEXT NOT NULL,
	payment_method TEXT NOT NULL,
	customer_email TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	created_at TEXT NOT NULL,
	CHECK(status IN ('pending', 'completed'))
);

CREATE TABLE IF NOT EXISTS sale_items (
	sale_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	product_id INTEGER NOT NULL,
	product_name TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	unit_price TEXT NOT NULL,
	subtotal TEXT NOT NULL,
	PRIMARY KEY (sale_id, position),
	FOREIGN KEY (sale_id) REFERENCES sales(id) ON DELETE RESTRICT,
	CHECK(quantity > 0)
);

CREATE INDEX IF NOT EXISTS idx_products_barcode ON products(barcode);
CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);
`

// SQLiteStore persists the catalog and the ledger in one SQLite file.
// Writes go through a single writer mutex; reads use the connection pool.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex
	// created_at of the newest sale; guarded by mu
	lastSaleAt time.Time
}

// NewSQLiteStore opens (and migrates) the database at path
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	var last sql.NullString
	if err := db.QueryRow(`SELECT MAX(created_at) FROM sales`).Scan(&last); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read last sale: %w", err)
	}

	logger.Info("SQLite store ready", zap.String("path", path))

	return &SQLiteStore{db: db, logger: logger, lastSaleAt: parseSQLiteTime(last.String)}, nil
}

func (s *SQLiteStore) Inventory() InventoryStore { return &sqliteInventory{s} }
func (s *SQLiteStore) Ledger() SalesLedger       { return &sqliteLedger{s} }

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type sqliteInventory struct{ s *SQLiteStore }

const productColumns = `id, name, price, stock, barcode, category, created_at, updated_at`

func (r *sqliteInventory) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanSQLiteProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewProductNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

func (r *sqliteInventory) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanSQLiteProduct(rows)
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

func (r *sqliteInventory) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx, `
		INSERT INTO products (name, price, stock, barcode, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		product.Name, product.Price.String(), product.Stock, product.Barcode, product.Category,
		formatSQLiteTime(product.CreatedAt), formatSQLiteTime(product.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read product id: %w", err)
	}

	stored := *product
	stored.ID = id
	return &stored, nil
}

// AdjustStock is a conditional update: the row only changes when the result
// stays >= 0, so concurrent writers can never drive stock negative.
func (r *sqliteInventory) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?, updated_at = ?
		WHERE id = ? AND (stock + ?) >= 0`,
		delta, formatSQLiteTime(time.Now()), id, delta,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, domain.NewInsufficientStock(id, current.Name, -delta, current.Stock)
	}
	return current, nil
}

func (r *sqliteInventory) SetStock(ctx context.Context, id int64, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, domain.NewInvalidProduct("stock must be >= 0")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx, `UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`,
		stock, formatSQLiteTime(time.Now()), id)
	if err != nil {
		return nil, fmt.Errorf("failed to set stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.NewProductNotFound(id)
	}
	return r.FindByID(ctx, id)
}

type sqliteLedger struct{ s *SQLiteStore }

func (l *sqliteLedger) Append(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	stored := sale.Clone()
	stored.CreatedAt = time.Now().UTC()
	// Keep created_at order in step with id order even if the clock steps back
	if !stored.CreatedAt.After(l.s.lastSaleAt) {
		stored.CreatedAt = l.s.lastSaleAt.Add(time.Nanosecond)
	}

	tx, err := l.s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sales (total, payment_method, customer_email, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		stored.Total.String(), string(stored.PaymentMethod), stored.CustomerEmail,
		string(stored.Status), formatSQLiteTime(stored.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale: %w", err)
	}
	if stored.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read sale id: %w", err)
	}

	for i, item := range stored.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, position, product_id, product_name, quantity, unit_price, subtotal)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			stored.ID, i, item.ProductID, item.ProductName, item.Quantity,
			item.UnitPrice.String(), item.Subtotal.String(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert sale item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}
	l.s.lastSaleAt = stored.CreatedAt
	return stored, nil
}

const saleColumns = `id, total, payment_method, customer_email, status, created_at`

func (l *sqliteLedger) FindByID(ctx context.Context, id int64) (*domain.Sale, error) {
	sales, err := l.query(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, domain.ErrSaleNotFound
	}
	return &sales[0], nil
}

func (l *sqliteLedger) List(ctx context.Context) ([]domain.Sale, error) {
	return l.query(ctx, `ORDER BY id`)
}

func (l *sqliteLedger) ListInRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error) {
	return l.query(ctx, `WHERE created_at >= ? AND created_at < ? ORDER BY created_at, id`,
		formatSQLiteTime(start), formatSQLiteTime(end))
}

// query loads the sales matched by clause together with their items
func (l *sqliteLedger) query(ctx context.Context, clause string, args ...interface{}) ([]domain.Sale, error) {
	rows, err := l.s.db.QueryContext(ctx, `SELECT `+saleColumns+` FROM sales `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var (
			sale               domain.Sale
			total, method      string
			status, createdStr string
		)
		if err := rows.Scan(&sale.ID, &total, &method, &sale.CustomerEmail, &status, &createdStr); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		if sale.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invalid total for sale %d: %w", sale.ID, err)
		}
		sale.PaymentMethod = domain.PaymentMethod(method)
		sale.Status = domain.SaleStatus(status)
		sale.CreatedAt = parseSQLiteTime(createdStr)
		sale.Items = make([]domain.SaleItem, 0)
		index[sale.ID] = len(sales)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}
	if len(sales) == 0 {
		return sales, nil
	}

	ids := make([]interface{}, 0, len(sales))
	for _, s := range sales {
		ids = append(ids, s.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	itemRows, err := l.s.db.QueryContext(ctx, `
		SELECT sale_id, product_id, product_name, quantity, unit_price, subtotal
		FROM sale_items
		WHERE sale_id IN (`+placeholders+`)
		ORDER BY sale_id, position`, ids...)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                    domain.Product
		price                string
		createdStr, updatedS string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Stock, &p.Barcode, &p.Category, &createdStr, &updatedS); err != nil {
		return nil, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid price for product %d: %w", p.ID, err)
	}
	p.CreatedAt = parseSQLiteTime(createdStr)
	p.UpdatedAt = parseSQLiteTime(updatedS)
	return &p, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
