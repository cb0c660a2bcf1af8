package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is owned by the inventory store and only
// changes through its stock adjustment operations.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Barcode   string          `json:"barcode,omitempty"`
	Category  string          `json:"category,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewProduct creates a product that has not been stored yet (ID is zero)
func NewProduct(name string, price decimal.Decimal, stock int, barcode, category string) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewInvalidProduct("name is required")
	}
	if price.IsNegative() {
		return nil, NewInvalidProduct("price must be >= 0")
	}
	if stock < 0 {
		return nil, NewInvalidProduct("stock must be >= 0")
	}

	now := time.Now().UTC()
	return &Product{
		Name:      name,
		Price:     price,
		Stock:     stock,
		Barcode:   barcode,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AdjustStock applies delta to the stock. The product is left untouched when
// the result would be negative.
func (p *Product) AdjustStock(delta int) error {
	newStock := p.Stock + delta
	if newStock < 0 {
		return &StockError{
			Kind:        ErrInsufficientStock,
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   -delta,
			Available:   p.Stock,
		}
	}
	p.Stock = newStock
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// SetStock replaces the stock level (restock / stock count)
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return NewInvalidProduct("stock must be >= 0")
	}
	p.Stock = stock
	p.UpdatedAt = time.Now().UTC()
	return nil
}
