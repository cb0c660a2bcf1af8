package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus is the lifecycle status of a sale
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
)

// PaymentMethod is how the customer pays for a sale
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentMercadoPago PaymentMethod = "mercadopago"
)

// Valid reports whether m is one of the supported payment methods
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMercadoPago:
		return true
	}
	return false
}

// SaleItem is one line of a sale. Name and unit price are snapshots taken
// when the sale was rung up and never re-derived from the catalog.
type SaleItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ExpectedSubtotal is quantity x unit price
func (i SaleItem) ExpectedSubtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Sale is a candidate (pending, ID zero) until the sale engine commits it.
// A committed sale is never modified.
type Sale struct {
	ID            int64           `json:"id"`
	Items         []SaleItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	Status        SaleStatus      `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewCandidateSale builds a pending sale from caller-supplied lines
func NewCandidateSale(items []SaleItem, total decimal.Decimal, method PaymentMethod, customerEmail string) *Sale {
	lines := make([]SaleItem, len(items))
	copy(lines, items)
	return &Sale{
		Items:         lines,
		Total:         total,
		PaymentMethod: method,
		CustomerEmail: customerEmail,
		Status:        SaleStatusPending,
	}
}

// CheckStructure validates the sale-level fields that need no inventory.
// Line checks run per item through CheckLine.
func (s *Sale) CheckStructure() error {
	if len(s.Items) == 0 {
		return NewInvalidSale("a sale needs at least one item")
	}
	if s.PaymentMethod != "" && !s.PaymentMethod.Valid() {
		return NewInvalidSale(fmt.Sprintf("unsupported payment method %q", s.PaymentMethod))
	}
	return nil
}

// CheckLine validates item i. With strictTotals its subtotal must equal
// quantity x unit price.
func (s *Sale) CheckLine(i int, strictTotals bool) error {
	item := s.Items[i]
	if item.Quantity <= 0 {
		return NewInvalidSale(fmt.Sprintf("item %d (product %d): quantity must be > 0", i, item.ProductID))
	}
	if strictTotals {
		if expected := item.ExpectedSubtotal(); !expected.Equal(item.Subtotal) {
			return NewTotalMismatch(fmt.Sprintf("item %d (product %d): subtotal %s, expected %s",
				i, item.ProductID, item.Subtotal, expected))
		}
	}
	return nil
}

// CheckTotal verifies total = sum of subtotals
func (s *Sale) CheckTotal() error {
	sum := decimal.Zero
	for _, item := range s.Items {
		sum = sum.Add(item.Subtotal)
	}
	if !sum.Equal(s.Total) {
		return NewTotalMismatch(fmt.Sprintf("total %s, sum of subtotals %s", s.Total, sum))
	}
	return nil
}

// Clone returns a deep copy so stores never share item slices with callers
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	c := *s
	c.Items = make([]SaleItem, len(s.Items))
	copy(c.Items, s.Items)
	return &c
}
