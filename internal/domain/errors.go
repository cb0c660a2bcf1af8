package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error kind
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Domain errors
var (
	ErrProductNotFound   = &DomainError{Code: "ProductNotFound", Message: "product not found"}
	ErrInsufficientStock = &DomainError{Code: "InsufficientStock", Message: "insufficient stock available"}
	ErrCommitConflict    = &DomainError{Code: "CommitConflict", Message: "stock changed during commit"}
	ErrInvalidSale       = &DomainError{Code: "InvalidSale", Message: "invalid sale"}
	ErrTotalMismatch     = &DomainError{Code: "TotalMismatch", Message: "sale totals do not match line items"}
	ErrInvalidProduct    = &DomainError{Code: "InvalidProduct", Message: "invalid product"}
	ErrSaleNotFound      = &DomainError{Code: "SaleNotFound", Message: "sale not found"}
)

// StockError identifies the product behind a not-found or insufficient-stock
// outcome. It unwraps to ErrProductNotFound or ErrInsufficientStock.
type StockError struct {
	Kind        *DomainError
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	if e.Kind == ErrProductNotFound {
		return fmt.Sprintf("product %d not found", e.ProductID)
	}
	return fmt.Sprintf("insufficient stock for %s (product %d): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return e.Kind
}

// NewProductNotFound reports a missing product id
func NewProductNotFound(productID int64) *StockError {
	return &StockError{Kind: ErrProductNotFound, ProductID: productID}
}

// NewInsufficientStock reports a line whose quantity exceeds the available stock
func NewInsufficientStock(productID int64, productName string, requested, available int) *StockError {
	return &StockError{
		Kind:        ErrInsufficientStock,
		ProductID:   productID,
		ProductName: productName,
		Requested:   requested,
		Available:   available,
	}
}

// ConflictError is returned when a stock adjustment fails after validation
// passed. Every adjustment applied before it has been undone.
type ConflictError struct {
	ProductID int64
	Cause     error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("commit conflict on product %d: %v", e.ProductID, e.Cause)
}

func (e *ConflictError) Unwrap() []error {
	return []error{ErrCommitConflict, e.Cause}
}

// ValidationError wraps a structural problem with a candidate sale or product
type ValidationError struct {
	Kind   *DomainError
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Kind.Message + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func NewInvalidSale(reason string) *ValidationError {
	return &ValidationError{Kind: ErrInvalidSale, Reason: reason}
}

func NewTotalMismatch(reason string) *ValidationError {
	return &ValidationError{Kind: ErrTotalMismatch, Reason: reason}
}

func NewInvalidProduct(reason string) *ValidationError {
	return &ValidationError{Kind: ErrInvalidProduct, Reason: reason}
}

// IsRetryable reports whether resubmitting the same sale may succeed
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCommitConflict)
}
