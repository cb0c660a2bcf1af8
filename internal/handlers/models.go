package handlers

import (
	"time"

	"github.com/shopspring/decimal"
)

// ErrorResponse represents an error response
// @Description Error body returned by every endpoint
type ErrorResponse struct {
	// Error code
	Error string `json:"error" example:"InsufficientStock"`
	// Human readable message
	Message string `json:"message" example:"insufficient stock for Tostado"`
	// Offending product, quantities, field name
	Details string `json:"details" example:"Product ID: 3, Available: 2, Requested: 5"`
	// Set on CommitConflict: resubmitting the same sale may succeed
	Retryable bool `json:"retryable,omitempty" example:"false"`
}

// CreateProductRequest represents the request body for creating a product
// @Description Request to add a product to the catalog
type CreateProductRequest struct {
	Name     string          `json:"name" binding:"required" example:"Café"`
	Price    decimal.Decimal `json:"price" swaggertype:"number" example:"850"`
	Stock    int             `json:"stock" binding:"min=0" example:"100"`
	Barcode  string          `json:"barcode" example:"7798123456789"`
	Category string          `json:"category" example:"Bebidas"`
}

// SetStockRequest replaces the stock level of a product
type SetStockRequest struct {
	Stock *int `json:"stock" form:"stock" binding:"required,min=0" example:"120"`
}

// AdjustStockRequest applies a relative stock change
type AdjustStockRequest struct {
	// Positive for deliveries, negative for shrinkage
	Delta int `json:"delta" binding:"required" example:"-2"`
	// Free text, e.g. "entrega proveedor"
	Reason string `json:"reason" example:"rotura"`
}

// SaleItemRequest is one line of a sale
type SaleItemRequest struct {
	ProductID   int64           `json:"product_id" binding:"required" example:"1"`
	ProductName string          `json:"product_name" example:"Café"`
	Quantity    int             `json:"quantity" example:"2"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"number" example:"850"`
	Subtotal    decimal.Decimal `json:"subtotal" swaggertype:"number" example:"1700"`
}

// CreateSaleRequest represents the request body for submitting a sale
// @Description Sale submitted by the POS terminal
type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items"`
	Total         decimal.Decimal   `json:"total" swaggertype:"number" example:"1700"`
	PaymentMethod string            `json:"payment_method" example:"cash" enums:"cash,card,mercadopago"`
	CustomerEmail string            `json:"customer_email,omitempty" example:"cliente@nordia.com"`
}

// CreateSaleResponse is returned when a sale is committed
type CreateSaleResponse struct {
	SaleID  int64           `json:"sale_id" example:"1"`
	Total   decimal.Decimal `json:"total" swaggertype:"number" example:"1700"`
	Status  string          `json:"status" example:"completed"`
	Message string          `json:"message" example:"Venta procesada exitosamente"`
}

// ProcessPaymentRequest asks the payment provider to capture a payment
type ProcessPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" swaggertype:"number" example:"1700"`
	Description     string          `json:"description" example:"Venta #1"`
	CustomerEmail   string          `json:"customer_email" example:"cliente@nordia.com"`
	PaymentMethodID string          `json:"payment_method_id,omitempty" example:"master"`
}

// PaymentResponse is the provider answer. success=false means declined.
type PaymentResponse struct {
	Success   bool            `json:"success" example:"true"`
	PaymentID string          `json:"payment_id,omitempty" example:"DEMO-1700000000.123456"`
	Status    string          `json:"status,omitempty" example:"approved"`
	Amount    decimal.Decimal `json:"amount" swaggertype:"number" example:"1700"`
	Message   string          `json:"message,omitempty" example:"Pago simulado exitoso (modo desarrollo)"`
	Error     string          `json:"error,omitempty"`
}

// CreateQRRequest asks for a QR checkout; also accepted as query parameters
type CreateQRRequest struct {
	Amount      decimal.Decimal `json:"amount" form:"amount" swaggertype:"number" example:"500"`
	Description string          `json:"description" form:"description" example:"Mesa 4"`
}

// QRResponse carries the QR (or checkout URL) to show the customer
type QRResponse struct {
	Success      bool            `json:"success" example:"true"`
	PreferenceID string          `json:"preference_id,omitempty" example:"123456-abc"`
	QRCode       string          `json:"qr_code,omitempty" example:"https://api.qrserver.com/v1/create-qr-code/?size=300x300&data=DEMO-QR"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"number" example:"500"`
	Error        string          `json:"error,omitempty"`
}

// HealthResponse reports service and store health
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service" example:"nordia-pos-backend"`
	Store     string    `json:"store" example:"sqlite"`
}

// InfoResponse is served at /
type InfoResponse struct {
	Name      string            `json:"name" example:"Nordia POS API"`
	Version   string            `json:"version" example:"1.0.0"`
	Status    string            `json:"status" example:"running"`
	Endpoints map[string]string `json:"endpoints"`
}
