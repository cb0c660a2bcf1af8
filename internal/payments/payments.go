package payments

import (
	"context"

	"github.com/gonzacha/nordia-pos/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentRequest asks the provider to capture a card payment
type PaymentRequest struct {
	Amount        decimal.Decimal
	Description   string
	CustomerEmail string
	// PaymentMethodID is the provider's card brand id, "master" by default
	PaymentMethodID string
}

// PaymentResult mirrors the provider answer. A declined payment is a
// successful call with Success false.
type PaymentResult struct {
	Success   bool
	PaymentID string
	Status    string
	Amount    decimal.Decimal
	Message   string
	// Raw provider error payload when Success is false
	Error string
}

// QRRequest asks for a checkout preference the customer pays by scanning
type QRRequest struct {
	Amount      decimal.Decimal
	Description string
}

type QRResult struct {
	Success      bool
	PreferenceID string
	QRCode       string
	Amount       decimal.Decimal
	Error        string
}

// Provider captures payments. Errors are transport failures; business
// declines come back in the result.
type Provider interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	CreateQR(ctx context.Context, req QRRequest) (*QRResult, error)
	Name() string
}

// NewProvider returns the simulator in development and the MercadoPago
// client in every other environment.
func NewProvider(cfg *config.Config, logger *zap.Logger) Provider {
	if cfg.IsDevelopment() {
		logger.Info("Using simulated payment provider", zap.String("environment", cfg.Environment))
		return NewSimulatedProvider()
	}
	logger.Info("Using MercadoPago payment provider",
		zap.String("environment", cfg.Environment),
		zap.String("base_url", cfg.MercadoPagoBaseURL))
	return NewMercadoPagoProvider(cfg.MercadoPagoBaseURL, cfg.MercadoPagoAccessToken, logger)
}
