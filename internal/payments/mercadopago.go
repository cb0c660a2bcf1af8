package payments

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MercadoPagoProvider talks to the MercadoPago REST API
type MercadoPagoProvider struct {
	client *resty.Client
	logger *zap.Logger
	now    func() time.Time
}

type mpPayer struct {
	Email string `json:"email"`
}

type mpPaymentRequest struct {
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Description       string          `json:"description"`
	PaymentMethodID   string          `json:"payment_method_id"`
	Payer             mpPayer         `json:"payer"`
	ExternalReference string          `json:"external_reference"`
}

type mpPaymentResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type mpPreferenceItem struct {
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type mpPreferenceRequest struct {
	Items      []mpPreferenceItem `json:"items"`
	BackURLs   map[string]string  `json:"back_urls"`
	AutoReturn string             `json:"auto_return"`
}

type mpPreferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

func NewMercadoPagoProvider(baseURL, accessToken string, logger *zap.Logger) *MercadoPagoProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(accessToken).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Content-Type", "application/json")

	return &MercadoPagoProvider{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

func (p *MercadoPagoProvider) Name() string { return "mercadopago" }

func (p *MercadoPagoProvider) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	methodID := req.PaymentMethodID
	if methodID == "" {
		methodID = "master"
	}
	now := p.now()
	body := mpPaymentRequest{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		PaymentMethodID:   methodID,
		Payer:             mpPayer{Email: req.CustomerEmail},
		ExternalReference: fmt.Sprintf("nordia_pos_%d.%06d", now.Unix(), now.Nanosecond()/1000),
	}

	var out mpPaymentResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("X-Idempotency-Key", uuid.New().String()).
		SetBody(body).
		SetResult(&out).
		Post("/v1/payments")
	if err != nil {
		p.logger.Error("MercadoPago payment request failed", zap.Error(err))
		return nil, fmt.Errorf("mercadopago payment request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusCreated {
		p.logger.Warn("MercadoPago rejected payment",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()))
		return &PaymentResult{Success: false, Amount: req.Amount, Error: resp.String()}, nil
	}

	p.logger.Info("Payment processed",
		zap.Int64("payment_id", out.ID),
		zap.String("status", out.Status))

	return &PaymentResult{
		Success:   true,
		PaymentID: fmt.Sprintf("%d", out.ID),
		Status:    out.Status,
		Amount:    req.Amount,
	}, nil
}

func (p *MercadoPagoProvider) CreateQR(ctx context.Context, req QRRequest) (*QRResult, error) {
	body := mpPreferenceRequest{
		Items: []mpPreferenceItem{{
			Title:     req.Description,
			Quantity:  1,
			UnitPrice: req.Amount,
		}},
		BackURLs: map[string]string{
			"success": "http://localhost:3000/success",
			"failure": "http://localhost:3000/failure",
			"pending": "http://localhost:3000/pending",
		},
		AutoReturn: "approved",
	}

	var out mpPreferenceResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/checkout/preferences")
	if err != nil {
		p.logger.Error("MercadoPago preference request failed", zap.Error(err))
		return nil, fmt.Errorf("mercadopago preference request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusCreated {
		p.logger.Warn("MercadoPago rejected preference",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()))
		return &QRResult{Success: false, Amount: req.Amount, Error: resp.String()}, nil
	}

	return &QRResult{
		Success:      true,
		PreferenceID: out.ID,
		QRCode:       out.InitPoint,
		Amount:       req.Amount,
	}, nil
}
