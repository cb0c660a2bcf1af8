package payments

import (
	"context"
	"fmt"
	"time"
)

const demoQRCode = "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data=DEMO-QR"

// SimulatedProvider approves everything. Used outside production.
type SimulatedProvider struct {
	now func() time.Time
}

func NewSimulatedProvider() *SimulatedProvider {
	return &SimulatedProvider{now: time.Now}
}

func (p *SimulatedProvider) Name() string { return "simulated" }

func (p *SimulatedProvider) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	now := p.now()
	return &PaymentResult{
		Success:   true,
		PaymentID: fmt.Sprintf("DEMO-%d.%06d", now.Unix(), now.Nanosecond()/1000),
		Status:    "approved",
		Amount:    req.Amount,
		Message:   "Pago simulado exitoso (modo desarrollo)",
	}, nil
}

func (p *SimulatedProvider) CreateQR(ctx context.Context, req QRRequest) (*QRResult, error) {
	return &QRResult{
		Success: true,
		QRCode:  demoQRCode,
		Amount:  req.Amount,
	}, nil
}
