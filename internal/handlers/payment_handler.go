package handlers

import (
	"net/http"

	"github.com/gonzacha/nordia-pos/internal/payments"
	apperrors "github.com/gonzacha/nordia-pos/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	logger   *zap.Logger
	provider payments.Provider
}

func NewPaymentHandler(logger *zap.Logger, provider payments.Provider) *PaymentHandler {
	return &PaymentHandler{
		logger:   logger,
		provider: provider,
	}
}

// ProcessPayment handles POST /api/v1/payments/process
// @Summary      Process a card payment
// @Description  Cobra con MercadoPago en producción; en desarrollo el pago se simula y siempre se aprueba.
// @Description  Un pago rechazado responde 200 con success=false.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Request-ID  header    string                 false  "Request ID for idempotency"
// @Param        request       body      ProcessPaymentRequest  true   "Payment"
// @Success      200           {object}  PaymentResponse
// @Failure      400           {object}  ErrorResponse
// @Failure      502           {object}  ErrorResponse  "Proveedor de pagos no disponible"
// @Router       /payments/process [post]
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest("invalid request body", err.Error()))
		return
	}
	if !req.Amount.IsPositive() {
		c.Error(apperrors.NewValidationError("amount must be > 0", "amount"))
		return
	}

	result, err := h.provider.ProcessPayment(c.Request.Context(), payments.PaymentRequest{
		Amount:          req.Amount,
		Description:     req.Description,
		CustomerEmail:   req.CustomerEmail,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		h.logger.Error("Payment provider failed", zap.String("provider", h.provider.Name()), zap.Error(err))
		c.Error(apperrors.NewPaymentFailed(err))
		return
	}

	h.logger.Info("Payment processed",
		zap.String("provider", h.provider.Name()),
		zap.Bool("success", result.Success),
		zap.String("payment_id", result.PaymentID),
		zap.String("amount", req.Amount.String()))

	c.JSON(http.StatusOK, PaymentResponse{
		Success:   result.Success,
		PaymentID: result.PaymentID,
		Status:    result.Status,
		Amount:    result.Amount,
		Message:   result.Message,
		Error:     result.Error,
	})
}

// CreateQR handles POST /api/v1/payments/qr
// @Summary      Create a QR checkout
// @Description  Genera un QR para cobrar con la app de MercadoPago. Acepta JSON o parámetros de query.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        amount       query     number           false  "Amount"
// @Param        description  query     string           false  "Description"
// @Param        request      body      CreateQRRequest  false  "QR request"
// @Success      200          {object}  QRResponse
// @Failure      400          {object}  ErrorResponse
// @Failure      502          {object}  ErrorResponse
// @Router       /payments/qr [post]
func (h *PaymentHandler) CreateQR(c *gin.Context) {
	var req CreateQRRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest("invalid request", err.Error()))
		return
	}
	if !req.Amount.IsPositive() {
		c.Error(apperrors.NewValidationError("amount must be > 0", "amount"))
		return
	}

	result, err := h.provider.CreateQR(c.Request.Context(), payments.QRRequest{
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error("QR creation failed", zap.String("provider", h.provider.Name()), zap.Error(err))
		c.Error(apperrors.NewPaymentFailed(err))
		return
	}

	c.JSON(http.StatusOK, QRResponse{
		Success:      result.Success,
		PreferenceID: result.PreferenceID,
		QRCode:       result.QRCode,
		Amount:       result.Amount,
		Error:        result.Error,
	})
}
