package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gonzacha/nordia-pos/internal/catalog"
	"github.com/gonzacha/nordia-pos/internal/domain"
	"github.com/gonzacha/nordia-pos/internal/events"
	"github.com/gonzacha/nordia-pos/internal/repository"
	"github.com/gonzacha/nordia-pos/internal/sales"
	apperrors "github.com/gonzacha/nordia-pos/pkg/errors"
	"github.com/gonzacha/nordia-pos/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SaleProcessor commits candidate sales. Implemented by *sales.Engine.
type SaleProcessor interface {
	Process(ctx context.Context, candidate *domain.Sale) (sales.Outcome, error)
}

type SaleHandler struct {
	logger    *zap.Logger
	processor SaleProcessor
	ledger    repository.SalesLedger
	catalog   *catalog.Service
	eventBus  events.EventPublisher
}

func NewSaleHandler(logger *zap.Logger, processor SaleProcessor, ledger repository.SalesLedger, catalog *catalog.Service, eventBus events.EventPublisher) *SaleHandler {
	return &SaleHandler{
		logger:    logger,
		processor: processor,
		ledger:    ledger,
		catalog:   catalog,
		eventBus:  eventBus,
	}
}

// CreateSale handles POST /api/v1/sales
// @Summary      Process a sale
// @Description  Valida stock de todas las líneas y registra la venta de forma atómica: o se descuenta todo o nada.
// @Description  Enviar el mismo X-Request-ID en un reintento devuelve la respuesta original sin duplicar la venta.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        X-Request-ID  header    string             false  "Request ID for idempotency"
// @Param        request       body      CreateSaleRequest  true   "Sale"
// @Success      200           {object}  CreateSaleResponse
// @Failure      400           {object}  ErrorResponse  "InvalidSale, TotalMismatch, ProductNotFound o InsufficientStock"
// @Failure      409           {object}  ErrorResponse  "CommitConflict (retryable)"
// @Failure      500           {object}  ErrorResponse
// @Router       /sales [post]
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request", zap.Error(err))
		c.Error(apperrors.NewInvalidRequest("invalid request body", err.Error()))
		return
	}

	items := make([]domain.SaleItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.SaleItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = domain.PaymentCash
	}
	candidate := domain.NewCandidateSale(items, req.Total, method, req.CustomerEmail)

	outcome, err := h.processor.Process(c.Request.Context(), candidate)
	if err != nil {
		h.logger.Warn("Sale not processed",
			zap.String("state", outcome.State.String()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
		c.Error(toStandardError(err))
		return
	}

	sale := outcome.Sale
	// Stock changed, so cached product reads are stale
	h.catalog.Invalidate(context.WithoutCancel(c.Request.Context()))
	h.publish(c.Request.Context(), events.NewSaleCompletedEvent(sale))

	c.JSON(http.StatusOK, CreateSaleResponse{
		SaleID:  sale.ID,
		Total:   sale.Total,
		Status:  string(sale.Status),
		Message: "Venta procesada exitosamente",
	})
}

// ListSales handles GET /api/v1/sales
// @Summary      List sales
// @Description  Lista las ventas registradas, opcionalmente filtradas por rango [from, to) en RFC3339.
// @Tags         sales
// @Produce      json
// @Param        from  query     string  false  "Inclusive lower bound (RFC3339)"
// @Param        to    query     string  false  "Exclusive upper bound (RFC3339)"
// @Success      200   {array}   domain.Sale
// @Failure      400   {object}  ErrorResponse
// @Router       /sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")

	var (
		list []domain.Sale
		err  error
	)
	if from == "" && to == "" {
		list, err = h.ledger.List(c.Request.Context())
	} else {
		start, end, ok := parseRange(c, from, to)
		if !ok {
			return
		}
		list, err = h.ledger.ListInRange(c.Request.Context(), start, end)
	}
	if err != nil {
		c.Error(apperrors.NewDatabaseError("list sales", err))
		return
	}
	if list == nil {
		list = []domain.Sale{}
	}
	c.JSON(http.StatusOK, list)
}

// GetSale handles GET /api/v1/sales/:id
// @Summary      Get a sale
// @Description  Devuelve una venta registrada con sus líneas.
// @Tags         sales
// @Produce      json
// @Param        id   path      int  true  "Sale ID"
// @Success      200  {object}  domain.Sale
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse  "SaleNotFound"
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	sale, err := h.ledger.FindByID(c.Request.Context(), id)
	if err != nil {
		c.Error(toStandardError(err))
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *SaleHandler) publish(ctx context.Context, event events.SaleCompletedEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := h.eventBus.Publish(ctx, event); err != nil {
		// The sale is committed; a lost event does not undo it
		h.logger.Error("Failed to publish event", zap.Error(err), zap.Int64("sale_id", event.SaleID))
	}
}

var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

func parseRange(c *gin.Context, from, to string) (time.Time, time.Time, bool) {
	start, end := time.Time{}, farFuture
	var err error
	if from != "" {
		if start, err = time.Parse(time.RFC3339, from); err != nil {
			c.Error(apperrors.NewValidationError("from must be RFC3339", "from"))
			return start, end, false
		}
	}
	if to != "" {
		if end, err = time.Parse(time.RFC3339, to); err != nil {
			c.Error(apperrors.NewValidationError("to must be RFC3339", "to"))
			return start, end, false
		}
	}
	if !start.Before(end) {
		c.Error(apperrors.NewValidationError("from must be before to", "from"))
		return start, end, false
	}
	return start, end, true
}
