package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gonzacha/nordia-pos/internal/catalog"
	"github.com/gonzacha/nordia-pos/internal/domain"
	"github.com/gonzacha/nordia-pos/internal/events"
	apperrors "github.com/gonzacha/nordia-pos/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type ProductHandler struct {
	logger   *zap.Logger
	catalog  *catalog.Service
	eventBus events.EventPublisher
}

func NewProductHandler(logger *zap.Logger, catalog *catalog.Service, eventBus events.EventPublisher) *ProductHandler {
	return &ProductHandler{
		logger:   logger,
		catalog:  catalog,
		eventBus: eventBus,
	}
}

// ListProducts handles GET /api/v1/products
// @Summary      List products
// @Description  Lista todos los productos del catálogo con su stock actual.
// @Tags         products
// @Produce      json
// @Success      200  {array}   domain.Product
// @Failure      500  {object}  ErrorResponse
// @Router       /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		c.Error(apperrors.NewDatabaseError("list products", err))
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /api/v1/products/:id
// @Summary      Get a product
// @Description  Obtiene un producto por ID. La respuesta puede venir del cache.
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  domain.Product
// @Failure      400  {object}  ErrorResponse  "ID inválido"
// @Failure      404  {object}  ErrorResponse  "Producto no encontrado"
// @Router       /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.productError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products
// @Summary      Create a product
// @Description  Agrega un producto al catálogo. El precio y el stock deben ser >= 0.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        X-Request-ID  header    string                false  "Request ID for idempotency"
// @Param        request       body      CreateProductRequest  true   "Product"
// @Success      201           {object}  domain.Product
// @Failure      400           {object}  ErrorResponse
// @Router       /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request", zap.Error(err))
		c.Error(apperrors.NewInvalidRequest("invalid request body", err.Error()))
		return
	}

	product, err := domain.NewProduct(req.Name, req.Price, req.Stock, req.Barcode, req.Category)
	if err != nil {
		c.Error(toStandardError(err))
		return
	}

	created, err := h.catalog.Create(c.Request.Context(), product)
	if err != nil {
		c.Error(apperrors.NewDatabaseError("create product", err))
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", created.ID), zap.String("name", created.Name))
	c.JSON(http.StatusCreated, created)
}

// SetStock handles PUT /api/v1/products/:id/stock
// @Summary      Set stock
// @Description  Reemplaza el stock de un producto (reposición o recuento). Acepta JSON o el parámetro de query `stock`.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id       path      int              true  "Product ID"
// @Param        request  body      SetStockRequest  true  "New stock"
// @Success      200      {object}  domain.Product
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /products/{id}/stock [put]
func (h *ProductHandler) SetStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SetStockRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperrors.NewValidationError("stock is required and must be >= 0", "stock"))
		return
	}

	before, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.productError(c, id, err)
		return
	}

	product, err := h.catalog.SetStock(c.Request.Context(), id, *req.Stock)
	if err != nil {
		h.productError(c, id, err)
		return
	}

	h.publishStock(c.Request.Context(), product, product.Stock-before.Stock, events.ReasonRestock)
	c.JSON(http.StatusOK, product)
}

// AdjustStock handles POST /api/v1/products/:id/adjust
// @Summary      Adjust stock
// @Description  Suma (entregas) o resta (roturas, mermas) unidades al stock. Nunca deja el stock en negativo.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id       path      int                 true  "Product ID"
// @Param        request  body      AdjustStockRequest  true  "Delta"
// @Success      200      {object}  domain.Product
// @Failure      400      {object}  ErrorResponse  "Delta inválido o stock insuficiente"
// @Failure      404      {object}  ErrorResponse
// @Router       /products/{id}/adjust [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("delta is required and must not be zero", "delta"))
		return
	}

	product, err := h.catalog.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		h.productError(c, id, err)
		return
	}

	h.logger.Info("Stock adjusted",
		zap.Int64("product_id", id),
		zap.Int("delta", req.Delta),
		zap.Int("new_stock", product.Stock),
		zap.String("reason", req.Reason))

	h.publishStock(c.Request.Context(), product, req.Delta, events.ReasonAdjustment)
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) productError(c *gin.Context, id int64, err error) {
	if catalog.IsNotFound(err) {
		c.Error(apperrors.NewResourceNotFound("product", id))
		return
	}
	c.Error(toStandardError(err))
}

func (h *ProductHandler) publishStock(ctx context.Context, product *domain.Product, delta int, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := events.StockAdjustedEvent{
		ProductID:  product.ID,
		Delta:      delta,
		NewStock:   product.Stock,
		Reason:     reason,
		OccurredAt: product.UpdatedAt,
	}
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Error("Failed to publish event", zap.Error(err), zap.Int64("product_id", product.ID))
	}
}

// parseID reads the :id path parameter and reports a 400 when malformed
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Error(apperrors.NewInvalidRequest("invalid id", "ID: "+c.Param("id")))
		return 0, false
	}
	return id, true
}
