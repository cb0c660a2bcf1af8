package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is the part of the store the health check needs
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	logger      *zap.Logger
	store       Pinger
	serviceName string
	storeDriver string
	version     string
}

func NewHealthHandler(logger *zap.Logger, store Pinger, serviceName, storeDriver, version string) *HealthHandler {
	return &HealthHandler{
		logger:      logger,
		store:       store,
		serviceName: serviceName,
		storeDriver: storeDriver,
		version:     version,
	}
}

// Info handles GET /
// @Summary      API info
// @Tags         health
// @Produce      json
// @Success      200  {object}  InfoResponse
// @Router       / [get]
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Name:    "Nordia POS API",
		Version: h.version,
		Status:  "running",
		Endpoints: map[string]string{
			"health":   "/api/v1/health",
			"products": "/api/v1/products",
			"sales":    "/api/v1/sales",
			"payments": "/api/v1/payments",
			"stats":    "/api/v1/stats/today",
			"docs":     "/swagger/index.html",
		},
	})
}

// Health handles GET /api/v1/health
// @Summary      Health check
// @Description  Verifica que el servicio y el almacenamiento respondan.
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Store:     h.storeDriver,
	}
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Store health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
