package handlers

import (
	"net/http"
	"time"

	"github.com/gonzacha/nordia-pos/internal/stats"
	apperrors "github.com/gonzacha/nordia-pos/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatsHandler struct {
	logger *zap.Logger
	stats  *stats.Service
	loc    *time.Location
}

func NewStatsHandler(logger *zap.Logger, stats *stats.Service, loc *time.Location) *StatsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &StatsHandler{logger: logger, stats: stats, loc: loc}
}

// Today handles GET /api/v1/stats/today
// @Summary      Today's sales
// @Description  Cantidad de ventas, recaudación y ticket promedio del día.
// @Tags         stats
// @Produce      json
// @Success      200  {object}  stats.Summary
// @Failure      500  {object}  ErrorResponse
// @Router       /stats/today [get]
func (h *StatsHandler) Today(c *gin.Context) {
	summary, err := h.stats.Today(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to compute stats", zap.Error(err))
		c.Error(apperrors.NewDatabaseError("stats", err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Day handles GET /api/v1/stats/day?date=2024-05-01
// @Summary      Sales for a given day
// @Tags         stats
// @Produce      json
// @Param        date  query     string  true  "Day (YYYY-MM-DD)"
// @Success      200   {object}  stats.Summary
// @Failure      400   {object}  ErrorResponse
// @Router       /stats/day [get]
func (h *StatsHandler) Day(c *gin.Context) {
	day, err := time.ParseInLocation("2006-01-02", c.Query("date"), h.loc)
	if err != nil {
		c.Error(apperrors.NewValidationError("date must be YYYY-MM-DD", "date"))
		return
	}

	summary, err := h.stats.Range(c.Request.Context(), day, day.AddDate(0, 0, 1))
	if err != nil {
		h.logger.Error("Failed to compute stats", zap.Error(err))
		c.Error(apperrors.NewDatabaseError("stats", err))
		return
	}
	c.JSON(http.StatusOK, summary)
}
