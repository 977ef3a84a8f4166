package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/service"
	"github.com/parkfan/occupancy-analytics/pkg/response"
)

// BaselineHandler handles HTTP requests for percentile baselines
type BaselineHandler struct {
	service *service.AnalyticsService
}

// NewBaselineHandler creates a new baseline handler
func NewBaselineHandler(service *service.AnalyticsService) *BaselineHandler {
	return &BaselineHandler{service: service}
}

// GetBaseline handles GET /api/v1/baselines/:entityType/:entityId
func (h *BaselineHandler) GetBaseline(c *gin.Context) {
	var params models.BaselineParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	baseline, err := h.service.Baseline(c.Request.Context(), c.Param("entityType"), c.Param("entityId"), params)
	if err != nil {
		fail(c, "Failed to compute baseline", err)
		return
	}
	response.Success(c, baseline)
}
