package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/service"
	"github.com/parkfan/occupancy-analytics/pkg/response"
)

// OccupancyHandler handles HTTP requests for park occupancy
type OccupancyHandler struct {
	service *service.AnalyticsService
}

// NewOccupancyHandler creates a new occupancy handler
func NewOccupancyHandler(service *service.AnalyticsService) *OccupancyHandler {
	return &OccupancyHandler{service: service}
}

// GetOccupancy handles GET /api/v1/occupancy/:entityId
func (h *OccupancyHandler) GetOccupancy(c *gin.Context) {
	result, err := h.service.Occupancy(c.Request.Context(), c.Param("entityId"), c.Query("trend"))
	if err != nil {
		fail(c, "Failed to compute occupancy", err)
		return
	}
	response.Success(c, result)
}

// BatchOccupancy handles POST /api/v1/occupancy/batch
func (h *OccupancyHandler) BatchOccupancy(c *gin.Context) {
	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	response.Success(c, h.service.BatchOccupancy(c.Request.Context(), req.EntityIDs))
}

// NearbyOccupancy handles GET /api/v1/occupancy/nearby
func (h *OccupancyHandler) NearbyOccupancy(c *gin.Context) {
	var filter models.NearbyFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	parks, err := h.service.NearbyOccupancy(c.Request.Context(), filter)
	if err != nil {
		fail(c, "Failed to compute nearby occupancy", err)
		return
	}

	response.Success(c, gin.H{
		"data":  parks,
		"total": len(parks),
	})
}

// GetFeature handles GET /api/v1/occupancy/:entityId/feature
func (h *OccupancyHandler) GetFeature(c *gin.Context) {
	feature, err := h.service.Feature(c.Request.Context(), c.Param("entityId"))
	if err != nil {
		fail(c, "Failed to compute occupancy feature", err)
		return
	}
	response.Success(c, feature)
}
