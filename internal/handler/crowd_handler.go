package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/service"
	"github.com/parkfan/occupancy-analytics/pkg/response"
)

// CrowdHandler exposes the crowd classifiers
type CrowdHandler struct {
	service *service.AnalyticsService
}

// NewCrowdHandler creates a new crowd handler
func NewCrowdHandler(service *service.AnalyticsService) *CrowdHandler {
	return &CrowdHandler{service: service}
}

// CrowdLevel handles GET /api/v1/crowd-level
func (h *CrowdHandler) CrowdLevel(c *gin.Context) {
	var q models.CrowdLevelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	result, err := h.service.CrowdLevel(*q.Occupancy, q.Scheme)
	if err != nil {
		fail(c, "Failed to classify crowd level", err)
		return
	}
	response.Success(c, result)
}

// LoadRating handles GET /api/v1/load-rating
func (h *CrowdHandler) LoadRating(c *gin.Context) {
	var q models.LoadRatingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	result, err := h.service.LoadRating(c.Request.Context(), q.AttractionID, *q.Current, q.Baseline)
	if err != nil {
		fail(c, "Failed to rate load", err)
		return
	}
	response.Success(c, result)
}

// PredictedCrowd handles GET /api/v1/crowd-level/predicted
func (h *CrowdHandler) PredictedCrowd(c *gin.Context) {
	var q models.PredictedCrowdQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	result, err := h.service.PredictedCrowd(c.Request.Context(), q.AttractionID, *q.Predicted, q.P50)
	if err != nil {
		fail(c, "Failed to classify predicted crowd", err)
		return
	}
	response.Success(c, result)
}
