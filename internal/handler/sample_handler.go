package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/service"
	"github.com/parkfan/occupancy-analytics/pkg/response"
)

// SampleHandler handles HTTP requests for wait-time samples
type SampleHandler struct {
	service *service.SampleService
}

// NewSampleHandler creates a new sample handler
func NewSampleHandler(service *service.SampleService) *SampleHandler {
	return &SampleHandler{service: service}
}

// Ingest handles POST /api/v1/samples
func (h *SampleHandler) Ingest(c *gin.Context) {
	var req models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), req.Samples)
	if err != nil {
		fail(c, "Failed to store samples", err)
		return
	}
	response.Created(c, result)
}

// ListSamples handles GET /api/v1/samples/:entityType/:entityId
func (h *SampleHandler) ListSamples(c *gin.Context) {
	var q models.SampleListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	var window time.Duration
	if q.Window != "" {
		d, err := time.ParseDuration(q.Window)
		if err != nil || d <= 0 {
			response.BadRequest(c, "Invalid window", err)
			return
		}
		window = d
	}

	samples, err := h.service.RecentSamples(c.Request.Context(), c.Param("entityType"), c.Param("entityId"), window, q.Limit)
	if err != nil {
		fail(c, "Failed to get samples", err)
		return
	}

	response.Success(c, gin.H{
		"data":  samples,
		"total": len(samples),
	})
}
