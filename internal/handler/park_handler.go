package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/repository"
	"github.com/parkfan/occupancy-analytics/internal/service"
	"github.com/parkfan/occupancy-analytics/pkg/response"
)

// ParkHandler handles HTTP requests for the park registry
type ParkHandler struct {
	service *service.ParkService
}

// NewParkHandler creates a new park handler
func NewParkHandler(service *service.ParkService) *ParkHandler {
	return &ParkHandler{service: service}
}

// ListParks handles GET /api/v1/parks
func (h *ParkHandler) ListParks(c *gin.Context) {
	parks, err := h.service.ListParks(c.Request.Context())
	if err != nil {
		fail(c, "Failed to list parks", err)
		return
	}
	if parks == nil {
		parks = []models.Park{}
	}

	response.Success(c, gin.H{
		"data":  parks,
		"total": len(parks),
	})
}

// GetPark handles GET /api/v1/parks/:id
func (h *ParkHandler) GetPark(c *gin.Context) {
	park, err := h.service.GetPark(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrParkNotFound) {
		response.NotFound(c, "Park not found")
		return
	}
	if err != nil {
		fail(c, "Failed to get park", err)
		return
	}
	response.Success(c, park)
}

// PutPark handles PUT /api/v1/parks/:id
func (h *ParkHandler) PutPark(c *gin.Context) {
	var park models.Park
	if err := c.ShouldBindJSON(&park); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	park.ID = c.Param("id")

	if err := h.service.SavePark(c.Request.Context(), park); err != nil {
		fail(c, "Failed to save park", err)
		return
	}
	response.Success(c, park)
}
