package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/parkfan/occupancy-analytics/internal/service"
	"github.com/parkfan/occupancy-analytics/pkg/response"
)

// fail maps a service error to 400 for caller mistakes and 500 otherwise
func fail(c *gin.Context, message string, err error) {
	if service.IsBadRequest(err) {
		response.BadRequest(c, message, err)
		return
	}
	_ = c.Error(err)
	response.InternalError(c, message, err)
}
