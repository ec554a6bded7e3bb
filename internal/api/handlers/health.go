package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urizarreta/conciliar-backend/internal/api/dto"
)

// Health handles GET /health - liveness probe.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "healthy"})
}
