package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartfood/grocery-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string     `json:"status"`
	Database string     `json:"database"`
	Pool     *PoolStats `json:"pool,omitempty"`
}

// PoolStats is a snapshot of the connection pool
type PoolStats struct {
	TotalConns    int32 `json:"totalConns"`
	IdleConns     int32 `json:"idleConns"`
	AcquiredConns int32 `json:"acquiredConns"`
	MaxConns      int32 `json:"maxConns"`
}

// HealthCheck handles the health check endpoint
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse "Database unreachable"
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
	}

	health, err := database.Health(c.Request.Context())
	switch {
	case errors.Is(err, database.ErrNotConnected):
		response.Database = "not configured"
	case err != nil:
		response.Status = "degraded"
		response.Database = "disconnected"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	default:
		response.Database = "connected"
		response.Pool = &PoolStats{
			TotalConns:    health.TotalConns,
			IdleConns:     health.IdleConns,
			AcquiredConns: health.AcquiredConns,
			MaxConns:      health.MaxConns,
		}
	}

	c.JSON(http.StatusOK, response)
}
