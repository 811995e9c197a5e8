package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/shortlink/internal/database"
	"github.com/user/shortlink/internal/models"
)

// HealthHandler reports the health of the service and its
// dependencies for load balancers and orchestration probes.
type HealthHandler struct {
	postgres *database.PostgresDB
	redis    *database.RedisDB
	version  string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pg *database.PostgresDB, redis *database.RedisDB, version string) *HealthHandler {
	return &HealthHandler{
		postgres: pg,
		redis:    redis,
		version:  version,
	}
}

// Health handles GET /health: per-dependency status, 503 when any
// dependency is down.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	healthy := true

	if err := h.postgres.Health(ctx); err != nil {
		services["postgres"] = "error: " + err.Error()
		healthy = false
	} else {
		services["postgres"] = "ok"
	}

	if err := h.redis.Health(ctx); err != nil {
		services["redis"] = "error: " + err.Error()
		healthy = false
	} else {
		services["redis"] = "ok"
	}

	response := models.HealthResponse{
		Version:  h.version,
		Services: services,
	}

	if healthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// Ready handles GET /ready: bare 200/503 readiness probe.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.postgres.Health(ctx); err != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	if err := h.redis.Health(ctx); err != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Status(http.StatusOK)
}

// Live handles GET /live: process liveness only, no dependency
// checks.
func (h *HealthHandler) Live(c *gin.Context) {
	c.Status(http.StatusOK)
}
