package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/shortlink/internal/middleware"
	"github.com/user/shortlink/internal/models"
	"github.com/user/shortlink/internal/service"
)

// AnalyticsHandler exposes the three aggregator scopes. Analytics
// reads bypass the redirect cache and run straight over the click
// logs.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Overall handles GET /api/analytics/overall.
func (h *AnalyticsHandler) Overall(c *gin.Context) {
	stats, err := h.analytics.Overall(c.Request.Context(), middleware.Owner(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ByTopic handles GET /api/analytics/topic/:topic.
func (h *AnalyticsHandler) ByTopic(c *gin.Context) {
	topic := models.Topic(c.Param("topic"))

	stats, err := h.analytics.ByTopic(c.Request.Context(), middleware.Owner(c), topic)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ByAlias handles GET /api/analytics/:alias.
func (h *AnalyticsHandler) ByAlias(c *gin.Context) {
	stats, err := h.analytics.ByAlias(c.Request.Context(), c.Param("alias"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
