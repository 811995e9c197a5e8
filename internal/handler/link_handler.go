// ===========================================
// Package handler - HTTP Request Handlers
// ===========================================
// Handlers are thin: parse the request, call the service, map
// the result or error onto HTTP. Everything else lives below.
// ===========================================

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/user/shortlink/internal/middleware"
	"github.com/user/shortlink/internal/models"
	"github.com/user/shortlink/internal/service"
)

// LinkHandler handles link creation, listing and redirects.
type LinkHandler struct {
	links *service.LinkService
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(links *service.LinkService) *LinkHandler {
	return &LinkHandler{links: links}
}

// Shorten handles POST /api/shorten.
//
// Returns 201 for a newly minted alias, 200 with isExisting when
// the owner already shortened the same destination.
func (h *LinkHandler) Shorten(c *gin.Context) {
	var req models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Code:    models.ErrCodeInvalidInput,
			Details: err.Error(),
		})
		return
	}

	resp, err := h.links.Create(c.Request.Context(), req, middleware.Owner(c))
	if err != nil {
		handleError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.IsExisting {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// Redirect handles GET /:alias — the hot path. The service
// records the click and returns the destination; the handler only
// frames the 302.
func (h *LinkHandler) Redirect(c *gin.Context) {
	alias := c.Param("alias")

	dest, err := h.links.Redirect(c.Request.Context(), alias, models.ClickRequest{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	// 302, not 301: a permanent redirect would be cached by the
	// browser and clicks would stop reaching the recorder.
	c.Redirect(http.StatusFound, dest)
}

// List handles GET /api/shorten/urls with ?topic=&page=&pageSize=.
func (h *LinkHandler) List(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "pageSize", service.DefaultPageSize)
	topic := models.Topic(c.Query("topic"))

	result, err := h.links.List(c.Request.Context(), middleware.Owner(c), topic, page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

// ===========================================
// Error Handling
// ===========================================
// Centralized service-error-to-HTTP mapping, shared by all
// handlers. Internal failures never leak details to the client.

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "Short link not found",
			Code:  models.ErrCodeNotFound,
		})

	case errors.Is(err, service.ErrAliasTaken):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "Alias already taken",
			Code:  models.ErrCodeAliasTaken,
		})

	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid URL",
			Code:    models.ErrCodeInvalidURL,
			Details: "originalUrl must be an absolute URL",
		})

	case errors.Is(err, service.ErrInvalidTopic):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid topic",
			Code:    models.ErrCodeInvalidInput,
			Details: "topic must be one of: acquisition, activation, retention, others",
		})

	case errors.Is(err, service.ErrUpstream):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: "Service temporarily unavailable",
			Code:  models.ErrCodeUnavailable,
		})

	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Internal server error",
			Code:  models.ErrCodeInternalError,
		})
	}
}
