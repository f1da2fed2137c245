// Package handler exposes the dashboard operations over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "sales-dashboard/internal/common/errors"
	"sales-dashboard/internal/common/logger"
	"sales-dashboard/internal/models"
)

// DashboardService is implemented by dashboard.Service.
type DashboardService interface {
	Health(ctx context.Context) models.HealthStatus
	CreateSampleData(ctx context.Context) (*models.SeedResult, error)
	Summary(ctx context.Context) (*models.SalesSummary, error)
	Recent(ctx context.Context, limit int) ([]models.SalesRecord, error)
	Search(ctx context.Context, text string) (*models.SearchResult, error)
}

type Handler struct {
	service      DashboardService
	defaultLimit int
	logger       logger.Logger
}

func NewHandler(service DashboardService, defaultLimit int, log logger.Logger) *Handler {
	return &Handler{
		service:      service,
		defaultLimit: defaultLimit,
		logger:       log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/create-sample-data", h.CreateSampleData)
		api.GET("/dashboard/summary", h.Summary)
		api.GET("/sales/recent", h.Recent)
		api.POST("/search", h.Search)
	}
}

// Health reports whether the search engine answered a ping.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Health(c.Request.Context()))
}

// CreateSampleData replaces the index contents with a fresh sample set.
func (h *Handler) CreateSampleData(c *gin.Context) {
	result, err := h.service.CreateSampleData(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to create sample data", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to fetch dashboard summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Recent lists the newest records. A missing or non-numeric limit falls
// back to the configured default; a numeric one out of range is rejected.
func (h *Handler) Recent(c *gin.Context) {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	records, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "Failed to fetch recent sales", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.Search(c.Request.Context(), req.Query)
	if err != nil {
		h.fail(c, "Search failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// fail writes the error body. Caller errors carry their own message; every
// other failure is reported under the operation's message.
func (h *Handler) fail(c *gin.Context, message string, err error) {
	stdErr := apperrors.Normalize(err)
	status := apperrors.HTTPStatus(stdErr)

	switch stdErr.Code {
	case apperrors.ErrCodeInvalidQuery:
		message = stdErr.Details
	case apperrors.ErrCodeSeedInProgress:
		message = stdErr.Message
	}

	details := stdErr.Details
	if details == "" {
		details = stdErr.Message
	}

	fields := map[string]interface{}{
		"path":      c.FullPath(),
		"status":    status,
		"code":      stdErr.Code,
		"retryable": apperrors.IsRetryable(stdErr),
		"error":     err,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, fields)
	} else {
		h.logger.Warn(message, fields)
	}

	c.JSON(status, ErrorResponse{Error: message, Details: details})
}
