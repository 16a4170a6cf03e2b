package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mealsense/backend/internal/domain"
	"github.com/mealsense/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	mealService *usecase.MealService
	catalog     domain.CatalogRepository
	searchLimit int
}

// NewHandler creates a new HTTP handler
func NewHandler(mealService *usecase.MealService, catalog domain.CatalogRepository, searchLimit int) *Handler {
	if searchLimit <= 0 {
		searchLimit = 20
	}
	return &Handler{
		mealService: mealService,
		catalog:     catalog,
		searchLimit: searchLimit,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "mealsense-backend",
		"version": "1.0.0",
	})
}

// AnalyzeMeal handles meal analysis requests
func (h *Handler) AnalyzeMeal(c *gin.Context) {
	if h.mealService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "meal analysis not configured"})
		return
	}

	var req domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	if !req.HasInput() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "at least one of text, imageBase64, imageUrl or selectedFoodId is required",
		})
		return
	}

	resp, err := h.mealService.Analyze(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SearchFoods handles catalog search requests (GET ?q=<text>)
func (h *Handler) SearchFoods(c *gin.Context) {
	query := usecase.NormalizeQuery(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	limit := h.searchLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= h.searchLimit {
			limit = n
		}
	}

	summaries, err := h.catalog.SearchSummaries(c.Request.Context(), query, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": summaries})
}

// GetFoodByID returns the full catalog entry for an id
func (h *Handler) GetFoodByID(c *gin.Context) {
	entry, err := h.catalog.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// writeError maps domain sentinel errors to HTTP statuses
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFoodNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrExtractionUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
