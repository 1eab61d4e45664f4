package handlers

import (
	"net/http"
	"strings"

	"qanoonhub-backend/models"
	"qanoonhub-backend/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles HTTP requests for hybrid search
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// SearchRequest represents the request body for a search
type SearchRequest struct {
	Query           string               `json:"query" binding:"required"`
	Filters         models.SearchFilters `json:"filters"`
	Limit           int                  `json:"limit"`
	Offset          int                  `json:"offset"`
	IncludeChunks   bool                 `json:"include_chunks"`
	GroupByJudgment *bool                `json:"group_by_judgment"`
}

// Search handles POST /api/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	query := strings.TrimSpace(req.Query)
	if len(query) < service.MinQueryLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUERY_TOO_SHORT",
				"message": "Query must be at least 3 characters",
			},
		})
		return
	}

	// Grouping one result per judgment is the default; callers asking for
	// chunk-level results opt out explicitly.
	groupByJudgment := true
	if req.GroupByJudgment != nil {
		groupByJudgment = *req.GroupByJudgment
	}

	results, err := h.searchService.Search(c.Request.Context(), service.SearchParams{
		Query:           query,
		Filters:         req.Filters.Sanitize(),
		Limit:           req.Limit,
		Offset:          req.Offset,
		IncludeChunks:   req.IncludeChunks,
		GroupByJudgment: groupByJudgment,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SEARCH_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"results": results,
			"count":   len(results),
		},
	})
}
