package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"qanoonhub-backend/models"
	"qanoonhub-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JudgmentHandler handles HTTP requests for browsing and managing judgments
type JudgmentHandler struct {
	judgmentService *service.JudgmentService
}

// NewJudgmentHandler creates a new judgment handler
func NewJudgmentHandler(judgmentService *service.JudgmentService) *JudgmentHandler {
	return &JudgmentHandler{
		judgmentService: judgmentService,
	}
}

// filtersFromQuery parses filter query parameters. Malformed values are
// dropped silently so a bad year never breaks a browse page.
func filtersFromQuery(c *gin.Context) models.SearchFilters {
	filters := models.SearchFilters{
		Jurisdiction: c.Query("jurisdiction"),
		Judge:        c.Query("judge"),
	}
	if tier, ok := models.ParseCourtTier(c.Query("court_tier")); ok {
		filters.CourtTier = &tier
	}
	if courts := c.QueryArray("court"); len(courts) > 0 {
		filters.Courts = courts
	}
	if areas := c.QueryArray("legal_area"); len(areas) > 0 {
		filters.LegalAreas = areas
	}
	if yearFrom, err := strconv.Atoi(c.Query("year_from")); err == nil {
		filters.YearFrom = &yearFrom
	}
	if yearTo, err := strconv.Atoi(c.Query("year_to")); err == nil {
		filters.YearTo = &yearTo
	}
	return filters
}

// ListJudgments handles GET /api/judgments
func (h *JudgmentHandler) ListJudgments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	result, err := h.judgmentService.Browse(c.Request.Context(), service.BrowseParams{
		Filters:   filtersFromQuery(c),
		SortBy:    models.SortBy(c.Query("sort_by")),
		SortOrder: models.SortOrder(c.Query("sort_order")),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "BROWSE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetJudgment handles GET /api/judgments/:id
func (h *JudgmentHandler) GetJudgment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid judgment ID format",
			},
		})
		return
	}

	includeFullText := c.Query("full_text") == "true"

	judgment, err := h.judgmentService.GetJudgment(c.Request.Context(), id, includeFullText)
	if err != nil {
		if errors.Is(err, service.ErrJudgmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Judgment not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    judgment,
	})
}

// UpdateJudgmentRequest represents the request body for updating a judgment.
// Pointer fields distinguish "not sent" from "set to empty".
type UpdateJudgmentRequest struct {
	CaseName     *string  `json:"case_name"`
	Citation     *string  `json:"citation"`
	CourtName    *string  `json:"court_name"`
	CourtTier    *string  `json:"court_tier"`
	Jurisdiction *string  `json:"jurisdiction"`
	Year         *int     `json:"year"`
	JudgeName    *string  `json:"judge_name"`
	PartyNames   *string  `json:"party_names"`
	LegalAreas   []string `json:"legal_areas"`
	Keywords     []string `json:"keywords"`
	Headnotes    []string `json:"headnotes"`
	Summary      *string  `json:"summary"`
	Ratio        *string  `json:"ratio_decidendi"`
}

// UpdateJudgment handles PUT /api/judgments/:id
func (h *JudgmentHandler) UpdateJudgment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid judgment ID format",
			},
		})
		return
	}

	judgment, err := h.judgmentService.GetJudgment(c.Request.Context(), id, false)
	if err != nil {
		if errors.Is(err, service.ErrJudgmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Judgment not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	var req UpdateJudgmentRequest
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

	if req.CaseName != nil {
		judgment.CaseName = *req.CaseName
	}
	if req.Citation != nil {
		judgment.Citation = *req.Citation
	}
	if req.CourtName != nil {
		judgment.CourtName = *req.CourtName
	}
	if req.CourtTier != nil {
		if tier, ok := models.ParseCourtTier(*req.CourtTier); ok {
			judgment.CourtTier = &tier
		} else {
			judgment.CourtTier = nil
		}
	}
	if req.Jurisdiction != nil {
		judgment.Jurisdiction = *req.Jurisdiction
	}
	if req.Year != nil && *req.Year > 0 {
		judgment.Year = *req.Year
	}
	if req.JudgeName != nil {
		judgment.JudgeName = req.JudgeName
	}
	if req.PartyNames != nil {
		judgment.PartyNames = req.PartyNames
	}
	if req.LegalAreas != nil {
		judgment.LegalAreas = req.LegalAreas
	}
	if req.Keywords != nil {
		judgment.Keywords = req.Keywords
	}
	if req.Headnotes != nil {
		judgment.Headnotes = req.Headnotes
	}
	if req.Summary != nil {
		judgment.Summary = req.Summary
	}
	if req.Ratio != nil {
		judgment.RatioDecidendi = req.Ratio
	}

	updated, err := h.judgmentService.UpdateJudgment(c.Request.Context(), judgment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// GetCitations handles GET /api/judgments/:id/citations
func (h *JudgmentHandler) GetCitations(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid judgment ID format",
			},
		})
		return
	}

	graph, err := h.judgmentService.GetCitationGraph(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrJudgmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Judgment not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    graph,
	})
}
