package handlers

import (
	"net/http"

	"qanoonhub-backend/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles operational endpoints: corpus stats and manual
// backfill triggers
type AdminHandler struct {
	judgmentService *service.JudgmentService
	backfillService *service.BackfillService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(judgmentService *service.JudgmentService, backfillService *service.BackfillService) *AdminHandler {
	return &AdminHandler{
		judgmentService: judgmentService,
		backfillService: backfillService,
	}
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.judgmentService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STATS_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// RunBackfill handles POST /api/admin/backfill. The run is synchronous; the
// per-run caps keep it short enough for an interactive call.
func (h *AdminHandler) RunBackfill(c *gin.Context) {
	result, err := h.backfillService.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "BACKFILL_FAILED",
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
