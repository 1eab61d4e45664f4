package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"qanoonhub-backend/models"
	"qanoonhub-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestHandler handles HTTP requests for document ingestion and job polling
type IngestHandler struct {
	ingestService *service.IngestService
	logger        *zap.Logger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(ingestService *service.IngestService, logger *zap.Logger) *IngestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestHandler{
		ingestService: ingestService,
		logger:        logger,
	}
}

// CreateJobRequest represents the request body for pre-creating a job
type CreateJobRequest struct {
	JobType      string `json:"job_type"`
	TotalRecords int    `json:"total_records" binding:"required"`
	Jurisdiction string `json:"jurisdiction"`
}

// CreateJob handles POST /api/ingest/jobs
func (h *IngestHandler) CreateJob(c *gin.Context) {
	var req CreateJobRequest
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

	jobType := models.IngestionJobType(req.JobType)
	if req.JobType == "" {
		jobType = models.JobTypeIncremental
	}

	job, err := h.ingestService.CreateJob(c.Request.Context(), jobType, req.TotalRecords, req.Jurisdiction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    job,
	})
}

// IngestRequest represents the request body for submitting records
type IngestRequest struct {
	JobID        *string                 `json:"job_id"`
	JobType      string                  `json:"job_type"`
	Jurisdiction string                  `json:"jurisdiction"`
	Records      []models.JudgmentRecord `json:"records"`
}

func (h *IngestHandler) rejectBatchTooLarge(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "BATCH_TOO_LARGE",
			"message": fmt.Sprintf("Incremental batches are limited to %d records; submit a bulk job instead", service.MaxIncrementalRecords),
		},
	})
}

// Ingest handles POST /api/ingest. Incremental batches run synchronously and
// return the final counters; bulk batches are accepted with 202 and processed
// in the background, with progress available via job polling.
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req IngestRequest
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

	if len(req.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_RECORDS",
				"message": "At least one record is required",
			},
		})
		return
	}

	jobType := models.IngestionJobType(req.JobType)
	if req.JobType == "" {
		jobType = models.JobTypeIncremental
	}

	var job *models.IngestionJob
	var err error
	if req.JobID != nil {
		jobID, parseErr := uuid.Parse(*req.JobID)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ID",
					"message": "Invalid job ID format",
				},
			})
			return
		}
		job, err = h.ingestService.GetJobStatus(c.Request.Context(), jobID)
		if err != nil {
			if errors.Is(err, service.ErrJobNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "NOT_FOUND",
						"message": "Ingestion job not found",
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
		// The cap is a property of the referenced job, not of whatever
		// job_type the request body happens to carry.
		if job.JobType == models.JobTypeIncremental && len(req.Records) > service.MaxIncrementalRecords {
			h.rejectBatchTooLarge(c)
			return
		}
	} else {
		if jobType == models.JobTypeIncremental && len(req.Records) > service.MaxIncrementalRecords {
			h.rejectBatchTooLarge(c)
			return
		}
		job, err = h.ingestService.CreateJob(c.Request.Context(), jobType, len(req.Records), req.Jurisdiction)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CREATE_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
	}

	if job.JobType == models.JobTypeBulk {
		// Background context, not the request context, so the pipeline
		// survives the client disconnecting after the 202.
		records := req.Records
		jobID := job.ID
		go func() {
			bgCtx := context.Background()
			if _, err := h.ingestService.Ingest(bgCtx, jobID, records); err != nil {
				h.logger.Error("bulk ingestion job failed",
					zap.String("job_id", jobID.String()),
					zap.Error(err),
				)
			}
		}()

		c.JSON(http.StatusAccepted, gin.H{
			"success": true,
			"data": gin.H{
				"job_id":  job.ID,
				"status":  models.JobStatusPending,
				"message": "Ingestion job accepted. Poll /api/ingest/jobs/:id for progress.",
			},
		})
		return
	}

	result, err := h.ingestService.Ingest(c.Request.Context(), job.ID, req.Records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INGEST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"job_id":    job.ID,
			"processed": result.Processed,
			"embedded":  result.Embedded,
			"failed":    result.Failed,
		},
	})
}

// GetJobStatus handles GET /api/ingest/jobs/:id
func (h *IngestHandler) GetJobStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid job ID format",
			},
		})
		return
	}

	job, err := h.ingestService.GetJobStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Ingestion job not found",
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
		"data":    job,
	})
}
