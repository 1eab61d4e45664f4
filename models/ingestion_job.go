package models

import (
	"time"

	"github.com/google/uuid"
)

// IngestionJobStatus represents the status of an ingestion job
type IngestionJobStatus string

const (
	JobStatusPending   IngestionJobStatus = "pending"
	JobStatusRunning   IngestionJobStatus = "running"
	JobStatusCompleted IngestionJobStatus = "completed"
	JobStatusFailed    IngestionJobStatus = "failed"
)

// IngestionJobType distinguishes small synchronous batches from large
// fire-and-forget ones
type IngestionJobType string

const (
	JobTypeIncremental IngestionJobType = "incremental"
	JobTypeBulk        IngestionJobType = "bulk"
)

// IngestionJob is one API call's worth of ingestion work. Jobs are never
// deleted; they form the audit trail and are polled by id. Counters only
// ever increase.
type IngestionJob struct {
	ID             uuid.UUID          `json:"id"`
	JobType        IngestionJobType   `json:"job_type"`
	Jurisdiction   *string            `json:"jurisdiction,omitempty"`
	TotalRecords   int                `json:"total_records"`
	ProcessedCount int                `json:"processed_count"`
	EmbeddedCount  int                `json:"embedded_count"`
	FailedCount    int                `json:"failed_count"`
	Status         IngestionJobStatus `json:"status"`
	ErrorMessage   *string            `json:"error_message,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	StartedAt      *time.Time         `json:"started_at,omitempty"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
}
