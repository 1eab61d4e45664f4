package repository

import (
	"context"
	"time"

	"qanoonhub-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IngestionJobRepository handles database operations for ingestion jobs
type IngestionJobRepository struct {
	db *pgxpool.Pool
}

// NewIngestionJobRepository creates a new ingestion job repository
func NewIngestionJobRepository(db *pgxpool.Pool) *IngestionJobRepository {
	return &IngestionJobRepository{db: db}
}

const jobColumns = `id, job_type, jurisdiction, total_records, processed_count,
	embedded_count, failed_count, status, error_message, created_at, started_at, completed_at`

// Create creates a new ingestion job in pending state
func (r *IngestionJobRepository) Create(ctx context.Context, job *models.IngestionJob) error {
	query := `
		INSERT INTO ingestion_jobs (job_type, jurisdiction, total_records, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		string(job.JobType),
		job.Jurisdiction,
		job.TotalRecords,
		string(models.JobStatusPending),
	).Scan(&job.ID, &job.CreatedAt)
}

func scanJob(row pgx.Row) (*models.IngestionJob, error) {
	job := &models.IngestionJob{}
	var jobType, status string
	err := row.Scan(
		&job.ID,
		&jobType,
		&job.Jurisdiction,
		&job.TotalRecords,
		&job.ProcessedCount,
		&job.EmbeddedCount,
		&job.FailedCount,
		&status,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	job.JobType = models.IngestionJobType(jobType)
	job.Status = models.IngestionJobStatus(status)
	return job, nil
}

// GetByID retrieves an ingestion job by ID
func (r *IngestionJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error) {
	return scanJob(r.db.QueryRow(ctx, "SELECT "+jobColumns+" FROM ingestion_jobs WHERE id = $1", id))
}

// MarkRunning transitions a job to running and records the start time
func (r *IngestionJobRepository) MarkRunning(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE ingestion_jobs SET status = $2, started_at = NOW()
		 WHERE id = $1 AND status = $3`,
		id, string(models.JobStatusRunning), string(models.JobStatusPending),
	)
	return err
}

// AddProgress increments the job counters. Counters are only ever added to,
// so a concurrent poll sees a monotonically increasing snapshot.
func (r *IngestionJobRepository) AddProgress(ctx context.Context, id uuid.UUID, processed, embedded, failed int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE ingestion_jobs SET
			processed_count = processed_count + $2,
			embedded_count = embedded_count + $3,
			failed_count = failed_count + $4
		 WHERE id = $1`,
		id, processed, embedded, failed,
	)
	return err
}

// Complete marks a job as completed
func (r *IngestionJobRepository) Complete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	_, err := r.db.Exec(ctx,
		"UPDATE ingestion_jobs SET status = $2, completed_at = $3 WHERE id = $1",
		id, string(models.JobStatusCompleted), now,
	)
	return err
}

// Fail marks a job as failed with an error message
func (r *IngestionJobRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	now := time.Now()
	_, err := r.db.Exec(ctx,
		"UPDATE ingestion_jobs SET status = $2, error_message = $3, completed_at = $4 WHERE id = $1",
		id, string(models.JobStatusFailed), errorMessage, now,
	)
	return err
}

// Latest returns the most recently created job, or nil when none exist
func (r *IngestionJobRepository) Latest(ctx context.Context) (*models.IngestionJob, error) {
	job, err := scanJob(r.db.QueryRow(ctx,
		"SELECT "+jobColumns+" FROM ingestion_jobs ORDER BY created_at DESC LIMIT 1",
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return job, err
}

// FailStuck marks jobs that have been running longer than maxRuntime as
// failed. A crashed fire-and-forget continuation leaves its job in running;
// this watchdog is the only way such a job ever terminates.
func (r *IngestionJobRepository) FailStuck(ctx context.Context, maxRuntime time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE ingestion_jobs SET status = $1, error_message = 'exceeded max runtime', completed_at = NOW()
		 WHERE status = $2 AND started_at < NOW() - make_interval(secs => $3)`,
		string(models.JobStatusFailed), string(models.JobStatusRunning), maxRuntime.Seconds(),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
