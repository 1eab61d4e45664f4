package repository

import (
	"context"
	"fmt"

	"qanoonhub-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles database operations for judgment chunks
type ChunkRepository struct {
	db *pgxpool.Pool
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// CreateBatch inserts chunk rows for a judgment, preserving ordinals
func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []*models.JudgmentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(
			`INSERT INTO judgment_chunks (judgment_id, chunk_text, ordinal)
			 VALUES ($1, $2, $3) RETURNING id, created_at`,
			c.JudgmentID, c.ChunkText, c.Ordinal,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for _, c := range chunks {
		if err := results.QueryRow().Scan(&c.ID, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.Ordinal, err)
		}
	}
	return nil
}

// DeleteByJudgment removes all chunks of a judgment; re-ingestion replaces
// chunks rather than patching them in place.
func (r *ChunkRepository) DeleteByJudgment(ctx context.Context, judgmentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, "DELETE FROM judgment_chunks WHERE judgment_id = $1", judgmentID)
	return err
}

// TopMatches returns, per judgment in the candidate set, the best-matching
// chunks for the query vector (at most perJudgment each, highest similarity
// first). Chunks without a stored embedding are skipped.
func (r *ChunkRepository) TopMatches(
	ctx context.Context,
	judgmentIDs []uuid.UUID,
	queryVector []float32,
	perJudgment int,
) (map[uuid.UUID][]models.ChunkMatch, error) {
	if len(judgmentIDs) == 0 {
		return map[uuid.UUID][]models.ChunkMatch{}, nil
	}
	if perJudgment <= 0 {
		perJudgment = 3
	}

	query := `
		SELECT judgment_id, id, ordinal, left(chunk_text, 300), similarity
		FROM (
			SELECT judgment_id, id, ordinal, chunk_text,
				1 - (embedding <=> $2) AS similarity,
				row_number() OVER (PARTITION BY judgment_id ORDER BY embedding <=> $2) AS rank
			FROM judgment_chunks
			WHERE judgment_id = ANY($1) AND embedding IS NOT NULL
		) ranked
		WHERE rank <= $3
		ORDER BY judgment_id, similarity DESC`

	rows, err := r.db.Query(ctx, query, judgmentIDs, pgvector.NewVector(queryVector), perJudgment)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk matches: %w", err)
	}
	defer rows.Close()

	matches := make(map[uuid.UUID][]models.ChunkMatch)
	for rows.Next() {
		var judgmentID uuid.UUID
		var m models.ChunkMatch
		if err := rows.Scan(&judgmentID, &m.ChunkID, &m.Ordinal, &m.Excerpt, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan chunk match: %w", err)
		}
		matches[judgmentID] = append(matches[judgmentID], m)
	}
	return matches, rows.Err()
}

// UpdateEmbedding stores the vector for one chunk
func (r *ChunkRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	_, err := r.db.Exec(ctx,
		"UPDATE judgment_chunks SET embedding = $2 WHERE id = $1",
		id, pgvector.NewVector(vector),
	)
	return err
}

// ListMissingEmbeddings returns chunks whose embedding column is null
func (r *ChunkRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]*models.JudgmentChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, judgment_id, chunk_text, ordinal, embedding IS NOT NULL, created_at
		 FROM judgment_chunks WHERE embedding IS NULL ORDER BY created_at LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks missing embeddings: %w", err)
	}
	defer rows.Close()

	var chunks []*models.JudgmentChunk
	for rows.Next() {
		c := &models.JudgmentChunk{}
		if err := rows.Scan(&c.ID, &c.JudgmentID, &c.ChunkText, &c.Ordinal, &c.HasEmbedding, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CountAll returns the total and embedded chunk counts for monitoring
func (r *ChunkRepository) CountAll(ctx context.Context) (total int, embedded int, err error) {
	err = r.db.QueryRow(ctx,
		"SELECT COUNT(*), COUNT(embedding) FROM judgment_chunks",
	).Scan(&total, &embedded)
	return total, embedded, err
}
