package repository

import (
	"context"
	"fmt"

	"qanoonhub-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CitationRepository handles database operations for citation links
type CitationRepository struct {
	db *pgxpool.Pool
}

// NewCitationRepository creates a new citation repository
func NewCitationRepository(db *pgxpool.Pool) *CitationRepository {
	return &CitationRepository{db: db}
}

// CreateBatch inserts citation links, resolved or not
func (r *CitationRepository) CreateBatch(ctx context.Context, links []*models.CitationLink) error {
	if len(links) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, l := range links {
		batch.Queue(
			`INSERT INTO citation_links (citing_judgment_id, cited_citation, cited_judgment_id)
			 VALUES ($1, $2, $3) RETURNING id, created_at`,
			l.CitingJudgmentID, l.CitedCitation, l.CitedJudgmentID,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for _, l := range links {
		if err := results.QueryRow().Scan(&l.ID, &l.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert citation link: %w", err)
		}
	}
	return nil
}

// DeleteOutgoing removes a judgment's outgoing links; re-ingestion replaces
// them wholesale from the new record.
func (r *CitationRepository) DeleteOutgoing(ctx context.Context, citingJudgmentID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		"DELETE FROM citation_links WHERE citing_judgment_id = $1", citingJudgmentID)
	return err
}

// Outgoing returns the links citing out of the given judgment
func (r *CitationRepository) Outgoing(ctx context.Context, judgmentID uuid.UUID) ([]*models.CitationLink, error) {
	return r.queryLinks(ctx,
		`SELECT id, citing_judgment_id, cited_citation, cited_judgment_id, created_at
		 FROM citation_links WHERE citing_judgment_id = $1 ORDER BY created_at, id`,
		judgmentID,
	)
}

// Incoming returns the links whose resolved target is the given judgment
func (r *CitationRepository) Incoming(ctx context.Context, judgmentID uuid.UUID) ([]*models.CitationLink, error) {
	return r.queryLinks(ctx,
		`SELECT id, citing_judgment_id, cited_citation, cited_judgment_id, created_at
		 FROM citation_links WHERE cited_judgment_id = $1 ORDER BY created_at, id`,
		judgmentID,
	)
}

func (r *CitationRepository) queryLinks(ctx context.Context, query string, judgmentID uuid.UUID) ([]*models.CitationLink, error) {
	rows, err := r.db.Query(ctx, query, judgmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query citation links: %w", err)
	}
	defer rows.Close()

	links := []*models.CitationLink{}
	for rows.Next() {
		l := &models.CitationLink{}
		if err := rows.Scan(&l.ID, &l.CitingJudgmentID, &l.CitedCitation, &l.CitedJudgmentID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan citation link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ResolveAgainst points previously unresolved links whose citation text
// matches the given citation at the newly known judgment.
func (r *CitationRepository) ResolveAgainst(ctx context.Context, citation string, judgmentID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE citation_links SET cited_judgment_id = $2
		 WHERE cited_judgment_id IS NULL AND lower(trim(cited_citation)) = lower(trim($1))`,
		citation, judgmentID,
	)
	return err
}
