package repository

import (
	"context"
	"fmt"
	"strings"

	"qanoonhub-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// MaxSearchCandidates bounds the candidate set fetched for one search request.
const MaxSearchCandidates = 500

// JudgmentRepository handles database operations for judgments
type JudgmentRepository struct {
	db *pgxpool.Pool
}

// NewJudgmentRepository creates a new judgment repository
func NewJudgmentRepository(db *pgxpool.Pool) *JudgmentRepository {
	return &JudgmentRepository{db: db}
}

const judgmentColumns = `id, case_name, citation, court_name, court_tier, jurisdiction, year,
	judge_name, decision_date, party_names, legal_areas, keywords, headnotes,
	summary, ratio_decidendi, embedding IS NOT NULL AS has_embedding, created_at`

// buildFilterClause translates the structural filters into a WHERE clause.
// All provided fields are AND-combined; the year range is inclusive.
func buildFilterClause(f models.SearchFilters, args []interface{}) (string, []interface{}) {
	var conds []string
	add := func(format string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if f.Jurisdiction != "" {
		add("lower(jurisdiction) = lower($%d)", f.Jurisdiction)
	}
	if f.CourtTier != nil {
		add("court_tier = $%d", string(*f.CourtTier))
	}
	if len(f.Courts) > 0 {
		add("court_name = ANY($%d)", f.Courts)
	}
	if f.YearFrom != nil {
		add("year >= $%d", *f.YearFrom)
	}
	if f.YearTo != nil {
		add("year <= $%d", *f.YearTo)
	}
	if len(f.LegalAreas) > 0 {
		add("legal_areas && $%d", f.LegalAreas)
	}
	if f.Judge != "" {
		add("judge_name ILIKE $%d", "%"+f.Judge+"%")
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanJudgment(row pgx.Row) (*models.Judgment, error) {
	j := &models.Judgment{}
	var tier *string
	err := row.Scan(
		&j.ID,
		&j.CaseName,
		&j.Citation,
		&j.CourtName,
		&tier,
		&j.Jurisdiction,
		&j.Year,
		&j.JudgeName,
		&j.DecisionDate,
		&j.PartyNames,
		&j.LegalAreas,
		&j.Keywords,
		&j.Headnotes,
		&j.Summary,
		&j.RatioDecidendi,
		&j.HasEmbedding,
		&j.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tier != nil {
		t := models.CourtTier(*tier)
		j.CourtTier = &t
	}
	return j, nil
}

// Create inserts a new judgment row
func (r *JudgmentRepository) Create(ctx context.Context, j *models.Judgment) error {
	var tier *string
	if j.CourtTier != nil {
		s := string(*j.CourtTier)
		tier = &s
	}

	query := `
		INSERT INTO judgments (
			case_name, citation, court_name, court_tier, jurisdiction, year,
			judge_name, decision_date, party_names, legal_areas, keywords,
			headnotes, summary, ratio_decidendi, full_text
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		j.CaseName,
		j.Citation,
		j.CourtName,
		tier,
		j.Jurisdiction,
		j.Year,
		j.JudgeName,
		j.DecisionDate,
		j.PartyNames,
		j.LegalAreas,
		j.Keywords,
		j.Headnotes,
		j.Summary,
		j.RatioDecidendi,
		j.FullText,
	).Scan(&j.ID, &j.CreatedAt)
}

// GetByID retrieves a judgment by ID. The full opinion text is large and only
// loaded when includeFullText is set.
func (r *JudgmentRepository) GetByID(ctx context.Context, id uuid.UUID, includeFullText bool) (*models.Judgment, error) {
	query := fmt.Sprintf("SELECT %s FROM judgments WHERE id = $1", judgmentColumns)
	j, err := scanJudgment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if includeFullText {
		err = r.db.QueryRow(ctx, "SELECT full_text FROM judgments WHERE id = $1", id).Scan(&j.FullText)
		if err != nil {
			return nil, err
		}
	}
	return j, nil
}

// Update rewrites a judgment's metadata fields. FullText is only written when
// set; nil means "not loaded, leave it alone". When clearEmbedding is set the
// stored vector is nulled in the same statement so the row becomes eligible
// for the next backfill sweep.
func (r *JudgmentRepository) Update(ctx context.Context, j *models.Judgment, clearEmbedding bool) error {
	var tier *string
	if j.CourtTier != nil {
		s := string(*j.CourtTier)
		tier = &s
	}

	embeddingClause := ""
	if clearEmbedding {
		embeddingClause = ", embedding = NULL"
	}

	query := fmt.Sprintf(`
		UPDATE judgments SET
			case_name = $2,
			citation = $3,
			court_name = $4,
			court_tier = $5,
			jurisdiction = $6,
			year = $7,
			judge_name = $8,
			party_names = $9,
			legal_areas = $10,
			keywords = $11,
			headnotes = $12,
			summary = $13,
			ratio_decidendi = $14,
			full_text = COALESCE($15, full_text)%s
		WHERE id = $1`, embeddingClause)

	tag, err := r.db.Exec(
		ctx, query,
		j.ID,
		j.CaseName,
		j.Citation,
		j.CourtName,
		tier,
		j.Jurisdiction,
		j.Year,
		j.JudgeName,
		j.PartyNames,
		j.LegalAreas,
		j.Keywords,
		j.Headnotes,
		j.Summary,
		j.RatioDecidendi,
		j.FullText,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// List filters, sorts and paginates judgments and returns the true total
// count of matching rows before pagination.
func (r *JudgmentRepository) List(
	ctx context.Context,
	filters models.SearchFilters,
	sortBy models.SortBy,
	sortOrder models.SortOrder,
	limit int,
	offset int,
) ([]*models.Judgment, int, error) {
	where, args := buildFilterClause(filters, nil)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM judgments %s", where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count judgments: %w", err)
	}

	direction := "DESC"
	if sortOrder == models.SortAsc {
		direction = "ASC"
	}
	var orderBy string
	switch sortBy {
	case models.SortByCourt:
		orderBy = fmt.Sprintf("court_name %s, year DESC, id", direction)
	default:
		orderBy = fmt.Sprintf("year %s, decision_date %s NULLS LAST, id", direction, direction)
	}

	args = append(args, limit)
	limitIdx := len(args)
	args = append(args, offset)
	offsetIdx := len(args)

	query := fmt.Sprintf(
		"SELECT %s FROM judgments %s ORDER BY %s LIMIT $%d OFFSET $%d",
		judgmentColumns, where, orderBy, limitIdx, offsetIdx,
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query judgments: %w", err)
	}
	defer rows.Close()

	var judgments []*models.Judgment
	for rows.Next() {
		j, err := scanJudgment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan judgment: %w", err)
		}
		judgments = append(judgments, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating judgments: %w", err)
	}

	return judgments, total, nil
}

// SearchCandidates returns the filtered candidate set for a search request.
// When queryVector is non-nil each candidate carries its cosine similarity to
// the query; rows without a stored embedding get a nil similarity and still
// qualify (lexical scoring covers them).
func (r *JudgmentRepository) SearchCandidates(
	ctx context.Context,
	filters models.SearchFilters,
	queryVector []float32,
	limit int,
) ([]*models.SearchCandidate, error) {
	if limit <= 0 || limit > MaxSearchCandidates {
		limit = MaxSearchCandidates
	}

	where, args := buildFilterClause(filters, nil)

	similarityExpr := "NULL::float8"
	orderBy := "year DESC, id"
	if queryVector != nil {
		args = append(args, pgvector.NewVector(queryVector))
		idx := len(args)
		similarityExpr = fmt.Sprintf("CASE WHEN embedding IS NOT NULL THEN 1 - (embedding <=> $%d) END", idx)
		orderBy = fmt.Sprintf("embedding <=> $%d NULLS LAST, year DESC, id", idx)
	}

	args = append(args, limit)
	query := fmt.Sprintf(
		"SELECT %s, %s AS similarity FROM judgments %s ORDER BY %s LIMIT $%d",
		judgmentColumns, similarityExpr, where, orderBy, len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query search candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*models.SearchCandidate
	for rows.Next() {
		j := &models.Judgment{}
		var tier *string
		var similarity *float64
		err := rows.Scan(
			&j.ID,
			&j.CaseName,
			&j.Citation,
			&j.CourtName,
			&tier,
			&j.Jurisdiction,
			&j.Year,
			&j.JudgeName,
			&j.DecisionDate,
			&j.PartyNames,
			&j.LegalAreas,
			&j.Keywords,
			&j.Headnotes,
			&j.Summary,
			&j.RatioDecidendi,
			&j.HasEmbedding,
			&j.CreatedAt,
			&similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search candidate: %w", err)
		}
		if tier != nil {
			t := models.CourtTier(*tier)
			j.CourtTier = &t
		}
		candidates = append(candidates, &models.SearchCandidate{Judgment: j, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search candidates: %w", err)
	}

	return candidates, nil
}

// UpdateEmbedding stores the document-level vector for one judgment
func (r *JudgmentRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	_, err := r.db.Exec(ctx,
		"UPDATE judgments SET embedding = $2 WHERE id = $1",
		id, pgvector.NewVector(vector),
	)
	return err
}

// ListMissingEmbeddings returns judgments whose embedding column is null,
// bounded so one backfill run stays finite.
func (r *JudgmentRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]*models.Judgment, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM judgments WHERE embedding IS NULL ORDER BY created_at LIMIT $1",
		judgmentColumns,
	)
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query judgments missing embeddings: %w", err)
	}
	defer rows.Close()

	var judgments []*models.Judgment
	for rows.Next() {
		j, err := scanJudgment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan judgment: %w", err)
		}
		judgments = append(judgments, j)
	}
	return judgments, rows.Err()
}

// FindIDByCitation resolves a normalized citation string to a judgment id.
// Returns nil when nothing matches.
func (r *JudgmentRepository) FindIDByCitation(ctx context.Context, citation string) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx,
		"SELECT id FROM judgments WHERE lower(trim(citation)) = lower(trim($1)) LIMIT 1",
		citation,
	).Scan(&id)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// CountAll returns the total and embedded judgment counts for monitoring
func (r *JudgmentRepository) CountAll(ctx context.Context) (total int, embedded int, err error) {
	err = r.db.QueryRow(ctx,
		"SELECT COUNT(*), COUNT(embedding) FROM judgments",
	).Scan(&total, &embedded)
	return total, embedded, err
}
