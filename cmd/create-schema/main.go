package main

import (
	"context"
	"log"

	"qanoonhub-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Enable pgvector extension
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
	} else {
		log.Println("✓ pgvector extension enabled")
	}

	schemaSQL := `
CREATE TABLE IF NOT EXISTS judgments (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),

    -- Identification
    case_name TEXT NOT NULL,
    citation TEXT NOT NULL,
    court_name TEXT NOT NULL,
    court_tier VARCHAR(20) CHECK (court_tier IN ('trial', 'appellate', 'apex', 'tribunal')),
    jurisdiction TEXT NOT NULL DEFAULT '',
    year INTEGER NOT NULL,
    judge_name TEXT,
    decision_date DATE,
    party_names TEXT,

    -- Editorial metadata
    legal_areas TEXT[] NOT NULL DEFAULT '{}',
    keywords TEXT[] NOT NULL DEFAULT '{}',
    headnotes TEXT[] NOT NULL DEFAULT '{}',
    summary TEXT,
    ratio_decidendi TEXT,

    -- Opinion text and its document-level embedding
    full_text TEXT,
    embedding vector(768),

    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS judgment_chunks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    judgment_id UUID NOT NULL REFERENCES judgments(id) ON DELETE CASCADE,
    chunk_text TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    embedding vector(768),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS citation_links (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    citing_judgment_id UUID NOT NULL REFERENCES judgments(id) ON DELETE CASCADE,
    cited_citation TEXT NOT NULL,
    cited_judgment_id UUID REFERENCES judgments(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ingestion_jobs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    job_type VARCHAR(20) NOT NULL CHECK (job_type IN ('incremental', 'bulk')),
    jurisdiction TEXT,
    total_records INTEGER NOT NULL DEFAULT 0,
    processed_count INTEGER NOT NULL DEFAULT 0,
    embedded_count INTEGER NOT NULL DEFAULT 0,
    failed_count INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'running', 'completed', 'failed')),
    error_message TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    started_at TIMESTAMPTZ,
    completed_at TIMESTAMPTZ
);
`
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}
	log.Println("✓ Tables created")

	indexSQL := `
-- Structural filter paths
CREATE INDEX IF NOT EXISTS idx_judgments_jurisdiction ON judgments (lower(jurisdiction));
CREATE INDEX IF NOT EXISTS idx_judgments_court_tier ON judgments (court_tier);
CREATE INDEX IF NOT EXISTS idx_judgments_court_name ON judgments (court_name);
CREATE INDEX IF NOT EXISTS idx_judgments_year ON judgments (year);
CREATE INDEX IF NOT EXISTS idx_judgments_legal_areas ON judgments USING GIN (legal_areas);
CREATE INDEX IF NOT EXISTS idx_judgments_citation ON judgments (lower(trim(citation)));

-- Vector similarity (cosine)
CREATE INDEX IF NOT EXISTS idx_judgments_embedding ON judgments
    USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
CREATE INDEX IF NOT EXISTS idx_judgment_chunks_embedding ON judgment_chunks
    USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);

-- Chunk and citation lookups
CREATE INDEX IF NOT EXISTS idx_judgment_chunks_judgment ON judgment_chunks (judgment_id, ordinal);
CREATE INDEX IF NOT EXISTS idx_citation_links_citing ON citation_links (citing_judgment_id);
CREATE INDEX IF NOT EXISTS idx_citation_links_cited ON citation_links (cited_judgment_id);
CREATE INDEX IF NOT EXISTS idx_citation_links_unresolved ON citation_links (lower(trim(cited_citation)))
    WHERE cited_judgment_id IS NULL;

-- Backfill candidate scans
CREATE INDEX IF NOT EXISTS idx_judgments_missing_embedding ON judgments (created_at)
    WHERE embedding IS NULL;
CREATE INDEX IF NOT EXISTS idx_judgment_chunks_missing_embedding ON judgment_chunks (created_at)
    WHERE embedding IS NULL;
`
	if _, err := pool.Exec(ctx, indexSQL); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	log.Println("✓ Indexes created")

	log.Println("Schema setup complete")
}
