package models

import (
	"time"

	"github.com/google/uuid"
)

// JudgmentChunk is a contiguous slice of a judgment's full opinion text,
// used for passage-level retrieval. Chunks are written once during ingestion;
// re-ingestion replaces them rather than patching in place.
type JudgmentChunk struct {
	ID           uuid.UUID `json:"id"`
	JudgmentID   uuid.UUID `json:"judgment_id"`
	ChunkText    string    `json:"chunk_text"`
	Ordinal      int       `json:"ordinal"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
}
