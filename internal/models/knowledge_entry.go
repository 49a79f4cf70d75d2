package models

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeEntry is one curated question/answer record of the knowledge base.
// ContentHash is the hash of the normalized question text and keys the
// embedding cache; it changes only when the question text changes.
type KnowledgeEntry struct {
	ID          uuid.UUID `db:"id"`
	Question    string    `db:"question"`
	Answer      string    `db:"answer"`
	Category    string    `db:"category"`
	ContentHash string    `db:"content_hash"`
	Embedding   []float32 `db:"embedding"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// HasEmbedding reports whether the entry carries a non-empty vector.
func (e *KnowledgeEntry) HasEmbedding() bool {
	return len(e.Embedding) > 0
}

// EmbeddingCacheRecord is a persisted content-hash keyed vector. The model tag
// scopes records to the embedding model that produced them, so a model change
// invalidates the cache instead of silently serving mismatched vectors.
type EmbeddingCacheRecord struct {
	Model       string    `db:"model"`
	ContentHash string    `db:"content_hash"`
	Embedding   []float32 `db:"embedding"`
	CreatedAt   time.Time `db:"created_at"`
}

// SimilarityResult is one ranked search hit.
type SimilarityResult struct {
	EntryID uuid.UUID
	Score   float64
}
