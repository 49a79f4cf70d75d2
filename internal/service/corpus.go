package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"pawmate/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// KnowledgeStore persists curated knowledge entries.
type KnowledgeStore interface {
	List(ctx context.Context) ([]*models.KnowledgeEntry, error)
	Upsert(ctx context.Context, entry *models.KnowledgeEntry) error
	UpdateEmbedding(ctx context.Context, id uuid.UUID, contentHash string, embedding []float32) error
}

// KnowledgeImport is one record of a bulk knowledge-base import.
type KnowledgeImport struct {
	Question string
	Answer   string
	Category string
}

type corpusSnapshot struct {
	entries []*models.KnowledgeEntry
	byID    map[uuid.UUID]*models.KnowledgeEntry
}

// CorpusService owns the in-memory corpus snapshot the query pipeline reads.
// The snapshot is immutable and swapped wholesale after a load or import, so
// a search never observes a partially updated entry list.
type CorpusService struct {
	store      KnowledgeStore
	embeddings *EmbeddingService
	snapshot   atomic.Pointer[corpusSnapshot]
	group      singleflight.Group
	logger     *zap.Logger
}

func NewCorpusService(store KnowledgeStore, embeddings *EmbeddingService, logger *zap.Logger) *CorpusService {
	s := &CorpusService{
		store:      store,
		embeddings: embeddings,
		logger:     logger,
	}
	s.snapshot.Store(&corpusSnapshot{byID: map[uuid.UUID]*models.KnowledgeEntry{}})
	return s
}

// Load reads all entries, embeds the ones with a missing vector or a stale
// content hash (one batch provider call, cache-gated), and swaps the snapshot.
// Concurrent loads collapse into a single pass. A provider outage leaves the
// affected embeddings absent; search degrades to keyword scoring for them.
func (s *CorpusService) Load(ctx context.Context) error {
	_, err, _ := s.group.Do("corpus-load", func() (interface{}, error) {
		return nil, s.load(ctx)
	})
	return err
}

func (s *CorpusService) load(ctx context.Context) error {
	entries, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list knowledge entries: %w", err)
	}

	var pending []*models.KnowledgeEntry
	for _, entry := range entries {
		hash := ContentHash(entry.Question)
		stale := entry.ContentHash != hash
		if stale && entry.ContentHash != "" {
			// The question text changed since the vector was computed.
			if err := s.embeddings.Invalidate(ctx, entry.ContentHash); err != nil {
				s.logger.Warn("Failed to drop stale cache record",
					zap.String("entry_id", entry.ID.String()),
					zap.Error(err),
				)
			}
		}
		if !stale && entry.HasEmbedding() {
			continue
		}

		entry.ContentHash = hash
		entry.Embedding = nil

		if cached := s.embeddings.CachedVector(ctx, hash); cached != nil {
			entry.Embedding = cached
			s.persistEmbedding(ctx, entry)
			continue
		}
		pending = append(pending, entry)
	}

	if len(pending) > 0 {
		texts := make([]string, len(pending))
		for i, entry := range pending {
			texts[i] = entry.Question
		}

		vectors, err := s.embeddings.EmbedBatch(ctx, texts)
		if err != nil {
			// Entries stay without vectors; they remain searchable by keywords.
			s.logger.Warn("Batch embedding failed, corpus loaded without vectors",
				zap.Int("pending", len(pending)),
				zap.Error(err),
			)
		} else {
			for i, entry := range pending {
				entry.Embedding = vectors[i]
				s.persistEmbedding(ctx, entry)
			}
		}
	}

	byID := make(map[uuid.UUID]*models.KnowledgeEntry, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
	}
	s.snapshot.Store(&corpusSnapshot{entries: entries, byID: byID})

	s.logger.Info("Knowledge corpus loaded",
		zap.Int("entries", len(entries)),
		zap.Int("embedded", len(entries)-countMissing(entries)),
	)

	return nil
}

func (s *CorpusService) persistEmbedding(ctx context.Context, entry *models.KnowledgeEntry) {
	if err := s.store.UpdateEmbedding(ctx, entry.ID, entry.ContentHash, entry.Embedding); err != nil {
		s.logger.Warn("Failed to persist entry embedding",
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err),
		)
	}
}

// Snapshot returns the current immutable corpus view.
func (s *CorpusService) Snapshot() []*models.KnowledgeEntry {
	return s.snapshot.Load().entries
}

// Entry looks an entry up in the current snapshot.
func (s *CorpusService) Entry(id uuid.UUID) (*models.KnowledgeEntry, bool) {
	entry, ok := s.snapshot.Load().byID[id]
	return entry, ok
}

// Import upserts records (deduplicated by normalized question text), embeds
// only hashes not already cached, and refreshes the snapshot. Returns the
// number of records written.
func (s *CorpusService) Import(ctx context.Context, records []KnowledgeImport) (int, error) {
	seen := make(map[string]struct{}, len(records))
	now := time.Now()

	imported := 0
	for _, rec := range records {
		question := sanitizeUTF8(rec.Question)
		if NormalizeText(question) == "" || rec.Answer == "" {
			continue
		}

		hash := ContentHash(question)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}

		entry := &models.KnowledgeEntry{
			ID:          uuid.New(),
			Question:    question,
			Answer:      sanitizeUTF8(rec.Answer),
			Category:    rec.Category,
			ContentHash: hash,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.Upsert(ctx, entry); err != nil {
			return imported, fmt.Errorf("failed to upsert entry %q: %w", question, err)
		}
		imported++
	}

	if err := s.Load(ctx); err != nil {
		return imported, err
	}

	return imported, nil
}

// Export returns the curated records of the current snapshot.
func (s *CorpusService) Export() []KnowledgeImport {
	entries := s.Snapshot()
	records := make([]KnowledgeImport, 0, len(entries))
	for _, entry := range entries {
		records = append(records, KnowledgeImport{
			Question: entry.Question,
			Answer:   entry.Answer,
			Category: entry.Category,
		})
	}
	return records
}

func countMissing(entries []*models.KnowledgeEntry) int {
	missing := 0
	for _, entry := range entries {
		if !entry.HasEmbedding() {
			missing++
		}
	}
	return missing
}
