package service

import (
	"context"
	"fmt"
	"time"

	"pawmate/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// EmbeddingProvider turns text into fixed-dimension vectors. Implementations
// wrap an external API and must honor the context deadline.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorCacheStore persists content-hash keyed vectors, scoped by model tag.
// Get returns (nil, nil) on a miss.
type VectorCacheStore interface {
	Get(ctx context.Context, model, contentHash string) ([]float32, error)
	Put(ctx context.Context, rec *models.EmbeddingCacheRecord) error
	Delete(ctx context.Context, model, contentHash string) error
}

// EmbeddingService resolves text to vectors through a persisted cache.
// Concurrent misses for the same content hash collapse into one provider call.
type EmbeddingService struct {
	provider EmbeddingProvider
	cache    VectorCacheStore
	model    string
	timeout  time.Duration
	group    singleflight.Group
	logger   *zap.Logger
}

func NewEmbeddingService(
	provider EmbeddingProvider,
	cache VectorCacheStore,
	model string,
	timeout time.Duration,
	logger *zap.Logger,
) *EmbeddingService {
	return &EmbeddingService{
		provider: provider,
		cache:    cache,
		model:    model,
		timeout:  timeout,
		logger:   logger,
	}
}

// Model returns the embedding model tag the cache is scoped to.
func (s *EmbeddingService) Model() string {
	return s.model
}

// QueryVector returns the vector for text, from cache when possible. A cache
// persistence failure is logged and the freshly computed vector is still
// returned; a provider failure propagates so callers can degrade to keyword
// scoring.
func (s *EmbeddingService) QueryVector(ctx context.Context, text string) ([]float32, error) {
	hash := ContentHash(text)

	cached, err := s.cache.Get(ctx, s.model, hash)
	if err != nil {
		s.logger.Warn("Embedding cache read failed", zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	v, err, _ := s.group.Do(hash, func() (interface{}, error) {
		// Another caller may have filled the cache while we queued.
		if cached, err := s.cache.Get(ctx, s.model, hash); err == nil && cached != nil {
			return cached, nil
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		vec, err := s.provider.Embed(callCtx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding provider: %w", err)
		}

		if err := s.cache.Put(ctx, &models.EmbeddingCacheRecord{
			Model:       s.model,
			ContentHash: hash,
			Embedding:   vec,
			CreatedAt:   time.Now(),
		}); err != nil {
			// Not fatal: the vector is recomputed on the next miss.
			s.logger.Warn("Embedding cache write failed",
				zap.String("content_hash", hash),
				zap.Error(err),
			)
		}

		return vec, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]float32), nil
}

// CachedVector returns the cached vector for a content hash without ever
// calling the provider. A miss returns nil.
func (s *EmbeddingService) CachedVector(ctx context.Context, contentHash string) []float32 {
	cached, err := s.cache.Get(ctx, s.model, contentHash)
	if err != nil {
		s.logger.Warn("Embedding cache read failed", zap.Error(err))
		return nil
	}
	return cached
}

// EmbedBatch embeds texts in one provider round trip and persists each result
// under its content hash.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vectors, err := s.provider.EmbedBatch(callCtx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding provider batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d texts", len(vectors), len(texts))
	}

	for i, vec := range vectors {
		if err := s.cache.Put(ctx, &models.EmbeddingCacheRecord{
			Model:       s.model,
			ContentHash: ContentHash(texts[i]),
			Embedding:   vec,
			CreatedAt:   time.Now(),
		}); err != nil {
			s.logger.Warn("Embedding cache write failed", zap.Error(err))
		}
	}

	return vectors, nil
}

// Invalidate drops the cache record for a content hash. Called on
// knowledge-base edits.
func (s *EmbeddingService) Invalidate(ctx context.Context, contentHash string) error {
	if err := s.cache.Delete(ctx, s.model, contentHash); err != nil {
		return fmt.Errorf("failed to invalidate cache record: %w", err)
	}
	return nil
}
