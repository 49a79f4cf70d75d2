package repository

import (
	"context"

	"pawmate/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// EmbeddingRepository persists content-hash keyed vectors. Records are scoped
// by the model tag so a model upgrade cannot serve stale-dimension vectors.
type EmbeddingRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewEmbeddingRepository(db *pgxpool.Pool, logger *zap.Logger) *EmbeddingRepository {
	return &EmbeddingRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns the cached vector, or (nil, nil) on a miss.
func (r *EmbeddingRepository) Get(ctx context.Context, model, contentHash string) ([]float32, error) {
	query := squirrel.Select("embedding").
		From("embedding_cache").
		Where(squirrel.Eq{"model": model, "content_hash": contentHash}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var embedding pgtype.FlatArray[float32]
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&embedding); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return []float32(embedding), nil
}

func (r *EmbeddingRepository) Put(ctx context.Context, rec *models.EmbeddingCacheRecord) error {
	query := squirrel.Insert("embedding_cache").
		Columns("model", "content_hash", "embedding", "created_at").
		Values(rec.Model, rec.ContentHash, floatArray(rec.Embedding), rec.CreatedAt).
		Suffix("ON CONFLICT (model, content_hash) DO UPDATE SET embedding = EXCLUDED.embedding, created_at = EXCLUDED.created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *EmbeddingRepository) Delete(ctx context.Context, model, contentHash string) error {
	query := squirrel.Delete("embedding_cache").
		Where(squirrel.Eq{"model": model, "content_hash": contentHash}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
