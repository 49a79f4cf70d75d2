package repository

import (
	"context"

	"pawmate/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type KnowledgeRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewKnowledgeRepository(db *pgxpool.Pool, logger *zap.Logger) *KnowledgeRepository {
	return &KnowledgeRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts an entry or, when an entry with the same content hash
// already exists, refreshes its answer and category. The question text (and
// therefore the hash and embedding) is the identity of an entry.
func (r *KnowledgeRepository) Upsert(ctx context.Context, entry *models.KnowledgeEntry) error {
	embedding := floatArray(entry.Embedding)

	query := squirrel.Insert("knowledge_entries").
		Columns("id", "question", "answer", "category", "content_hash", "embedding", "created_at", "updated_at").
		Values(entry.ID, entry.Question, entry.Answer, entry.Category, entry.ContentHash, embedding, entry.CreatedAt, entry.UpdatedAt).
		Suffix("ON CONFLICT (content_hash) DO UPDATE SET answer = EXCLUDED.answer, category = EXCLUDED.category, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// List returns all entries ordered by creation time, id as tie-break, so the
// corpus is a stable ordered collection.
func (r *KnowledgeRepository) List(ctx context.Context) ([]*models.KnowledgeEntry, error) {
	query := squirrel.Select("id", "question", "answer", "category", "content_hash", "embedding", "created_at", "updated_at").
		From("knowledge_entries").
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.KnowledgeEntry
	for rows.Next() {
		var entry models.KnowledgeEntry
		var embedding pgtype.FlatArray[float32]

		if err := rows.Scan(
			&entry.ID, &entry.Question, &entry.Answer, &entry.Category, &entry.ContentHash, &embedding, &entry.CreatedAt, &entry.UpdatedAt,
		); err != nil {
			return nil, err
		}

		entry.Embedding = []float32(embedding)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// UpdateEmbedding persists a freshly computed vector and the hash it belongs to.
func (r *KnowledgeRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, contentHash string, embedding []float32) error {
	query := squirrel.Update("knowledge_entries").
		Set("content_hash", contentHash).
		Set("embedding", floatArray(embedding)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func floatArray(v []float32) pgtype.FlatArray[float32] {
	arr := pgtype.FlatArray[float32]{}
	for _, f := range v {
		arr = append(arr, f)
	}
	return arr
}
