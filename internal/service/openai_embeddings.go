package service

import (
	"context"
	"fmt"

	"pawmate/pkg/config"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIEmbedder implements EmbeddingProvider against the OpenAI embeddings
// API (text-embedding-3-small by default, 1536 dimensions).
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger *zap.Logger
}

func NewOpenAIEmbedder(cfg *config.OpenAIConfig, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(cfg.APIKey),
		model:  openai.EmbeddingModel(cfg.EmbeddingModel),
		logger: logger,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// Responses are index-tagged; do not assume order.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("empty embedding returned for input %d", i)
		}
		if len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("inconsistent embedding dimensions: %d vs %d", len(v), len(vectors[0]))
		}
	}

	e.logger.Debug("Embeddings generated",
		zap.Int("count", len(vectors)),
		zap.Int("dimension", len(vectors[0])),
	)

	return vectors, nil
}
