package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"pawmate/internal/repository"
	"pawmate/internal/service"
	"pawmate/pkg/config"
	"pawmate/pkg/logger"
	"pawmate/pkg/postgres"

	"go.uber.org/zap"
)

// faqFile is one JSON record of the curated FAQ seed file.
type faqFile []struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

func main() {
	path := flag.String("file", "data/faqs.json", "path to the FAQ seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		appLogger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	knowledgeRepo := repository.NewKnowledgeRepository(db, appLogger)
	embeddingRepo := repository.NewEmbeddingRepository(db, appLogger)

	embedder, err := service.NewOpenAIEmbedder(&cfg.OpenAI, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize embedding provider", zap.Error(err))
	}

	embeddingService := service.NewEmbeddingService(
		embedder, embeddingRepo, cfg.OpenAI.EmbeddingModel, cfg.OpenAI.Timeout, appLogger,
	)
	corpusService := service.NewCorpusService(knowledgeRepo, embeddingService, appLogger)

	records, err := loadFAQFile(*path)
	if err != nil {
		appLogger.Fatal("Failed to load FAQ file", zap.String("path", *path), zap.Error(err))
	}

	appLogger.Info("Seeding knowledge base", zap.String("path", *path), zap.Int("records", len(records)))

	imported, err := corpusService.Import(ctx, records)
	if err != nil {
		appLogger.Fatal("Seeding failed", zap.Int("imported", imported), zap.Error(err))
	}

	appLogger.Info("Knowledge base seeded",
		zap.Int("imported", imported),
		zap.Int("corpus_size", len(corpusService.Snapshot())),
	)
}

func loadFAQFile(path string) ([]service.KnowledgeImport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var faqs faqFile
	if err := json.Unmarshal(data, &faqs); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	records := make([]service.KnowledgeImport, 0, len(faqs))
	for _, faq := range faqs {
		records = append(records, service.KnowledgeImport{
			Question: faq.Question,
			Answer:   faq.Answer,
			Category: faq.Category,
		})
	}

	return records, nil
}
