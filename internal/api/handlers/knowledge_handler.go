package handlers

import (
	"pawmate/internal/dto"
	"pawmate/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type KnowledgeHandler struct {
	corpus *service.CorpusService
	logger *zap.Logger
}

func NewKnowledgeHandler(corpus *service.CorpusService, logger *zap.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		corpus: corpus,
		logger: logger,
	}
}

// Import godoc
// @Summary Import knowledge-base records
// @Description Bulk upsert of question/answer records; embeddings are computed only for uncached question hashes
// @Tags knowledge
// @Accept json
// @Produce json
// @Param records body []dto.KnowledgeRecord true "Records to import"
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/knowledge/import [post]
func (h *KnowledgeHandler) Import(c *fiber.Ctx) error {
	var records []dto.KnowledgeRecord
	if err := c.BodyParser(&records); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(records) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No records provided",
		})
	}

	imports := make([]service.KnowledgeImport, 0, len(records))
	for _, rec := range records {
		imports = append(imports, service.KnowledgeImport{
			Question: rec.Question,
			Answer:   rec.Answer,
			Category: rec.Category,
		})
	}

	imported, err := h.corpus.Import(c.UserContext(), imports)
	if err != nil {
		h.logger.Error("Knowledge import failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Import failed",
		})
	}

	return c.JSON(dto.ImportResponse{Imported: imported})
}

// Export godoc
// @Summary Export knowledge-base records
// @Tags knowledge
// @Produce json
// @Success 200 {array} dto.KnowledgeRecord
// @Router /api/v1/knowledge/export [get]
func (h *KnowledgeHandler) Export(c *fiber.Ctx) error {
	entries := h.corpus.Export()

	records := make([]dto.KnowledgeRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, dto.KnowledgeRecord{
			Question: entry.Question,
			Answer:   entry.Answer,
			Category: entry.Category,
		})
	}

	return c.JSON(records)
}
