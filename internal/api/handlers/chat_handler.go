package handlers

import (
	"strconv"
	"time"

	"pawmate/internal/dto"
	"pawmate/internal/models"
	"pawmate/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat godoc
// @Summary Ask a question
// @Description Routes a free-text question through intent classification and semantic retrieval
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Question with optional media reference, pet profile and location"
// @Success 200 {object} dto.ChatAnswer
// @Failure 400 {object} map[string]string
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Question == "" && req.MediaRef == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question or media reference is required",
		})
	}

	query := &models.Query{
		SessionID:  req.SessionID,
		Text:       req.Question,
		MediaRef:   req.MediaRef,
		Profile:    toProfile(req.PetProfile),
		Location:   req.Location,
		ReceivedAt: time.Now(),
	}

	answer := h.chatService.Answer(c.UserContext(), query)

	return c.JSON(dto.ChatAnswer{
		SessionID:       query.SessionID,
		Answer:          answer.Text,
		MatchedQuestion: answer.MatchedQuestion,
		Score:           answer.Score,
		Source:          string(answer.Source),
		Confidence:      string(answer.Confidence),
	})
}

// Messages godoc
// @Summary List conversation history
// @Tags chat
// @Produce json
// @Param session path string true "Session ID"
// @Param limit query int false "Maximum number of messages" default(50)
// @Success 200 {array} dto.ChatMessageResponse
// @Router /api/v1/chat/{session}/messages [get]
func (h *ChatHandler) Messages(c *fiber.Ctx) error {
	sessionID := c.Params("session")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Session ID is required",
		})
	}

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	messages, err := h.chatService.History(c.UserContext(), sessionID, limit)
	if err != nil {
		h.logger.Error("Failed to read conversation history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read messages",
		})
	}

	resp := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, dto.ChatMessageResponse{
			ID:        msg.ID.String(),
			Sender:    msg.Sender,
			Text:      msg.Text,
			MediaRef:  msg.MediaRef,
			CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(resp)
}

func toProfile(p *dto.PetProfile) *models.PetProfile {
	if p == nil {
		return nil
	}
	return &models.PetProfile{
		Name:              p.Name,
		Breed:             p.Breed,
		AgeYears:          p.AgeYears,
		WeightKg:          p.WeightKg,
		Gender:            p.Gender,
		ActivityLevel:     p.ActivityLevel,
		MedicalConditions: p.MedicalConditions,
		Goals:             p.Goals,
	}
}
