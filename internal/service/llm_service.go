package service

import (
	"context"
	"fmt"
	"strings"

	"pawmate/internal/models"
	"pawmate/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

// GenerationRequest is everything the generative fallback receives: the
// question, bounded conversation history, the subject profile and an optional
// soft retrieval hint from a weak knowledge-base match.
type GenerationRequest struct {
	Question      string
	Profile       *models.PetProfile
	Location      string
	History       []*models.ChatMessage
	RetrievalHint string
}

// GigaChatGenerator is the GigaChat-backed generative fallback.
type GigaChatGenerator struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
	logger *zap.Logger
}

func buildSystemInstruction() string {
	return `You are a helpful AI assistant specialized in dog health and care.
You provide expert advice on dog nutrition, health, behavior, and general care.

Rules:
- Keep answers short, clear, and chat-friendly (3-5 lines where possible).
- Be warm and supportive; never blame the owner.
- When a care-guide note is supplied, treat it as a hint, not ground truth.
- For anything that looks like an emergency or a diagnosis, advise seeing a
  veterinarian instead of guessing.`
}

func NewGigaChatGenerator(cfg *config.GigaChatConfig, logger *zap.Logger) (*GigaChatGenerator, error) {
	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel("GigaChat")
	model.SystemInstruction = buildSystemInstruction()
	model.Temperature = 0.7

	return &GigaChatGenerator{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Complete generates an answer for the request. The caller bounds ctx with a
// deadline; errors propagate so the orchestrator can fall back to its apology
// response.
func (g *GigaChatGenerator) Complete(ctx context.Context, req *GenerationRequest) (string, error) {
	prompt := buildPrompt(req)

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("empty response from LLM")
	}

	g.logger.Debug("Generative answer produced", zap.Int("length", len(answer)))

	return answer, nil
}

func (g *GigaChatGenerator) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}

func buildPrompt(req *GenerationRequest) string {
	var b strings.Builder

	if req.Profile != nil {
		p := req.Profile
		b.WriteString("Pet profile:\n")
		writeProfileLine(&b, "Name", p.Name)
		writeProfileLine(&b, "Breed", p.Breed)
		if p.AgeYears > 0 {
			fmt.Fprintf(&b, "- Age: %.1f years\n", p.AgeYears)
		}
		if p.WeightKg > 0 {
			fmt.Fprintf(&b, "- Weight: %.1f kg\n", p.WeightKg)
		}
		writeProfileLine(&b, "Gender", p.Gender)
		writeProfileLine(&b, "Activity level", p.ActivityLevel)
		writeProfileLine(&b, "Medical conditions", strings.Join(p.MedicalConditions, ", "))
		writeProfileLine(&b, "Goals", strings.Join(p.Goals, ", "))
		b.WriteString("\n")
	}

	if req.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n\n", req.Location)
	}

	if len(req.History) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, msg := range req.History {
			role := "User"
			if msg.Sender == models.SenderAssistant {
				role = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, msg.Text)
		}
		b.WriteString("\n")
	}

	if req.RetrievalHint != "" {
		fmt.Fprintf(&b, "Possibly relevant note from the care guide (use only if it fits):\n%s\n\n", req.RetrievalHint)
	}

	fmt.Fprintf(&b, "Question: %s", req.Question)

	return b.String()
}

func writeProfileLine(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "- %s: %s\n", label, value)
	}
}
