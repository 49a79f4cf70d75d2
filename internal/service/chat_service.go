package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pawmate/internal/models"
	"pawmate/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerativeProvider is the opaque generative fallback boundary. The
// orchestrator bounds every call with a deadline and recovers every error.
type GenerativeProvider interface {
	Complete(ctx context.Context, req *GenerationRequest) (string, error)
}

// ConversationLog is the append-only chat record sink. Recent returns the
// last n messages of a session in chronological order.
type ConversationLog interface {
	Append(ctx context.Context, msg *models.ChatMessage) error
	Recent(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error)
}

const apologyText = "Sorry, I couldn't process your request right now. Please try again in a moment."

const mediaAckText = "Thanks for the photo! I've passed it to image analysis and will report back here once it's done."

// ChatService sequences the query pipeline: classify, retrieve, resolve the
// confidence tier, compose the answer. Every provider-boundary failure is
// recovered here; callers always receive a well-formed answer.
type ChatService struct {
	classifier   *IntentClassifier
	embeddings   *EmbeddingService
	corpus       *CorpusService
	search       *SearchEngine
	thresholds   Thresholds
	generator    GenerativeProvider
	log          ConversationLog
	genTimeout   time.Duration
	historyLimit int
	logger       *zap.Logger
}

func NewChatService(
	classifier *IntentClassifier,
	embeddings *EmbeddingService,
	corpus *CorpusService,
	search *SearchEngine,
	generator GenerativeProvider,
	log ConversationLog,
	retrievalCfg *config.RetrievalConfig,
	genTimeout time.Duration,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		classifier:   classifier,
		embeddings:   embeddings,
		corpus:       corpus,
		search:       search,
		thresholds:   ThresholdsFromConfig(retrievalCfg),
		generator:    generator,
		log:          log,
		genTimeout:   genTimeout,
		historyLimit: retrievalCfg.HistoryLimit,
		logger:       logger,
	}
}

// Answer processes one query end to end and never fails: degraded paths
// produce a system or apology response instead of an error.
func (s *ChatService) Answer(ctx context.Context, q *models.Query) *models.Answer {
	if q.ReceivedAt.IsZero() {
		q.ReceivedAt = time.Now()
	}
	if q.SessionID == "" {
		q.SessionID = uuid.NewString()
	}

	s.appendMessage(ctx, q.SessionID, models.SenderUser, q.Text, q.MediaRef, q.ReceivedAt)

	var answer *models.Answer
	switch s.classifier.Classify(q.Text, q.HasMedia()) {
	case models.IntentGreeting:
		answer = greetingAnswer(q.Profile)
	case models.IntentMediaQuery:
		answer = &models.Answer{
			Text:       mediaAckText,
			Source:     models.SourceSystem,
			Confidence: models.TierNone,
		}
	default:
		answer = s.retrieve(ctx, q)
	}

	// Assistant record timestamps never precede the query that triggered them.
	ts := time.Now()
	if ts.Before(q.ReceivedAt) {
		ts = q.ReceivedAt
	}
	s.appendMessage(ctx, q.SessionID, models.SenderAssistant, answer.Text, "", ts)

	return answer
}

// History returns the recent conversation of a session.
func (s *ChatService) History(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error) {
	return s.log.Recent(ctx, sessionID, limit)
}

func (s *ChatService) retrieve(ctx context.Context, q *models.Query) *models.Answer {
	queryVec, err := s.embeddings.QueryVector(ctx, q.Text)
	if err != nil {
		// Degrade to keyword scoring; the outage is never surfaced.
		s.logger.Warn("Query embedding unavailable, using keyword scoring", zap.Error(err))
		queryVec = nil
	}

	results := s.search.Rank(queryVec, q.Text, s.corpus.Snapshot())

	var top *models.SimilarityResult
	if len(results) > 0 {
		top = &results[0]
	}

	tier := ResolveTier(top, s.thresholds)

	switch tier {
	case models.TierHigh, models.TierMedium:
		entry, ok := s.corpus.Entry(top.EntryID)
		if !ok {
			// Snapshot swapped mid-query; treat as no match.
			s.logger.Warn("Ranked entry missing from snapshot", zap.String("entry_id", top.EntryID.String()))
			return s.generativeAnswer(ctx, q, "", top.Score, models.TierNone)
		}
		s.logger.Info("Knowledge-base answer",
			zap.String("entry_id", entry.ID.String()),
			zap.Float64("score", top.Score),
			zap.String("confidence", string(tier)),
		)
		return &models.Answer{
			Text:            entry.Answer,
			MatchedQuestion: entry.Question,
			Score:           top.Score,
			Source:          models.SourceKnowledgeBase,
			Confidence:      tier,
		}

	case models.TierLow:
		hint := ""
		if entry, ok := s.corpus.Entry(top.EntryID); ok {
			hint = entry.Answer
		}
		return s.generativeAnswer(ctx, q, hint, top.Score, models.TierLow)

	default:
		score := 0.0
		if top != nil {
			score = top.Score
		}
		return s.generativeAnswer(ctx, q, "", score, models.TierNone)
	}
}

// generativeAnswer invokes the fallback with a bounded deadline. A failure is
// converted into a deterministic apology with confidence none.
func (s *ChatService) generativeAnswer(ctx context.Context, q *models.Query, hint string, score float64, tier models.ConfidenceTier) *models.Answer {
	history, err := s.log.Recent(ctx, q.SessionID, s.historyLimit)
	if err != nil {
		s.logger.Warn("Failed to read conversation history", zap.Error(err))
		history = nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	text, err := s.generator.Complete(callCtx, &GenerationRequest{
		Question:      q.Text,
		Profile:       q.Profile,
		Location:      q.Location,
		History:       history,
		RetrievalHint: hint,
	})
	if err != nil {
		s.logger.Warn("Generative fallback failed", zap.Error(err))
		return &models.Answer{
			Text:       apologyText,
			Score:      score,
			Source:     models.SourceGenerative,
			Confidence: models.TierNone,
		}
	}

	return &models.Answer{
		Text:       sanitizeUTF8(strings.TrimSpace(text)),
		Score:      score,
		Source:     models.SourceGenerative,
		Confidence: tier,
	}
}

func (s *ChatService) appendMessage(ctx context.Context, sessionID, sender, text, mediaRef string, ts time.Time) {
	msg := &models.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Sender:    sender,
		Text:      sanitizeUTF8(text),
		MediaRef:  mediaRef,
		CreatedAt: ts,
	}
	if err := s.log.Append(ctx, msg); err != nil {
		// The answer still goes out; only the log record is lost.
		s.logger.Error("Failed to append chat message", zap.Error(err))
	}
}

func greetingAnswer(profile *models.PetProfile) *models.Answer {
	subject := "your dog"
	if profile != nil && profile.Name != "" {
		subject = profile.Name
	}
	return &models.Answer{
		Text:       fmt.Sprintf("Hello! I'm here to help you with %s's health and care. How can I assist you today?", subject),
		Source:     models.SourceSystem,
		Confidence: models.TierNone,
	}
}
