package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pawmate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type chatFixture struct {
	service   *ChatService
	store     *memKnowledgeStore
	embedder  *fakeEmbedder
	generator *stubGenerator
	log       *memChatLog
	corpus    *CorpusService
}

func newChatFixture(t *testing.T, vectors map[string][]float32) *chatFixture {
	t.Helper()

	store := newMemKnowledgeStore()
	embedder := newFakeEmbedder(vectors)
	generator := &stubGenerator{text: "Here is some general advice for your dog."}
	log := &memChatLog{}

	cfg := testRetrievalConfig()
	embeddings := NewEmbeddingService(embedder, newMemVectorCache(), "text-embedding-3-small", 5*time.Second, zap.NewNop())
	corpus := NewCorpusService(store, embeddings, zap.NewNop())

	svc := NewChatService(
		NewIntentClassifier(cfg),
		embeddings,
		corpus,
		NewSearchEngine(cfg.LowThreshold, cfg.TopK),
		generator,
		log,
		cfg,
		5*time.Second,
		zap.NewNop(),
	)

	return &chatFixture{
		service:   svc,
		store:     store,
		embedder:  embedder,
		generator: generator,
		log:       log,
		corpus:    corpus,
	}
}

func (f *chatFixture) loadCorpus(t *testing.T) {
	t.Helper()
	require.NoError(t, f.corpus.Load(context.Background()))
}

func TestChatGreeting(t *testing.T) {
	t.Parallel()

	fx := newChatFixture(t, nil)

	answer := fx.service.Answer(context.Background(), &models.Query{
		SessionID: "s1",
		Text:      "hello",
		Profile:   &models.PetProfile{Name: "Rex"},
	})

	assert.Contains(t, answer.Text, "Rex")
	assert.Equal(t, models.SourceSystem, answer.Source)
	assert.Equal(t, models.TierNone, answer.Confidence)

	embeds, batches := fx.embedder.calls()
	assert.Zero(t, embeds, "greetings never reach the embedding provider")
	assert.Zero(t, batches)
	_, genCalls := fx.generator.last()
	assert.Zero(t, genCalls, "greetings never reach the generative provider")
}

func TestChatGreetingWithoutProfile(t *testing.T) {
	t.Parallel()

	fx := newChatFixture(t, nil)

	answer := fx.service.Answer(context.Background(), &models.Query{SessionID: "s1", Text: "hi"})
	assert.Contains(t, answer.Text, "your dog")
	assert.Equal(t, models.SourceSystem, answer.Source)
}

func TestChatMediaAcknowledgement(t *testing.T) {
	t.Parallel()

	fx := newChatFixture(t, nil)

	answer := fx.service.Answer(context.Background(), &models.Query{
		SessionID: "s1",
		Text:      "what is this rash?",
		MediaRef:  "uploads/rash.jpg",
	})

	assert.Equal(t, mediaAckText, answer.Text)
	assert.Equal(t, models.SourceSystem, answer.Source)
	assert.Equal(t, models.TierNone, answer.Confidence)

	embeds, _ := fx.embedder.calls()
	assert.Zero(t, embeds, "media queries bypass retrieval")
}

func TestChatHighConfidenceReturnsKnowledgeAnswerVerbatim(t *testing.T) {
	t.Parallel()

	const storedAnswer = "Puppies under six months eat three times a day; adults twice."

	fx := newChatFixture(t, map[string][]float32{
		"how often should i feed my puppy": {1, 0, 0},
		"when to vaccinate a puppy":        {0, 1, 0},
	})
	fx.store.seed("how often should I feed my puppy", storedAnswer, "feeding", nil)
	fx.store.seed("when to vaccinate a puppy", "Core vaccines start at six weeks.", "health", nil)
	fx.loadCorpus(t)

	answer := fx.service.Answer(context.Background(), &models.Query{
		SessionID: "s1",
		Text:      "How often should I FEED my puppy?",
	})

	assert.Equal(t, storedAnswer, answer.Text)
	assert.Equal(t, "how often should I feed my puppy", answer.MatchedQuestion)
	assert.Equal(t, models.SourceKnowledgeBase, answer.Source)
	assert.Equal(t, models.TierHigh, answer.Confidence)
	assert.InDelta(t, 1.0, answer.Score, 1e-6)

	_, genCalls := fx.generator.last()
	assert.Zero(t, genCalls, "high confidence answers skip the generative provider")
}

func TestChatLowConfidencePassesHintToGenerator(t *testing.T) {
	t.Parallel()

	// Query and entry vectors at a similarity inside the low band.
	fx := newChatFixture(t, map[string][]float32{
		"grooming basics":             {1, 0, 0},
		"something loosely grooming?": {0.6, 0.8, 0},
	})
	fx.store.seed("grooming basics", "Brush weekly, bathe monthly.", "grooming", nil)
	fx.loadCorpus(t)

	answer := fx.service.Answer(context.Background(), &models.Query{
		SessionID: "s1",
		Text:      "something loosely grooming?",
	})

	assert.Equal(t, models.SourceGenerative, answer.Source)
	assert.Equal(t, models.TierLow, answer.Confidence)
	assert.Equal(t, "Here is some general advice for your dog.", answer.Text)

	req, genCalls := fx.generator.last()
	require.Equal(t, 1, genCalls)
	assert.Equal(t, "Brush weekly, bathe monthly.", req.RetrievalHint, "low confidence forwards the near-match as a hint")
}

func TestChatNoMatchGoesGenerative(t *testing.T) {
	t.Parallel()

	fx := newChatFixture(t, map[string][]float32{
		"grooming basics":           {1, 0, 0},
		"completely unrelated text": {0, 0, 1},
	})
	fx.store.seed("grooming basics", "Brush weekly.", "grooming", nil)
	fx.loadCorpus(t)

	answer := fx.service.Answer(context.Background(), &models.Query{
		SessionID: "s1",
		Text:      "completely unrelated text",
	})

	assert.Equal(t, models.SourceGenerative, answer.Source)
	assert.Equal(t, models.TierNone, answer.Confidence)
	assert.Empty(t, answer.MatchedQuestion)

	req, _ := fx.generator.last()
	assert.Empty(t, req.RetrievalHint)
}

func TestChatGeneratorFailureYieldsApology(t *testing.T) {
	t.Parallel()

	fx := newChatFixture(t, nil)
	fx.generator.err = errors.New("gigachat unavailable")

	answer := fx.service.Answer(context.Background(), &models.Query{
		SessionID: "s1",
		Text:      "how do I trim nails safely?",
	})

	assert.Equal(t, apologyText, answer.Text)
	assert.Equal(t, models.SourceGenerative, answer.Source)
	assert.Equal(t, models.TierNone, answer.Confidence)
}

func TestChatEmbeddingOutageDegradesToKeywords(t *testing.T) {
	t.Parallel()

	fx := newChatFixture(t, nil)
	fx.store.seed("how often should I feed my puppy", "Twice a day.", "feeding", []float32{1, 0, 0})
	fx.loadCorpus(t)
	fx.embedder.failAll = true

	answer := fx.service.Answer(context.Background(), &models.Query{
		SessionID: "s1",
		Text:      "how often should I feed my puppy",
	})

	// Keyword scores never reach the direct-answer band, so the fallback
	// speaks, but the request is still served.
	assert.Equal(t, models.SourceGenerative, answer.Source)
	assert.NotEqual(t, apologyText, answer.Text)
	assert.Greater(t, answer.Score, 0.0)
}

func TestChatSessionDefaultsAndLogging(t *testing.T) {
	t.Parallel()

	fx := newChatFixture(t, nil)

	q := &models.Query{Text: "hello"}
	fx.service.Answer(context.Background(), q)

	require.NotEmpty(t, q.SessionID, "missing session id is assigned")

	msgs := fx.log.bySession(q.SessionID)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.SenderUser, msgs[0].Sender)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, models.SenderAssistant, msgs[1].Sender)
	assert.False(t, msgs[1].CreatedAt.Before(msgs[0].CreatedAt), "assistant timestamp never precedes the query")
}

func TestChatLogFailureDoesNotBlockAnswer(t *testing.T) {
	t.Parallel()

	fx := newChatFixture(t, nil)
	fx.log.appendErr = errors.New("database down")

	answer := fx.service.Answer(context.Background(), &models.Query{SessionID: "s1", Text: "hello"})
	assert.Equal(t, models.SourceSystem, answer.Source)
	assert.NotEmpty(t, answer.Text)
}

func TestChatGeneratorReceivesHistoryAndProfile(t *testing.T) {
	t.Parallel()

	fx := newChatFixture(t, nil)

	profile := &models.PetProfile{Name: "Rex", Breed: "Beagle"}

	// An earlier exchange in the same session.
	fx.service.Answer(context.Background(), &models.Query{SessionID: "s1", Text: "hello", Profile: profile})

	fx.service.Answer(context.Background(), &models.Query{
		SessionID: "s1",
		Text:      "is chocolate dangerous for him?",
		Profile:   profile,
		Location:  "Berlin",
	})

	req, genCalls := fx.generator.last()
	require.Equal(t, 1, genCalls)
	assert.Equal(t, "is chocolate dangerous for him?", req.Question)
	assert.Equal(t, "Rex", req.Profile.Name)
	assert.Equal(t, "Berlin", req.Location)
	require.NotEmpty(t, req.History, "prior session messages flow into the prompt")
}
