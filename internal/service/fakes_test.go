package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"pawmate/internal/models"

	"github.com/google/uuid"
)

// fakeEmbedder returns deterministic vectors from a fixed map and counts
// provider round trips.
type fakeEmbedder struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	failAll    bool
	embedCalls int
	batchCalls int
}

func newFakeEmbedder(vectors map[string][]float32) *fakeEmbedder {
	if vectors == nil {
		vectors = map[string][]float32{}
	}
	return &fakeEmbedder{vectors: vectors}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls++
	if f.failAll {
		return nil, errors.New("embedding provider down")
	}
	if v, ok := f.vectors[NormalizeText(text)]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.failAll {
		return nil, errors.New("embedding provider down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[NormalizeText(text)]; ok {
			out[i] = v
		} else {
			out[i] = []float32{1, 0, 0}
		}
	}
	return out, nil
}

func (f *fakeEmbedder) calls() (embed, batch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.embedCalls, f.batchCalls
}

// memVectorCache is an in-memory VectorCacheStore keyed by model|hash.
type memVectorCache struct {
	mu      sync.Mutex
	records map[string][]float32
}

func newMemVectorCache() *memVectorCache {
	return &memVectorCache{records: map[string][]float32{}}
}

func (c *memVectorCache) Get(_ context.Context, model, contentHash string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records[model+"|"+contentHash], nil
}

func (c *memVectorCache) Put(_ context.Context, rec *models.EmbeddingCacheRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[rec.Model+"|"+rec.ContentHash] = rec.Embedding
	return nil
}

func (c *memVectorCache) Delete(_ context.Context, model, contentHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, model+"|"+contentHash)
	return nil
}

func (c *memVectorCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// memKnowledgeStore is an in-memory KnowledgeStore upserting by content hash.
type memKnowledgeStore struct {
	mu      sync.Mutex
	entries map[string]*models.KnowledgeEntry
	listErr error
}

func newMemKnowledgeStore() *memKnowledgeStore {
	return &memKnowledgeStore{entries: map[string]*models.KnowledgeEntry{}}
}

func (s *memKnowledgeStore) List(_ context.Context) ([]*models.KnowledgeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*models.KnowledgeEntry, 0, len(s.entries))
	for _, e := range s.entries {
		clone := *e
		clone.Embedding = append([]float32(nil), e.Embedding...)
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memKnowledgeStore) Upsert(_ context.Context, entry *models.KnowledgeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[entry.ContentHash]; ok {
		existing.Answer = entry.Answer
		existing.Category = entry.Category
		existing.UpdatedAt = entry.UpdatedAt
		return nil
	}
	clone := *entry
	s.entries[entry.ContentHash] = &clone
	return nil
}

func (s *memKnowledgeStore) UpdateEmbedding(_ context.Context, id uuid.UUID, contentHash string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			e.ContentHash = contentHash
			e.Embedding = append([]float32(nil), embedding...)
			return nil
		}
	}
	return nil
}

func (s *memKnowledgeStore) seed(question, answer, category string, embedding []float32) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	entry := &models.KnowledgeEntry{
		ID:          uuid.New(),
		Question:    question,
		Answer:      answer,
		Category:    category,
		ContentHash: ContentHash(question),
		Embedding:   embedding,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.entries[entry.ContentHash] = entry
	return entry.ID
}

// memChatLog is an in-memory ConversationLog.
type memChatLog struct {
	mu        sync.Mutex
	messages  []*models.ChatMessage
	appendErr error
}

func (l *memChatLog) Append(_ context.Context, msg *models.ChatMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return l.appendErr
	}
	l.messages = append(l.messages, msg)
	return nil
}

func (l *memChatLog) Recent(_ context.Context, sessionID string, limit int) ([]*models.ChatMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.ChatMessage
	for _, m := range l.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (l *memChatLog) bySession(sessionID string) []*models.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.ChatMessage
	for _, m := range l.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out
}

// stubGenerator records the last request and returns a canned completion.
type stubGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	calls   int
	lastReq *GenerationRequest
}

func (g *stubGenerator) Complete(_ context.Context, req *GenerationRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func (g *stubGenerator) last() (*GenerationRequest, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastReq, g.calls
}
