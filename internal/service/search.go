package service

import (
	"math"
	"sort"
	"strings"

	"pawmate/internal/models"
)

// keywordScale keeps keyword-overlap scores strictly below the low threshold,
// so a keyword match can never trigger a direct knowledge-base answer.
const keywordScale = 0.99

// SearchEngine ranks knowledge entries against a query by cosine similarity,
// with a bounded keyword-overlap substitute when vectors are not comparable.
// The corpus is small (hundreds of entries), so an exact linear scan is the
// default and only backend.
type SearchEngine struct {
	lowThreshold float64
	topK         int
}

func NewSearchEngine(lowThreshold float64, topK int) *SearchEngine {
	return &SearchEngine{
		lowThreshold: lowThreshold,
		topK:         topK,
	}
}

// Rank scores every entry of the snapshot and returns the top-k results
// sorted by descending score, ties broken by ascending entry id. Scores are
// always in [0,1]. An empty corpus yields an empty result, not an error.
func (e *SearchEngine) Rank(queryVec []float32, queryText string, entries []*models.KnowledgeEntry) []models.SimilarityResult {
	if len(entries) == 0 {
		return nil
	}

	queryWords := Keywords(queryText)

	results := make([]models.SimilarityResult, 0, len(entries))
	for _, entry := range entries {
		var score float64
		if len(queryVec) > 0 && entry.HasEmbedding() {
			score = clamp01(cosineSimilarity(queryVec, entry.Embedding))
		} else {
			score = e.keywordOverlapScore(queryWords, entry)
		}
		results = append(results, models.SimilarityResult{
			EntryID: entry.ID,
			Score:   score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].EntryID.String() < results[j].EntryID.String()
	})

	if e.topK > 0 && len(results) > e.topK {
		results = results[:e.topK]
	}

	return results
}

// keywordOverlapScore is the shared-token ratio between the query and the
// entry's question text, scaled into [0, lowThreshold).
func (e *SearchEngine) keywordOverlapScore(queryWords []string, entry *models.KnowledgeEntry) float64 {
	if len(queryWords) == 0 {
		return 0
	}

	entryWords := make(map[string]struct{})
	for _, w := range Keywords(entry.Question) {
		entryWords[w] = struct{}{}
	}
	answerLower := strings.ToLower(entry.Answer)

	var shared float64
	for _, w := range queryWords {
		if _, ok := entryWords[w]; ok {
			shared++
			continue
		}
		// Answer-text matches count half, question matches dominate.
		if strings.Contains(answerLower, w) {
			shared += 0.5
		}
	}

	ratio := shared / float64(len(queryWords))
	if ratio > 1 {
		ratio = 1
	}
	return ratio * e.lowThreshold * keywordScale
}

// cosineSimilarity is 0 (not NaN) when either vector is zero or the
// dimensions disagree.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
