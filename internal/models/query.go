package models

import "time"

// Intent is the coarse routing decision made before any provider or DB call.
type Intent string

const (
	IntentGreeting          Intent = "GREETING"
	IntentMediaQuery        Intent = "MEDIA_QUERY"
	IntentKnowledgeQuestion Intent = "KNOWLEDGE_QUESTION"
)

// ConfidenceTier buckets a similarity score into a response strategy.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
	TierNone   ConfidenceTier = "none"
)

// AnswerSource identifies which path produced the answer text.
type AnswerSource string

const (
	SourceSystem        AnswerSource = "system"
	SourceKnowledgeBase AnswerSource = "knowledge_base"
	SourceGenerative    AnswerSource = "generative"
)

// PetProfile is the structured subject profile supplied with a query.
type PetProfile struct {
	Name              string   `json:"pet_name"`
	Breed             string   `json:"breed"`
	AgeYears          float64  `json:"age_years"`
	WeightKg          float64  `json:"weight_kg"`
	Gender            string   `json:"gender"`
	ActivityLevel     string   `json:"activity_level"`
	MedicalConditions []string `json:"medical_conditions"`
	Goals             []string `json:"goals"`
}

// Query is one user question entering the pipeline.
type Query struct {
	SessionID  string
	Text       string
	MediaRef   string
	Profile    *PetProfile
	Location   string
	ReceivedAt time.Time
}

// HasMedia reports whether the query carries an attached media reference.
func (q *Query) HasMedia() bool {
	return q.MediaRef != ""
}

// Answer is the single response produced for a query. MatchedQuestion is set
// only when a knowledge-base entry answered directly.
type Answer struct {
	Text            string
	MatchedQuestion string
	Score           float64
	Source          AnswerSource
	Confidence      ConfidenceTier
}
