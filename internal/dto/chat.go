package dto

// PetProfile is the structured subject profile a client may attach to a query.
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

type ChatRequest struct {
	SessionID  string      `json:"session_id"`
	Question   string      `json:"question"`
	MediaRef   string      `json:"media_ref,omitempty"`
	PetProfile *PetProfile `json:"pet_profile,omitempty"`
	Location   string      `json:"location,omitempty"`
}

type ChatAnswer struct {
	SessionID       string  `json:"session_id"`
	Answer          string  `json:"answer"`
	MatchedQuestion string  `json:"matched_question,omitempty"`
	Score           float64 `json:"score"`
	Source          string  `json:"source"`
	Confidence      string  `json:"confidence"`
}

type ChatMessageResponse struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	MediaRef  string `json:"media_ref,omitempty"`
	CreatedAt string `json:"created_at"`
}
