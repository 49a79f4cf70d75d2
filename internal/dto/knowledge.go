package dto

// KnowledgeRecord is one import/export record of the knowledge base.
type KnowledgeRecord struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}
