package service

import (
	"pawmate/internal/models"
	"pawmate/pkg/config"
)

// Thresholds are the validated confidence cut-offs, High >= Medium >= Low > 0.
type Thresholds struct {
	High   float64
	Medium float64
	Low    float64
}

func ThresholdsFromConfig(cfg *config.RetrievalConfig) Thresholds {
	return Thresholds{
		High:   cfg.HighThreshold,
		Medium: cfg.MediumThreshold,
		Low:    cfg.LowThreshold,
	}
}

// ResolveTier maps the top similarity score to a confidence tier. A nil result
// (empty corpus, nothing comparable) resolves to none.
func ResolveTier(top *models.SimilarityResult, t Thresholds) models.ConfidenceTier {
	if top == nil {
		return models.TierNone
	}
	switch {
	case top.Score >= t.High:
		return models.TierHigh
	case top.Score >= t.Medium:
		return models.TierMedium
	case top.Score >= t.Low:
		return models.TierLow
	default:
		return models.TierNone
	}
}
