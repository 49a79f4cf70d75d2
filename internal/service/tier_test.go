package service

import (
	"testing"

	"pawmate/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveTier(t *testing.T) {
	t.Parallel()

	thresholds := Thresholds{High: 0.85, Medium: 0.70, Low: 0.55}

	tests := []struct {
		name  string
		score float64
		want  models.ConfidenceTier
	}{
		{"well above high", 0.95, models.TierHigh},
		{"exactly high", 0.85, models.TierHigh},
		{"just below high", 0.8499, models.TierMedium},
		{"exactly medium", 0.70, models.TierMedium},
		{"just below medium", 0.6999, models.TierLow},
		{"exactly low", 0.55, models.TierLow},
		{"just below low", 0.5499, models.TierNone},
		{"zero", 0, models.TierNone},
		{"perfect match", 1, models.TierHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			top := &models.SimilarityResult{Score: tt.score}
			assert.Equal(t, tt.want, ResolveTier(top, thresholds))
		})
	}
}

func TestResolveTierNilResult(t *testing.T) {
	t.Parallel()

	thresholds := Thresholds{High: 0.85, Medium: 0.70, Low: 0.55}
	assert.Equal(t, models.TierNone, ResolveTier(nil, thresholds))
}

func TestResolveTierMonotonic(t *testing.T) {
	t.Parallel()

	thresholds := Thresholds{High: 0.85, Medium: 0.70, Low: 0.55}
	order := map[models.ConfidenceTier]int{
		models.TierNone:   0,
		models.TierLow:    1,
		models.TierMedium: 2,
		models.TierHigh:   3,
	}

	prev := 0
	for score := 0.0; score <= 1.0; score += 0.01 {
		tier := ResolveTier(&models.SimilarityResult{Score: score}, thresholds)
		assert.GreaterOrEqual(t, order[tier], prev, "tier regressed at score %v", score)
		prev = order[tier]
	}
}
