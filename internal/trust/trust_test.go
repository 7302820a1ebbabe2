package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confiauto/agency-finder/internal/criteria"
	"github.com/confiauto/agency-finder/internal/model"
)

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

func ratedReviews(ratings ...float64) []model.Review {
	out := make([]model.Review, len(ratings))
	for i, r := range ratings {
		out[i] = model.Review{
			Author: "cliente",
			Rating: r,
			Text:   "Buen trato en la compra del auto",
			Time:   baseTime + int64(i)*3600,
		}
	}
	return out
}

func TestLevelFor_Buckets(t *testing.T) {
	tests := []struct {
		score float64
		want  model.TrustLevel
	}{
		{100, model.TrustMuyAlta},
		{85, model.TrustMuyAlta},
		{84.99, model.TrustAlta},
		{70, model.TrustAlta},
		{69.9, model.TrustMedia},
		{50, model.TrustMedia},
		{49.9, model.TrustBaja},
		{30, model.TrustBaja},
		{29.9, model.TrustMuyBaja},
		{0, model.TrustMuyBaja},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score), "score %.2f", tt.score)
	}
}

func TestLevelFor_MonotonicNonDecreasing(t *testing.T) {
	order := map[model.TrustLevel]int{
		model.TrustMuyBaja: 0,
		model.TrustBaja:    1,
		model.TrustMedia:   2,
		model.TrustAlta:    3,
		model.TrustMuyAlta: 4,
	}
	prev := -1
	for score := 0.0; score <= 100; score += 0.5 {
		cur := order[LevelFor(score)]
		require.GreaterOrEqual(t, cur, prev, "level regressed at score %.1f", score)
		prev = cur
	}
}

func TestScore_EmptyReviewSetIsDeterministic(t *testing.T) {
	c := criteria.Defaults()
	first := Score(nil, c)
	second := Score(nil, c)

	assert.Equal(t, first, second)
	assert.Equal(t, model.TrustMuyBaja, first.TrustLevel)
	assert.Contains(t, first.RedFlags, "Sin reseñas disponibles")
}

func TestScore_HighRatedCorpus(t *testing.T) {
	reviews := ratedReviews(5, 5, 5, 4, 5, 5, 4, 5, 5, 5, 5, 4, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5)
	analysis := Score(reviews, criteria.Defaults())

	assert.GreaterOrEqual(t, analysis.TrustScore, 70.0)
	assert.Contains(t, analysis.GreenFlags, "Calificación promedio alta")
	assert.Contains(t, analysis.GreenFlags, "Gran volumen de reseñas")
	assert.Contains(t, analysis.GreenFlags, "Reseñas recientes positivas")
	assert.Empty(t, analysis.RedFlags)
}

func TestScore_LowRatedCorpus(t *testing.T) {
	reviews := ratedReviews(1, 1, 2, 1, 2, 1, 1, 2, 1, 1)
	analysis := Score(reviews, criteria.Defaults())

	assert.Less(t, analysis.TrustScore, 50.0)
	assert.Contains(t, analysis.RedFlags, "Alta proporción de reseñas negativas")
}

func TestScore_FraudMentionsPenalized(t *testing.T) {
	clean := ratedReviews(5, 5, 5, 5, 5, 5, 5, 5, 5, 5)
	analysis := Score(clean, criteria.Defaults())

	tainted := make([]model.Review, len(clean))
	copy(tainted, clean)
	tainted[0].Text = "Es una estafa, no devuelven el dinero"
	taintedAnalysis := Score(tainted, criteria.Defaults())

	assert.Less(t, taintedAnalysis.TrustScore, analysis.TrustScore)
	assert.Contains(t, taintedAnalysis.RedFlags, "Menciones de fraude en reseñas")
	// Flags describe patterns, never carry review text.
	for _, f := range taintedAnalysis.RedFlags {
		assert.NotContains(t, f, "estafa")
	}
}

func TestScore_FewReviewsFlagged(t *testing.T) {
	analysis := Score(ratedReviews(5, 5), criteria.Defaults())
	assert.Contains(t, analysis.RedFlags, "Pocas reseñas para evaluar")
}

func TestScore_AlwaysBounded(t *testing.T) {
	cases := [][]model.Review{
		nil,
		ratedReviews(1),
		ratedReviews(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1),
		ratedReviews(5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5),
	}
	for _, reviews := range cases {
		analysis := Score(reviews, criteria.Defaults())
		assert.GreaterOrEqual(t, analysis.TrustScore, 0.0)
		assert.LessOrEqual(t, analysis.TrustScore, 100.0)
		assert.Equal(t, LevelFor(analysis.TrustScore), analysis.TrustLevel)
	}
}

func TestScore_Deterministic(t *testing.T) {
	reviews := ratedReviews(5, 4, 3, 2, 5, 4, 5)
	reviews[2].Text = "El taller tardó pero el servicio fue bueno"

	first := Score(reviews, criteria.Defaults())
	second := Score(reviews, criteria.Defaults())
	assert.Equal(t, first, second)
}

func TestVolumeBonus(t *testing.T) {
	cfg := criteria.ReviewCountBonus{Min: 10, Max: 200, MaxBonus: 15}

	assert.Zero(t, volumeBonus(5, cfg))
	assert.Zero(t, volumeBonus(10, cfg))
	assert.InDelta(t, 7.5, volumeBonus(105, cfg), 0.001)
	assert.InDelta(t, 15, volumeBonus(200, cfg), 0.001)
	assert.InDelta(t, 15, volumeBonus(1000, cfg), 0.001)
}
