// Package trust aggregates a review corpus into a bounded, explainable
// trust score. Scoring is deterministic: the same review set always
// produces the same analysis.
package trust

import (
	"math"
	"time"

	"github.com/confiauto/agency-finder/internal/criteria"
	"github.com/confiauto/agency-finder/internal/model"
	"github.com/confiauto/agency-finder/internal/validator"
)

const (
	negativeShareCutoff = 0.3
	recentWindow        = 180 * 24 * time.Hour
	minRecentPositives  = 3
)

// LevelFor maps a trust score to its discrete level. The bucketing is a
// monotonic step function over [0,100].
func LevelFor(score float64) model.TrustLevel {
	switch {
	case score >= 85:
		return model.TrustMuyAlta
	case score >= 70:
		return model.TrustAlta
	case score >= 50:
		return model.TrustMedia
	case score >= 30:
		return model.TrustBaja
	default:
		return model.TrustMuyBaja
	}
}

// Score computes a TrustAnalysis for a review corpus using the weights
// from the criteria scoring block. Flags are short display strings derived
// from detected patterns, never raw review text, and are not fed back into
// scoring.
func Score(reviews []model.Review, c *criteria.Criteria) model.TrustAnalysis {
	sc := c.Scoring

	if len(reviews) == 0 {
		score := clamp(sc.BaseScore * 0.4)
		return model.TrustAnalysis{
			TrustScore: score,
			TrustLevel: LevelFor(score),
			RedFlags:   []string{"Sin reseñas disponibles"},
		}
	}

	var (
		ratingSum float64
		negatives int
		fraud     int
		newest    int64
	)
	for _, r := range reviews {
		ratingSum += r.Rating
		if r.Rating <= 2 {
			negatives++
		}
		if validator.MatchesAny(r.Text, c.ReviewKeywords.FraudIndicators) {
			fraud++
		}
		if r.Time > newest {
			newest = r.Time
		}
	}

	n := len(reviews)
	avg := ratingSum / float64(n)
	score := sc.BaseScore + (avg-3.0)*sc.RatingMultiplier
	score += volumeBonus(n, sc.ReviewCountBonus)

	var red, green []string

	if avg >= c.Thresholds.MinRatingForTrusted {
		green = append(green, "Calificación promedio alta")
	}
	if n >= c.Thresholds.MinReviewsForTrusted {
		green = append(green, "Gran volumen de reseñas")
	}

	// Recency relative to the newest review keeps scoring independent of
	// wall-clock time.
	if recent := recentPositives(reviews, newest); recent >= minRecentPositives {
		score += 5
		green = append(green, "Reseñas recientes positivas")
	}

	negShare := float64(negatives) / float64(n)
	if negShare > negativeShareCutoff {
		score -= 10
		red = append(red, "Alta proporción de reseñas negativas")
	} else if negShare < 0.1 && n >= 10 {
		green = append(green, "Pocas reseñas negativas")
	}

	fraudThreshold := c.Thresholds.FraudKeywordThreshold
	if fraudThreshold <= 0 {
		fraudThreshold = 0.2
	}
	if fraud > 0 {
		red = append(red, "Menciones de fraude en reseñas")
		if float64(fraud)/float64(n) > fraudThreshold {
			score -= sc.FraudKeywordPenalty
		} else {
			score -= sc.FraudKeywordPenalty / 2
		}
	}

	if n < 5 {
		score -= 5
		red = append(red, "Pocas reseñas para evaluar")
	}

	score = clamp(score)
	return model.TrustAnalysis{
		TrustScore: score,
		TrustLevel: LevelFor(score),
		RedFlags:   red,
		GreenFlags: green,
	}
}

// volumeBonus scales linearly from 0 at cfg.Min reviews to cfg.MaxBonus at
// cfg.Max reviews.
func volumeBonus(n int, cfg criteria.ReviewCountBonus) float64 {
	if cfg.Max <= cfg.Min || n <= cfg.Min {
		return 0
	}
	frac := float64(n-cfg.Min) / float64(cfg.Max-cfg.Min)
	return math.Min(frac, 1) * cfg.MaxBonus
}

func recentPositives(reviews []model.Review, newest int64) int {
	if newest == 0 {
		return 0
	}
	cutoff := newest - int64(recentWindow/time.Second)
	count := 0
	for _, r := range reviews {
		if r.Rating >= 4 && r.Time >= cutoff {
			count++
		}
	}
	return count
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, math.Round(v*100)/100))
}
