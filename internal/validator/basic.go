package validator

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/confiauto/agency-finder/internal/criteria"
	"github.com/confiauto/agency-finder/internal/model"
)

// confidenceBoost inflates the automotive percentage into a confidence
// value, capped at 100.
const confidenceBoost = 1.2

// minReviewTextLen filters out reviews too short to classify.
const minReviewTextLen = 20

// Validate classifies a business from its name and a sample of reviews.
// It is a pure function: identical inputs always yield identical results.
// An empty review set is treated as non-blocking (valid, confidence 0).
func Validate(name string, reviews []model.Review, c *criteria.Criteria) model.ValidationResult {
	if len(reviews) == 0 {
		return model.ValidationResult{
			IsValid:    true,
			Confidence: 0,
			Reason:     "Sin reseñas para validar",
		}
	}

	sample := rankReviews(reviews, maxToAnalyze(c))

	var (
		automotive int
		matched    []string
		excluded   []string
	)
	for _, r := range sample {
		autoHits := matchTerms(r.Text, c.ReviewKeywords.Automotive)
		exclHits := matchTerms(r.Text, c.ReviewKeywords.NonAutomotive)

		// Two or more distinct fraud indicators in one review count
		// against it; a single mention is too noisy to penalize.
		fraudHits := matchTerms(r.Text, c.ReviewKeywords.FraudIndicators)
		if len(fraudHits) >= 2 {
			exclHits = append(exclHits, fraudHits...)
		}

		if len(autoHits) > len(exclHits) {
			automotive++
			matched = append(matched, autoHits...)
		} else if len(exclHits) > 0 {
			excluded = append(excluded, exclHits...)
		}
	}

	analyzed := len(sample)
	pct := 0.0
	if analyzed > 0 {
		pct = float64(automotive) / float64(analyzed) * 100
	}
	confidence := math.Min(100, math.Round(pct*confidenceBoost))

	result := model.ValidationResult{
		Confidence:            confidence,
		AutomotiveReviewCount: automotive,
		TotalReviewsAnalyzed:  analyzed,
		MatchedKeywords:       dedupe(matched),
		ExcludedKeywords:      dedupe(excluded),
	}

	hasCarBrand := MatchesAny(name, c.NameKeywords.CarBrands)
	forbidden := matchWholeWords(name, nameForbidden(c))

	switch {
	case len(forbidden) > 0 && !hasCarBrand:
		result.IsValid = false
		result.Reason = fmt.Sprintf("El nombre %q contiene el término excluido %q", name, forbidden[0])
	case hasCarBrand && pct >= 20:
		result.IsValid = true
		result.Reason = fmt.Sprintf("Nombre con marca automotriz y %.0f%% de reseñas automotrices", pct)
	case pct >= c.MinAutomotivePct():
		result.IsValid = true
		result.Reason = fmt.Sprintf("%.0f%% de reseñas automotrices", pct)
	default:
		result.IsValid = false
		result.Reason = fmt.Sprintf("Solo %.0f%% de reseñas automotrices (mínimo %.0f%%)", pct, c.MinAutomotivePct())
	}

	return result
}

// ShouldProcessAgency decides whether an agency proceeds to trust scoring.
// Highly rated agencies pass with lower validation confidence, and agencies
// with too little review data are never rejected outright.
func ShouldProcessAgency(vr model.ValidationResult, rating float64) bool {
	if vr.IsValid {
		return true
	}
	if rating >= 4.5 && vr.Confidence >= 25 {
		return true
	}
	return vr.TotalReviewsAnalyzed < 3
}

// rankReviews filters to substantive reviews and returns the top n by
// relevance. Detailed mid-rating reviews rank highest: extreme ratings
// carry less classification signal than measured ones.
func rankReviews(reviews []model.Review, n int) []model.Review {
	var relevant []model.Review
	for _, r := range reviews {
		// Rune count, not bytes: accented Spanish text must not inflate length.
		if utf8.RuneCountInString(r.Text) > minReviewTextLen {
			relevant = append(relevant, r)
		}
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevanceScore(relevant[i]) > relevanceScore(relevant[j])
	})

	if len(relevant) > n {
		relevant = relevant[:n]
	}
	return relevant
}

func relevanceScore(r model.Review) float64 {
	score := math.Min(float64(utf8.RuneCountInString(r.Text))/100, 3)
	switch r.Rating {
	case 3:
		score += 2
	case 2, 4:
		score += 1
	}
	return score
}

// nameForbidden merges the forbidden-name terms with motorcycle brands,
// which disqualify a name the same way unless a car brand also appears.
func nameForbidden(c *criteria.Criteria) []string {
	out := make([]string, 0, len(c.NameKeywords.Forbidden)+len(c.NameKeywords.MotorcycleBrands))
	out = append(out, c.NameKeywords.Forbidden...)
	out = append(out, c.NameKeywords.MotorcycleBrands...)
	return out
}

func maxToAnalyze(c *criteria.Criteria) int {
	if c.Thresholds.MaxReviewsToAnalyze > 0 {
		return c.Thresholds.MaxReviewsToAnalyze
	}
	return 15
}

func dedupe(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	var out []string
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
