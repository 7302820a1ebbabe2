package validator

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/confiauto/agency-finder/internal/criteria"
	"github.com/confiauto/agency-finder/internal/model"
)

// Enhanced validator scoring weights. The accept/reject decision is driven
// by the review corpus whenever enough reviews exist; name, website, and
// type sub-analyses are attached for explainability only.
const (
	enhancedBaseScore = 70.0

	hardRatioPenalty = 40.0
	softRatioPenalty = 20.0
	softRatioFloor   = 0.3

	fraudHardPenalty = 30.0
	fraudSoftPenalty = 15.0
	fraudSoftFloor   = 0.1

	insufficientDataConfidence = 50.0
	minValidConfidence         = 40.0
)

// ValidateAgency runs the review-ratio validator over an agency's review
// corpus. With fewer reviews than the configured minimum the agency passes
// through with an explicit low confidence rather than being rejected.
func ValidateAgency(agency model.Agency, reviews []model.Review, c *criteria.Criteria) model.EnhancedValidationResult {
	result := model.EnhancedValidationResult{
		NameAnalysis:    analyzeName(agency.Name, c),
		WebsiteAnalysis: analyzeWebsite(agency.Website, c),
		TypeAnalysis:    analyzeTypes(agency.PlaceTypes, c),
	}

	minReviews := c.Thresholds.MinReviewsForAnalysis
	if minReviews <= 0 {
		minReviews = 5
	}

	if len(reviews) < minReviews {
		result.IsValid = true
		result.Score = insufficientDataConfidence
		result.Confidence = insufficientDataConfidence
		result.TotalReviewsAnalyzed = len(reviews)
		result.Reason = fmt.Sprintf("Datos insuficientes: %d reseñas (mínimo %d)", len(reviews), minReviews)
		return result
	}

	sample := reviews
	if max := maxToAnalyze(c); len(sample) > max {
		sample = sample[:max]
	}
	ratios := computeRatios(agency, sample, c, &result)
	result.ReviewAnalysis = ratios
	result.TotalReviewsAnalyzed = ratios.Analyzed

	score := enhancedBaseScore
	disqualified := false

	apply := func(label string, ratio, threshold float64, skip bool) {
		if skip {
			return
		}
		switch {
		case ratio > threshold:
			score -= hardRatioPenalty
			disqualified = true
			result.FailureReasons = append(result.FailureReasons,
				fmt.Sprintf("Proporción de reseñas de %s demasiado alta (%.0f%%)", label, ratio*100))
		case ratio > softRatioFloor:
			score -= softRatioPenalty
		}
	}

	apply("motos", ratios.Motorcycle, threshold(c.Thresholds.MotorcycleKeywordThreshold), c.Features.IncludeMotorcycles)
	apply("renta", ratios.Rental, threshold(c.Thresholds.RentalKeywordThreshold), c.Features.IncludeRentals)
	apply("taller", ratios.ServiceOnly, threshold(c.Thresholds.ServiceOnlyThreshold), c.Features.IncludeServiceOnly)

	fraudThreshold := c.Thresholds.FraudKeywordThreshold
	if fraudThreshold <= 0 {
		fraudThreshold = 0.2
	}
	switch {
	case ratios.Fraud > fraudThreshold:
		score -= fraudHardPenalty
		result.FailureReasons = append(result.FailureReasons,
			fmt.Sprintf("Menciones de fraude en %.0f%% de las reseñas", ratios.Fraud*100))
	case ratios.Fraud > fraudSoftFloor:
		score -= fraudSoftPenalty
	}
	if ratios.Fraud > 0.5 {
		disqualified = true
	}

	// Reputation bonuses from place metadata.
	switch rating := agency.RatingOr(0); {
	case rating >= 4.5:
		score += 10
	case rating >= 4.0:
		score += 5
	}
	switch total := agency.TotalReviewsOr(0); {
	case total >= 100:
		score += 10
	case total >= 50:
		score += 5
	}

	result.Score = score
	result.Confidence = math.Max(0, math.Min(100, score))

	// Majority off-category content always disqualifies regardless of score.
	result.IsValid = result.Confidence >= minValidConfidence && !disqualified
	if result.IsValid {
		result.Reason = fmt.Sprintf("Corpus de reseñas automotriz (confianza %.0f)", result.Confidence)
	} else if len(result.FailureReasons) > 0 {
		result.Reason = result.FailureReasons[0]
	} else {
		result.Reason = fmt.Sprintf("Confianza insuficiente (%.0f, mínimo %.0f)", result.Confidence, minValidConfidence)
	}

	return result
}

func computeRatios(agency model.Agency, reviews []model.Review, c *criteria.Criteria, result *model.EnhancedValidationResult) model.ReviewRatios {
	var moto, rental, service, fraud, automotive int
	for _, r := range reviews {
		if MatchesAny(r.Text, c.ReviewKeywords.Motorcycle) {
			moto++
		}
		if MatchesAny(r.Text, c.ReviewKeywords.Rental) {
			rental++
		}
		if MatchesAny(r.Text, c.ReviewKeywords.ServiceOnly) {
			service++
		}
		if MatchesAny(r.Text, c.ReviewKeywords.FraudIndicators) {
			fraud++
		}
		if hits := matchTerms(r.Text, c.ReviewKeywords.Automotive); len(hits) > 0 {
			automotive++
			result.MatchedKeywords = append(result.MatchedKeywords, hits...)
		}
	}
	result.MatchedKeywords = dedupe(result.MatchedKeywords)
	result.AutomotiveReviewCount = automotive

	n := float64(len(reviews))
	return model.ReviewRatios{
		Motorcycle:  float64(moto) / n,
		Rental:      float64(rental) / n,
		ServiceOnly: float64(service) / n,
		Fraud:       float64(fraud) / n,
		Analyzed:    len(reviews),
	}
}

func analyzeName(name string, c *criteria.Criteria) model.KeywordAnalysis {
	return model.KeywordAnalysis{
		CarBrands:     matchTerms(name, c.NameKeywords.CarBrands),
		ForbiddenHits: matchWholeWords(name, nameForbidden(c)),
	}
}

// analyzeWebsite checks the site's host against the forbidden-domain
// disallow-list using exact or suffix matching ("shop.facebook.com"
// matches "facebook.com").
func analyzeWebsite(website string, c *criteria.Criteria) model.WebsiteAnalysis {
	if website == "" || !c.Features.ValidateWebsiteDomains {
		return model.WebsiteAnalysis{}
	}

	host := website
	if u, err := url.Parse(website); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(strings.TrimPrefix(host, "www."))

	analysis := model.WebsiteAnalysis{Domain: host}
	for _, d := range c.WebsiteDomains.Forbidden {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			analysis.Forbidden = true
			break
		}
	}
	return analysis
}

func analyzeTypes(placeTypes []string, c *criteria.Criteria) model.TypeAnalysis {
	var analysis model.TypeAnalysis
	for _, t := range placeTypes {
		if containsString(c.BusinessTypes.ValidTypes, t) {
			analysis.ValidHits = append(analysis.ValidHits, t)
		}
		if containsString(c.BusinessTypes.ForbiddenTypes, t) {
			analysis.ForbiddenHits = append(analysis.ForbiddenHits, t)
		}
	}
	return analysis
}

func threshold(v float64) float64 {
	if v <= 0 {
		return 0.5
	}
	return v
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
