// Package criteria loads the versioned filtering and scoring criteria
// document that drives business validation and trust scoring.
package criteria

// Criteria is the versioned criteria document. JSON field names are part
// of the external contract and must not change.
type Criteria struct {
	Version        string         `json:"version"`
	LastUpdated    string         `json:"last_updated"`
	BusinessTypes  BusinessTypes  `json:"businessTypes"`
	NameKeywords   NameKeywords   `json:"nameKeywords"`
	ReviewKeywords ReviewKeywords `json:"reviewKeywords"`
	WebsiteDomains WebsiteDomains `json:"websiteDomains"`
	Thresholds     Thresholds     `json:"thresholds"`
	Scoring        Scoring        `json:"scoring"`
	Features       Features       `json:"features"`
}

// BusinessTypes lists place types used for type-level classification.
type BusinessTypes struct {
	ValidTypes      []string `json:"validTypes"`
	ForbiddenTypes  []string `json:"forbiddenTypes"`
	MotorcycleTypes []string `json:"motorcycleTypes"`
}

// NameKeywords lists terms matched against business names.
type NameKeywords struct {
	Forbidden        []string `json:"forbidden"`
	MotorcycleBrands []string `json:"motorcycleBrands"`
	CarBrands        []string `json:"carBrands"`
}

// ReviewKeywords lists per-category terms matched against review text.
type ReviewKeywords struct {
	Automotive      []string `json:"automotive"`
	Motorcycle      []string `json:"motorcycle"`
	Rental          []string `json:"rental"`
	ServiceOnly     []string `json:"serviceOnly"`
	NonAutomotive   []string `json:"nonAutomotive"`
	FraudIndicators []string `json:"fraudIndicators"`
}

// WebsiteDomains lists domains that disqualify a business website.
type WebsiteDomains struct {
	Forbidden []string `json:"forbidden"`
}

// Thresholds holds decision boundaries for the validators.
type Thresholds struct {
	MinReviewsForAnalysis      int     `json:"minReviewsForAnalysis"`
	MaxReviewsToAnalyze        int     `json:"maxReviewsToAnalyze"`
	MinAutomotivePercentage    float64 `json:"minAutomotivePercentage"`
	MotorcycleKeywordThreshold float64 `json:"motorcycleKeywordThreshold"`
	RentalKeywordThreshold     float64 `json:"rentalKeywordThreshold"`
	ServiceOnlyThreshold       float64 `json:"serviceOnlyThreshold"`
	FraudKeywordThreshold      float64 `json:"fraudKeywordThreshold"`
	MinRatingForTrusted        float64 `json:"minRatingForTrusted"`
	MinReviewsForTrusted       int     `json:"minReviewsForTrusted"`
}

// ReviewCountBonus scales a trust bonus linearly between Min and Max
// review counts, capping at MaxBonus.
type ReviewCountBonus struct {
	Min      int     `json:"min"`
	Max      int     `json:"max"`
	MaxBonus float64 `json:"maxBonus"`
}

// Scoring holds the trust-scoring weights.
type Scoring struct {
	BaseScore              float64          `json:"baseScore"`
	RatingMultiplier       float64          `json:"ratingMultiplier"`
	ReviewCountBonus       ReviewCountBonus `json:"reviewCountBonus"`
	ForbiddenDomainPenalty float64          `json:"forbiddenDomainPenalty"`
	FraudKeywordPenalty    float64          `json:"fraudKeywordPenalty"`
	MotorcyclePenalty      float64          `json:"motorcyclePenalty"`
	RentalPenalty          float64          `json:"rentalPenalty"`
	ServiceOnlyPenalty     float64          `json:"serviceOnlyPenalty"`
}

// Features toggles optional validation behavior.
type Features struct {
	IncludeMotorcycles     bool `json:"includeMotorcycles"`
	IncludeRentals         bool `json:"includeRentals"`
	IncludeServiceOnly     bool `json:"includeServiceOnly"`
	ValidateWebsiteDomains bool `json:"validateWebsiteDomains"`
}

// MinAutomotivePct returns the automotive-percentage threshold for the
// basic validator, lowered when motorcycles are explicitly included.
func (c *Criteria) MinAutomotivePct() float64 {
	pct := c.Thresholds.MinAutomotivePercentage
	if pct == 0 {
		pct = 40
	}
	if c.Features.IncludeMotorcycles {
		pct -= 10
	}
	return pct
}
