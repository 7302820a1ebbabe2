package model

import "time"

// TrustLevel is the discrete bucket derived from a trust score.
type TrustLevel string

const (
	TrustMuyAlta TrustLevel = "muy_alta"
	TrustAlta    TrustLevel = "alta"
	TrustMedia   TrustLevel = "media"
	TrustBaja    TrustLevel = "baja"
	TrustMuyBaja TrustLevel = "muy_baja"
)

// TrustAnalysis aggregates a review corpus into a bounded, explainable score.
type TrustAnalysis struct {
	TrustScore float64    `json:"trust_score"` // always clamped to [0,100]
	TrustLevel TrustLevel `json:"trust_level"`
	RedFlags   []string   `json:"red_flags"`
	GreenFlags []string   `json:"green_flags"`
}

// ValidationResult is the output of the basic review-driven validator.
type ValidationResult struct {
	IsValid               bool     `json:"is_valid"`
	Confidence            float64  `json:"confidence"` // [0,100]
	AutomotiveReviewCount int      `json:"automotive_review_count"`
	TotalReviewsAnalyzed  int      `json:"total_reviews_analyzed"`
	MatchedKeywords       []string `json:"matched_keywords,omitempty"`
	ExcludedKeywords      []string `json:"excluded_keywords,omitempty"`
	Reason                string   `json:"reason"`
}

// EnhancedValidationResult extends ValidationResult with the raw signed
// score and per-signal sub-analyses for explainability.
type EnhancedValidationResult struct {
	ValidationResult

	Score           float64         `json:"score"` // unbounded intermediate
	FailureReasons  []string        `json:"failure_reasons,omitempty"`
	NameAnalysis    KeywordAnalysis `json:"name_analysis"`
	WebsiteAnalysis WebsiteAnalysis `json:"website_analysis"`
	TypeAnalysis    TypeAnalysis    `json:"type_analysis"`
	ReviewAnalysis  ReviewRatios    `json:"review_analysis"`
}

// KeywordAnalysis reports keyword hits against a business name.
type KeywordAnalysis struct {
	CarBrands     []string `json:"car_brands,omitempty"`
	ForbiddenHits []string `json:"forbidden_hits,omitempty"`
}

// WebsiteAnalysis reports domain checks against the disallow-list.
type WebsiteAnalysis struct {
	Domain    string `json:"domain,omitempty"`
	Forbidden bool   `json:"forbidden"`
}

// TypeAnalysis reports place-type checks against the criteria type lists.
type TypeAnalysis struct {
	ValidHits     []string `json:"valid_hits,omitempty"`
	ForbiddenHits []string `json:"forbidden_hits,omitempty"`
}

// ReviewRatios holds the per-category review mention ratios, each in [0,1].
type ReviewRatios struct {
	Motorcycle  float64 `json:"motorcycle"`
	Rental      float64 `json:"rental"`
	ServiceOnly float64 `json:"service_only"`
	Fraud       float64 `json:"fraud"`
	Analyzed    int     `json:"analyzed"`
}

// DeepAnalysis is the opaque research payload attached to top candidates.
type DeepAnalysis struct {
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths,omitempty"`
	Concerns  []string `json:"concerns,omitempty"`
	Sources   []string `json:"sources,omitempty"`
}

// AnalysisResult is the assembled per-agency output, immutable once built.
type AnalysisResult struct {
	Agency        Agency        `json:"agency"`
	TrustAnalysis TrustAnalysis `json:"trust_analysis"`
	Reviews       []Review      `json:"reviews"`
	ReviewsCount  int           `json:"reviews_count"` // always == len(Reviews)
	DistanceKm    float64       `json:"distance_km"`
	DeepAnalysis  *DeepAnalysis `json:"deep_analysis,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// PipelineMetadata describes how a pipeline run went.
type PipelineMetadata struct {
	RunID                 string   `json:"run_id"`
	TotalFound            int      `json:"total_found"`
	TotalProcessed        int      `json:"total_processed"`
	TotalWithReviews      int      `json:"total_with_reviews"`
	TotalWithDeepAnalysis int      `json:"total_with_deep_analysis"`
	ExecutionTimeMs       int64    `json:"execution_time_ms"`
	DeepAnalysisCostUSD   float64  `json:"deep_analysis_cost_usd,omitempty"`
	Errors                []string `json:"errors"`
}

// PipelineResult is the full output of one analysis run. Agencies are
// sorted by trust score descending, ties stable by discovery order.
type PipelineResult struct {
	Agencies []AnalysisResult `json:"agencies"`
	Metadata PipelineMetadata `json:"metadata"`
}
