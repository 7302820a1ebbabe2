package model

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Agency represents a candidate business returned by place discovery.
// Identity is PlaceID; instances are read-only within the pipeline.
type Agency struct {
	PlaceID      string    `json:"place_id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Location     Location  `json:"location"`
	Rating       *float64  `json:"rating,omitempty"`        // [0,5], absent if unrated
	TotalReviews *int      `json:"total_reviews,omitempty"` // user rating count
	PhoneNumber  string    `json:"phone_number,omitempty"`
	Website      string    `json:"website,omitempty"`
	OpeningHours []string  `json:"opening_hours,omitempty"`
	PlaceTypes   []string  `json:"place_types,omitempty"`
}

// RatingOr returns the agency rating, or fallback when unrated.
func (a Agency) RatingOr(fallback float64) float64 {
	if a.Rating == nil {
		return fallback
	}
	return *a.Rating
}

// TotalReviewsOr returns the total review count, or fallback when unknown.
func (a Agency) TotalReviewsOr(fallback int) int {
	if a.TotalReviews == nil {
		return fallback
	}
	return *a.TotalReviews
}

// Review is a single customer review collected for an agency.
type Review struct {
	Author                  string  `json:"author"`
	Rating                  float64 `json:"rating"` // [1,5]
	Text                    string  `json:"text"`
	Time                    int64   `json:"time"` // unix seconds
	RelativeTimeDescription string  `json:"relative_time_description,omitempty"`
}
