package catalog

import "math"

// RatingCategory buckets average_rating on closed upper bounds.
type RatingCategory string

const (
	RatingVeryLow  RatingCategory = "very_low"
	RatingLow      RatingCategory = "low"
	RatingMedium   RatingCategory = "medium"
	RatingHigh     RatingCategory = "high"
	RatingVeryHigh RatingCategory = "very_high"
	RatingUnknown  RatingCategory = "unknown"
)

// RatingCategories lists the known buckets in ascending order, excluding unknown.
var RatingCategories = []RatingCategory{
	RatingVeryLow, RatingLow, RatingMedium, RatingHigh, RatingVeryHigh,
}

// ParseRatingCategory reports whether s names a rating category.
func ParseRatingCategory(s string) (RatingCategory, bool) {
	switch c := RatingCategory(s); c {
	case RatingVeryLow, RatingLow, RatingMedium, RatingHigh, RatingVeryHigh, RatingUnknown:
		return c, true
	}
	return "", false
}

// CategorizeRating maps a rating to exactly one category. Boundary values fall
// into the lower bucket: 1.0 is very_low, 4.0 is high.
func CategorizeRating(rating float64) RatingCategory {
	switch {
	case math.IsNaN(rating):
		return RatingUnknown
	case rating <= 1:
		return RatingVeryLow
	case rating <= 2:
		return RatingLow
	case rating <= 3:
		return RatingMedium
	case rating <= 4:
		return RatingHigh
	default:
		return RatingVeryHigh
	}
}

const (
	DefaultLanguage = "eng"
	UnknownAuthor   = "Unknown"

	// NeutralSentiment is the score every book carries until a scorer assigns one.
	NeutralSentiment = 0.5
)

// Book is one catalog row plus the columns derived during preprocessing.
// Missing numeric values are NaN until Preprocess imputes them.
type Book struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Authors         string         `json:"authors"`
	PrimaryAuthor   string         `json:"primary_author"`
	AverageRating   float64        `json:"average_rating"`
	RatingsCount    float64        `json:"ratings_count"`
	LanguageCode    string         `json:"language_code"`
	NumPages        float64        `json:"num_pages"`
	PublicationYear float64        `json:"publication_year"`
	RatingCategory  RatingCategory `json:"rating_category"`
	SentimentScore  float64        `json:"sentiment_score"`
	ReviewText      string         `json:"review_text,omitempty"`
}

// Count returns ratings_count as a non-negative integer.
func (b Book) Count() int {
	if math.IsNaN(b.RatingsCount) || b.RatingsCount < 0 {
		return 0
	}
	return int(b.RatingsCount)
}

// Rating returns average_rating with NaN mapped to zero.
func (b Book) Rating() float64 {
	if math.IsNaN(b.AverageRating) {
		return 0
	}
	return b.AverageRating
}
