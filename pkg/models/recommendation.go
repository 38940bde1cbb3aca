package models

import "time"

// BookSummary is the shape every query returns for a single book.
type BookSummary struct {
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Rating       float64  `json:"rating"`
	RatingsCount int      `json:"ratings_count"`
	Language     string   `json:"language,omitempty"`
	Similarity   *float64 `json:"similarity,omitempty"`
}

type Preferences struct {
	HighRating        bool   `json:"high_rating"`
	Popular           bool   `json:"popular"`
	Language          string `json:"language,omitempty" validate:"omitempty,min=2,max=10"`
	SentimentPositive bool   `json:"sentiment_positive"`
	Count             int    `json:"count,omitempty" validate:"omitempty,min=1,max=100"`
}

type PopularFilter struct {
	RatingCategory string `form:"rating_category" json:"rating_category,omitempty" validate:"omitempty,oneof=very_low low medium high very_high unknown"`
	Language       string `form:"language" json:"language,omitempty"`
	MinRatings     int    `form:"min_ratings" json:"min_ratings" validate:"min=0"`
	Limit          int    `form:"limit" json:"limit" validate:"min=1,max=100"`
}

type GenreRequest struct {
	Genre           string  `form:"genre" json:"genre" validate:"max=64"`
	Count           int     `form:"count" json:"count" validate:"min=1,max=50"`
	MinRating       float64 `form:"min_rating" json:"min_rating" validate:"min=0,max=5"`
	MinRatingsCount int     `form:"min_ratings_count" json:"min_ratings_count" validate:"min=0"`
}

type GenreRecommendationResponse struct {
	Genre           string   `json:"genre"`
	Recommendations []string `json:"recommendations"`
	Count           int      `json:"count"`
	Message         string   `json:"message,omitempty"`
}

type SimilarBooksResponse struct {
	Title        string        `json:"title"`
	SimilarBooks []BookSummary `json:"similar_books"`
	Count        int           `json:"count"`
}

type SearchResponse struct {
	Query string        `json:"query"`
	Books []BookSummary `json:"books"`
	Count int           `json:"count"`
}

type PopularBooksResponse struct {
	PopularBooks []BookSummary `json:"popular_books"`
	Count        int           `json:"count"`
	Filters      PopularFilter `json:"filters"`
}

type PreferenceResponse struct {
	Preferences     Preferences   `json:"preferences"`
	Recommendations []BookSummary `json:"recommendations"`
	Count           int           `json:"count"`
}

type GenreInfo struct {
	Genre        string   `json:"genre"`
	TotalBooks   int      `json:"total_books"`
	AvgRating    float64  `json:"avg_rating"`
	Keywords     []string `json:"keywords"`
	SampleTitles []string `json:"sample_books"`
}

type GenreList struct {
	Genres []string `json:"genres"`
	Count  int      `json:"count"`
}

// ModelInfo describes the snapshot currently serving queries.
type ModelInfo struct {
	SnapshotID   string    `json:"snapshot_id"`
	Mode         string    `json:"mode"`
	Books        int       `json:"books"`
	Features     int       `json:"features"`
	FeatureNames []string  `json:"feature_names"`
	Neighbors    int       `json:"neighbors"`
	BuiltAt      time.Time `json:"built_at"`
}

type RatingRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

type CatalogInfo struct {
	TotalBooks         int            `json:"total_books"`
	UniqueAuthors      int            `json:"unique_authors"`
	Languages          map[string]int `json:"languages"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	AvgRatingRange     RatingRange    `json:"avg_rating_range"`
}
