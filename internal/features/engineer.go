// Package features turns a preprocessed catalog into a column-aligned numeric
// matrix for the similarity index.
package features

import (
	"math"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/internal/catalog"
)

// Column names referenced outside this package.
const (
	RatingHigh        = "rating_high"
	RatingVeryHigh    = "rating_very_high"
	RatingsPercentile = "ratings_percentile"
	SentimentScore    = "sentiment_score"
	LanguagePrefix    = "lang_"
	LanguageOther     = "lang_other"
)

// CommonLanguages get their own one-hot column; everything else is lang_other.
var CommonLanguages = []string{"eng", "en-US", "en-GB", "en-CA", "spa", "fre", "ger"}

var pageBuckets = []struct {
	name  string
	upper float64
}{
	{"pages_short", 200},
	{"pages_medium", 400},
	{"pages_long", 600},
	{"pages_very_long", math.Inf(1)},
}

// Names returns the full feature set's column order.
func Names() []string {
	names := make([]string, 0, 30)
	for _, c := range catalog.RatingCategories {
		names = append(names, "rating_"+string(c))
	}
	for _, lang := range CommonLanguages {
		names = append(names, LanguagePrefix+lang)
	}
	names = append(names, LanguageOther)
	names = append(names, "log_ratings_count", "rating_score", RatingsPercentile)
	names = append(names, "num_pages_normalized")
	for _, b := range pageBuckets {
		names = append(names, b.name)
	}
	names = append(names,
		"author_book_count", "author_avg_rating", "author_total_ratings", "author_popularity_score",
		"weighted_rating", "engagement_score",
		"average_rating", "ratings_count",
		SentimentScore,
	)
	return names
}

// Engineer builds the unscaled full feature matrix, one row per book in
// catalog order, with NaN replaced by 0.
func Engineer(c *catalog.Catalog) (*Matrix, error) {
	if !c.Preprocessed() {
		return nil, apperrors.State("feature engineering requires a preprocessed catalog")
	}

	m := newMatrix(Names(), c.Len())
	books := c.Books

	counts := make([]float64, len(books))
	ratings := make([]float64, len(books))
	for i, b := range books {
		counts[i] = b.RatingsCount
		ratings[i] = b.AverageRating
	}

	percentiles := percentileRank(counts)
	authors := aggregateAuthors(books)
	meanRating := nanMean(ratings)
	m90 := quantile(counts, 0.9)

	common := make(map[string]bool, len(CommonLanguages))
	for _, lang := range CommonLanguages {
		common[lang] = true
	}

	for i, b := range books {
		for _, cat := range catalog.RatingCategories {
			m.set(i, "rating_"+string(cat), boolFloat(b.RatingCategory == cat))
		}

		if common[b.LanguageCode] {
			m.set(i, LanguagePrefix+b.LanguageCode, 1)
		} else {
			m.set(i, LanguageOther, 1)
		}

		logCount := math.Log1p(b.RatingsCount)
		m.set(i, "log_ratings_count", logCount)
		m.set(i, "rating_score", b.AverageRating*logCount)
		m.set(i, RatingsPercentile, percentiles[i])

		m.set(i, "num_pages_normalized", math.Log1p(b.NumPages))
		if bucket := pageBucket(b.NumPages); bucket != "" {
			m.set(i, bucket, 1)
		}

		a := authors[b.PrimaryAuthor]
		m.set(i, "author_book_count", a.books)
		m.set(i, "author_avg_rating", a.avgRating)
		m.set(i, "author_total_ratings", a.totalRatings)
		m.set(i, "author_popularity_score", math.Log1p(a.totalRatings)*a.avgRating)

		m.set(i, "weighted_rating", weightedRating(b.RatingsCount, b.AverageRating, meanRating, m90))
		m.set(i, "engagement_score", b.RatingsCount/(b.NumPages+1))

		m.set(i, "average_rating", b.AverageRating)
		m.set(i, "ratings_count", b.RatingsCount)
		m.set(i, SentimentScore, b.SentimentScore)
	}

	m.fillNaN()
	return m, nil
}

// Build engineers the full matrix and scales it with a freshly fit scaler.
func Build(c *catalog.Catalog) (*Matrix, *MinMaxScaler, error) {
	raw, err := Engineer(c)
	if err != nil {
		return nil, nil, err
	}

	scaler := NewMinMaxScaler()
	scaled, err := scaler.FitTransform(raw)
	if err != nil {
		return nil, nil, err
	}
	return scaled, scaler, nil
}

// pageBucket uses right-closed edges with 0 included in the first bucket.
func pageBucket(pages float64) string {
	if math.IsNaN(pages) || pages < 0 {
		return ""
	}
	for _, b := range pageBuckets {
		if pages <= b.upper {
			return b.name
		}
	}
	return ""
}

// weightedRating shrinks a book's rating toward the catalog mean c by the
// weight of its vote count v against the threshold m.
func weightedRating(v, r, c, m float64) float64 {
	return v/(v+m)*r + m/(m+v)*c
}

type authorStats struct {
	books        float64
	avgRating    float64
	totalRatings float64
}

func aggregateAuthors(books []catalog.Book) map[string]authorStats {
	type acc struct {
		books, ratedBooks       int
		ratingSum, ratingsTotal float64
	}

	accs := make(map[string]*acc)
	for _, b := range books {
		a, ok := accs[b.PrimaryAuthor]
		if !ok {
			a = &acc{}
			accs[b.PrimaryAuthor] = a
		}
		a.books++
		if !math.IsNaN(b.AverageRating) {
			a.ratingSum += b.AverageRating
			a.ratedBooks++
		}
		if !math.IsNaN(b.RatingsCount) {
			a.ratingsTotal += b.RatingsCount
		}
	}

	out := make(map[string]authorStats, len(accs))
	for name, a := range accs {
		avg := math.NaN()
		if a.ratedBooks > 0 {
			avg = a.ratingSum / float64(a.ratedBooks)
		}
		out[name] = authorStats{books: float64(a.books), avgRating: avg, totalRatings: a.ratingsTotal}
	}
	return out
}
