package index

import (
	"math"
	"sort"

	"github.com/temcen/bookrec/internal/catalog"
	"github.com/temcen/bookrec/pkg/models"
)

const (
	DefaultMinRatings   = 1000
	DefaultPopularLimit = 10
)

// Filter selects popular books. Empty RatingCategory or Language match all.
type Filter struct {
	RatingCategory string
	Language       string
	MinRatings     int
	Limit          int
}

// DefaultFilter requires 1000 ratings and returns 10 books.
func DefaultFilter() Filter {
	return Filter{MinRatings: DefaultMinRatings, Limit: DefaultPopularLimit}
}

// Popular filters books and sorts them by rating, descending. It never
// touches the neighbor index and returns an empty list rather than an error.
func Popular(books []catalog.Book, f Filter) []models.BookSummary {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	minRatings := math.Max(0, float64(f.MinRatings))

	var matched []catalog.Book
	for _, b := range books {
		if f.RatingCategory != "" && string(b.RatingCategory) != f.RatingCategory {
			continue
		}
		if f.Language != "" && b.LanguageCode != f.Language {
			continue
		}
		if !(b.RatingsCount >= minRatings) {
			continue
		}
		matched = append(matched, b)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i].AverageRating, matched[j].AverageRating
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	results := make([]models.BookSummary, 0, len(matched))
	for _, b := range matched {
		results = append(results, Summarize(b))
	}
	return results
}

// Popular runs the filter over the indexed catalog.
func (ix *Index) Popular(f Filter) []models.BookSummary {
	return Popular(ix.books, f)
}
