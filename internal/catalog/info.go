package catalog

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/temcen/bookrec/pkg/models"
)

// Info summarizes a preprocessed catalog.
func Info(c *Catalog) models.CatalogInfo {
	info := models.CatalogInfo{
		Languages:          make(map[string]int),
		RatingDistribution: make(map[string]int),
	}
	if c == nil {
		return info
	}

	authors := make(map[string]struct{})
	var ratings []float64
	for _, b := range c.Books {
		authors[b.PrimaryAuthor] = struct{}{}
		info.Languages[b.LanguageCode]++
		info.RatingDistribution[string(b.RatingCategory)]++
		if !math.IsNaN(b.AverageRating) {
			ratings = append(ratings, b.AverageRating)
		}
	}

	info.TotalBooks = len(c.Books)
	info.UniqueAuthors = len(authors)

	if len(ratings) > 0 {
		lo, hi := ratings[0], ratings[0]
		for _, r := range ratings[1:] {
			lo = math.Min(lo, r)
			hi = math.Max(hi, r)
		}
		info.AvgRatingRange = models.RatingRange{Min: lo, Max: hi, Mean: stat.Mean(ratings, nil)}
	}

	return info
}
