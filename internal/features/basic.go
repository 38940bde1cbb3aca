package features

import (
	"math"
	"sort"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/internal/catalog"
)

const basicTopLanguages = 5

// Basic builds the reduced feature set used when the full pipeline cannot be
// built: normalized rating and log-popularity, the five most frequent
// languages, publication year when the source had one, and author frequency.
// Every column is already in [0,1] so no scaler is fit.
func Basic(c *catalog.Catalog) (*Matrix, error) {
	if !c.Preprocessed() {
		return nil, apperrors.State("feature engineering requires a preprocessed catalog")
	}
	books := c.Books

	names := []string{"rating_normalized", "popularity_normalized"}
	languages := topLanguages(books, basicTopLanguages)
	for _, lang := range languages {
		names = append(names, LanguagePrefix+lang)
	}
	withYear := c.HasColumn("publication_year") || c.HasColumn("publication_date")
	if withYear {
		names = append(names, "year_normalized")
	}
	names = append(names, "author_popularity")

	m := newMatrix(names, len(books))

	var maxPopularity float64
	popularity := make([]float64, len(books))
	for i, b := range books {
		popularity[i] = nanToZero(math.Log1p(b.RatingsCount))
		maxPopularity = math.Max(maxPopularity, popularity[i])
	}

	minYear, maxYear := math.Inf(1), math.Inf(-1)
	for _, b := range books {
		if !math.IsNaN(b.PublicationYear) {
			minYear = math.Min(minYear, b.PublicationYear)
			maxYear = math.Max(maxYear, b.PublicationYear)
		}
	}

	authorBooks := make(map[string]int)
	var maxAuthorBooks int
	for _, b := range books {
		authorBooks[b.PrimaryAuthor]++
		if authorBooks[b.PrimaryAuthor] > maxAuthorBooks {
			maxAuthorBooks = authorBooks[b.PrimaryAuthor]
		}
	}

	for i, b := range books {
		m.set(i, "rating_normalized", nanToZero(b.AverageRating/5))

		if maxPopularity > 0 {
			m.set(i, "popularity_normalized", popularity[i]/maxPopularity)
		}

		for _, lang := range languages {
			if b.LanguageCode == lang {
				m.set(i, LanguagePrefix+lang, 1)
			}
		}

		if withYear {
			year := 0.0
			if maxYear > minYear {
				year = 0.5
				if !math.IsNaN(b.PublicationYear) {
					year = (b.PublicationYear - minYear) / (maxYear - minYear)
				}
			}
			m.set(i, "year_normalized", year)
		}

		if maxAuthorBooks > 0 {
			m.set(i, "author_popularity", math.Log1p(float64(authorBooks[b.PrimaryAuthor]))/math.Log1p(float64(maxAuthorBooks)))
		}
	}

	m.fillNaN()
	return m, nil
}

// topLanguages returns the n most frequent language codes, ties in order of
// first appearance.
func topLanguages(books []catalog.Book, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, b := range books {
		if _, seen := counts[b.LanguageCode]; !seen {
			order = append(order, b.LanguageCode)
		}
		counts[b.LanguageCode]++
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}
