// Package index answers nearest-neighbor queries over a scaled feature matrix
// using brute-force cosine distance.
package index

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/internal/catalog"
	"github.com/temcen/bookrec/internal/features"
	"github.com/temcen/bookrec/pkg/models"
)

const (
	DefaultNeighbors = 10
	DefaultResults   = 5
)

// Index is immutable after New and safe for concurrent queries.
type Index struct {
	books     []catalog.Book
	matrix    *features.Matrix
	norms     []float64
	neighbors int
	titles    *TitleMatcher
}

// Options configures neighbor count and fuzzy title matching.
type Options struct {
	Neighbors      int
	FuzzyThreshold float64
}

// New indexes matrix, whose rows align with books. The neighbor count is
// capped at the catalog size.
func New(books []catalog.Book, matrix *features.Matrix, opts Options) (*Index, error) {
	if len(books) == 0 {
		return nil, apperrors.State("cannot index an empty catalog")
	}
	if matrix == nil || matrix.Len() != len(books) {
		return nil, apperrors.State("feature matrix does not align with catalog")
	}

	neighbors := opts.Neighbors
	if neighbors <= 0 {
		neighbors = DefaultNeighbors
	}
	if neighbors > len(books) {
		neighbors = len(books)
	}

	norms := make([]float64, matrix.Len())
	for i, row := range matrix.Rows {
		norms[i] = floats.Norm(row, 2)
	}

	return &Index{
		books:     books,
		matrix:    matrix,
		norms:     norms,
		neighbors: neighbors,
		titles:    NewTitleMatcher(books, opts.FuzzyThreshold),
	}, nil
}

// Neighbors is the configured neighbor count after capping.
func (ix *Index) Neighbors() int { return ix.neighbors }

func (ix *Index) Len() int { return len(ix.books) }

func (ix *Index) FeatureNames() []string {
	return append([]string(nil), ix.matrix.Names...)
}

// Book returns the catalog row at i.
func (ix *Index) Book(i int) catalog.Book { return ix.books[i] }

// Resolve maps a title to a row using exact, substring, then fuzzy matching.
func (ix *Index) Resolve(title string) (int, error) {
	return ix.titles.Resolve(title)
}

type neighbor struct {
	row      int
	distance float64
}

// nearest returns the k rows closest to query, nearest first, ties by row.
func (ix *Index) nearest(query []float64, k int) []neighbor {
	if k > len(ix.books) {
		k = len(ix.books)
	}
	qNorm := floats.Norm(query, 2)

	all := make([]neighbor, len(ix.books))
	for i, row := range ix.matrix.Rows {
		all[i] = neighbor{row: i, distance: cosineDistance(query, qNorm, row, ix.norms[i])}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].distance < all[b].distance })
	return all[:k]
}

// cosineDistance treats a zero vector as orthogonal to everything.
func cosineDistance(a []float64, aNorm float64, b []float64, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 1
	}
	d := 1 - floats.Dot(a, b)/(aNorm*bNorm)
	return math.Max(0, math.Min(2, d))
}

// similarity maps cosine distance in [0,2] onto [0,1], rounded to 3 places.
func similarity(distance float64) float64 {
	s := math.Max(0, (2-distance)/2)
	return math.Round(s*1000) / 1000
}

// ByTitle resolves title and returns up to count of its nearest neighbors,
// excluding the book itself. count defaults to 5.
func (ix *Index) ByTitle(title string, count int) ([]models.BookSummary, error) {
	row, err := ix.Resolve(title)
	if err != nil {
		return nil, err
	}
	return ix.SimilarTo(row, count), nil
}

// SimilarTo returns up to count neighbors of row, excluding row.
func (ix *Index) SimilarTo(row, count int) []models.BookSummary {
	if count <= 0 {
		count = DefaultResults
	}

	results := make([]models.BookSummary, 0, count)
	for _, n := range ix.nearest(ix.matrix.Rows[row], count+1) {
		if n.row == row {
			continue
		}
		results = append(results, ix.summary(n))
		if len(results) >= count {
			break
		}
	}
	return results
}

// QueryVector builds a zero vector with the named columns set. Names the
// index does not carry are ignored.
func (ix *Index) QueryVector(targets map[string]float64) []float64 {
	vec := make([]float64, ix.matrix.Width())
	for name, v := range targets {
		if j := ix.matrix.Column(name); j >= 0 {
			vec[j] = v
		}
	}
	return vec
}

// ByFeatures returns the count nearest books to a synthetic vector built from
// targets. count defaults to 5.
func (ix *Index) ByFeatures(targets map[string]float64, count int) []models.BookSummary {
	if count <= 0 {
		count = DefaultResults
	}

	found := ix.nearest(ix.QueryVector(targets), count)
	results := make([]models.BookSummary, 0, len(found))
	for _, n := range found {
		results = append(results, ix.summary(n))
	}
	return results
}

func (ix *Index) summary(n neighbor) models.BookSummary {
	s := Summarize(ix.books[n.row])
	sim := similarity(n.distance)
	s.Similarity = &sim
	return s
}

// Summarize projects a book onto the query result shape.
func Summarize(b catalog.Book) models.BookSummary {
	return models.BookSummary{
		Title:        b.Title,
		Author:       b.PrimaryAuthor,
		Rating:       b.Rating(),
		RatingsCount: b.Count(),
		Language:     b.LanguageCode,
	}
}
