package genre

import (
	"math"
	"sort"
	"strings"

	"github.com/temcen/bookrec/internal/catalog"
)

// DefaultFindLimit caps genre matches when the caller passes no limit.
const DefaultFindLimit = 100

// Finder matches catalog books against the lexicon.
type Finder struct {
	lexicon *Lexicon
	books   []catalog.Book
}

func NewFinder(lexicon *Lexicon, books []catalog.Book) *Finder {
	return &Finder{lexicon: lexicon, books: books}
}

func (f *Finder) Lexicon() *Lexicon {
	return f.lexicon
}

// Find returns books whose title or authors contain one of the genre's
// keywords, widening to the genre name itself when nothing matches. Results
// are ordered by rating then ratings count, both descending.
func (f *Finder) Find(genre string, limit int) []catalog.Book {
	if limit <= 0 {
		limit = DefaultFindLimit
	}
	genre = strings.ToLower(strings.TrimSpace(genre))
	if genre == "" {
		return nil
	}

	pattern := f.lexicon.pattern(genre)
	var matches []catalog.Book
	for _, b := range f.books {
		if pattern.MatchString(b.Title) || pattern.MatchString(b.Authors) {
			matches = append(matches, b)
		}
	}

	if len(matches) == 0 {
		matches = f.containing(genre)
	}

	SortByQuality(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Search returns books whose title or authors contain query, case-insensitively,
// in the same order as Find.
func (f *Finder) Search(query string, limit int) []catalog.Book {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	matches := f.containing(query)
	SortByQuality(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func (f *Finder) containing(needle string) []catalog.Book {
	var out []catalog.Book
	for _, b := range f.books {
		if strings.Contains(strings.ToLower(b.Title), needle) || strings.Contains(strings.ToLower(b.Authors), needle) {
			out = append(out, b)
		}
	}
	return out
}

// SortByQuality orders books by average rating then ratings count, both
// descending, with missing values last.
func SortByQuality(books []catalog.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		if c := compareDesc(books[i].AverageRating, books[j].AverageRating); c != 0 {
			return c < 0
		}
		return compareDesc(books[i].RatingsCount, books[j].RatingsCount) < 0
	})
}

// compareDesc returns -1 when a sorts before b in descending order.
func compareDesc(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
