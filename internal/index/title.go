package index

import (
	"strings"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/internal/catalog"
)

// DefaultFuzzyThreshold is the minimum match ratio a fuzzy title match needs.
const DefaultFuzzyThreshold = 0.4

// TitleMatcher resolves free-form titles to catalog rows.
type TitleMatcher struct {
	titles    []string
	threshold float64
}

func NewTitleMatcher(books []catalog.Book, threshold float64) *TitleMatcher {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = strings.ToLower(b.Title)
	}
	return &TitleMatcher{titles: titles, threshold: threshold}
}

// Resolve tries an exact case-insensitive match, then a substring match, then
// the closest fuzzy match clearing the threshold. The first row wins ties.
func (m *TitleMatcher) Resolve(title string) (int, error) {
	query := strings.ToLower(strings.TrimSpace(title))
	if query == "" {
		return -1, apperrors.Validation("title must not be empty")
	}

	for i, t := range m.titles {
		if t == query {
			return i, nil
		}
	}

	for i, t := range m.titles {
		if strings.Contains(t, query) {
			return i, nil
		}
	}

	best, bestRatio := -1, 0.0
	q := []rune(query)
	for i, t := range m.titles {
		if r := matchRatio([]rune(t), q); r > bestRatio {
			best, bestRatio = i, r
		}
	}
	if best < 0 || bestRatio < m.threshold {
		return -1, apperrors.NotFound("book '%s' not found", title)
	}
	return best, nil
}

// matchRatio is 2*M/T where M counts characters in recursively found longest
// common blocks and T is the combined length.
func matchRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(a, b)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	i, j, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingRunes(a[:i], b[:j]) + matchingRunes(a[i+size:], b[j+size:])
}

// longestBlock finds the longest common substring, earliest in a then b.
func longestBlock(a, b []rune) (int, int, int) {
	var bestI, bestJ, best int
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)

	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] != b[j] {
				cur[j+1] = 0
				continue
			}
			cur[j+1] = prev[j] + 1
			if cur[j+1] > best {
				best = cur[j+1]
				bestI, bestJ = i-best+1, j-best+1
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, best
}
