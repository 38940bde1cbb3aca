package engine

import (
	"math"
	"strings"
	"time"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/internal/catalog"
	"github.com/temcen/bookrec/internal/features"
	"github.com/temcen/bookrec/internal/genre"
	"github.com/temcen/bookrec/internal/index"
	"github.com/temcen/bookrec/internal/sentiment"
	"github.com/temcen/bookrec/pkg/models"
)

const (
	DefaultGenreCount      = 6
	DefaultGenreMinRating  = 3.5
	DefaultGenreMinRatings = 100
	DefaultSearchLimit     = 10
	DefaultPreferenceCount = 5

	relaxedRatingFloor = 3.0
	genreSampleTitles  = 5

	preferencePopularTarget   = 0.9
	preferenceSentimentTarget = 0.8
)

func (e *Engine) observe(op string, start time.Time, err error) {
	e.metrics.RecordQuery(op, time.Since(start), err)
}

// RecommendByGenre returns up to count titles for a genre, preferring books
// rated at least minRating with at least minRatingsCount ratings. Short lists
// are topped up with titles similar to the best match, then with the rest of
// the genre's books. An unknown or empty genre yields an empty list.
func (e *Engine) RecommendByGenre(label string, count int, minRating float64, minRatingsCount int) (titles []string, err error) {
	defer func(start time.Time) { e.observe("recommend_by_genre", start, err) }(time.Now())

	st, err := e.ensure()
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = DefaultGenreCount
	}

	pool := st.finder.Find(label, genre.DefaultFindLimit)
	if len(pool) == 0 {
		return []string{}, nil
	}

	quality := filterBooks(pool, func(b catalog.Book) bool {
		return b.AverageRating >= minRating && b.RatingsCount >= float64(minRatingsCount)
	})
	if len(quality) == 0 {
		relaxed := math.Max(relaxedRatingFloor, minRating-0.5)
		quality = filterBooks(pool, func(b catalog.Book) bool { return b.AverageRating >= relaxed })
	}
	if len(quality) == 0 {
		quality = pool
	}

	titles = make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	add := func(title string) {
		if len(titles) >= count {
			return
		}
		if _, dup := seen[title]; dup {
			return
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
	}

	for _, b := range quality {
		add(b.Title)
	}

	if len(titles) < count {
		similar, err := st.index.ByTitle(quality[0].Title, 2*count)
		if err != nil {
			e.logger.WithError(err).WithField("title", quality[0].Title).Debug("No similar titles for genre fill")
		}
		for _, s := range similar {
			if s.Similarity != nil && *s.Similarity < e.engineCfg.MinSimilarity {
				continue
			}
			add(s.Title)
		}
	}

	for _, b := range pool {
		add(b.Title)
	}

	return titles, nil
}

func filterBooks(books []catalog.Book, keep func(catalog.Book) bool) []catalog.Book {
	var out []catalog.Book
	for _, b := range books {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// SearchByText matches query against titles and authors. limit defaults to 10.
func (e *Engine) SearchByText(query string, limit int) (results []models.BookSummary, err error) {
	defer func(start time.Time) { e.observe("search", start, err) }(time.Now())

	if strings.TrimSpace(query) == "" {
		return nil, apperrors.Validation("search query is required")
	}
	st, err := e.ensure()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	books := st.finder.Search(query, limit)
	results = make([]models.BookSummary, 0, len(books))
	for _, b := range books {
		results = append(results, index.Summarize(b))
	}
	return results, nil
}

// SimilarByTitle returns the nearest neighbors of the book best matching
// title. It fails with ErrNotFound when no title matches.
func (e *Engine) SimilarByTitle(title string, count int) (results []models.BookSummary, err error) {
	defer func(start time.Time) { e.observe("similar_by_title", start, err) }(time.Now())

	st, err := e.ensure()
	if err != nil {
		return nil, err
	}
	return st.index.ByTitle(title, count)
}

// SimilarByFeatures returns the books nearest a vector with the named scaled
// feature columns set to the given values and every other column zero.
func (e *Engine) SimilarByFeatures(targets map[string]float64, count int) (results []models.BookSummary, err error) {
	defer func(start time.Time) { e.observe("similar_by_features", start, err) }(time.Now())

	st, err := e.ensure()
	if err != nil {
		return nil, err
	}
	return st.index.ByFeatures(targets, count), nil
}

// PopularByFilter filters and ranks the catalog without touching the
// neighbor index. No match is an empty list, not an error.
func (e *Engine) PopularByFilter(f index.Filter) (results []models.BookSummary, err error) {
	defer func(start time.Time) { e.observe("popular", start, err) }(time.Now())

	if f.RatingCategory != "" {
		if _, ok := catalog.ParseRatingCategory(f.RatingCategory); !ok {
			return nil, apperrors.Validation("unknown rating category %q", f.RatingCategory)
		}
	}
	st, err := e.ensure()
	if err != nil {
		return nil, err
	}
	return st.index.Popular(f), nil
}

// PreferenceTargets maps preference flags onto feature targets.
func PreferenceTargets(p models.Preferences) map[string]float64 {
	targets := make(map[string]float64)
	if p.HighRating {
		targets[features.RatingHigh] = 1
		targets[features.RatingVeryHigh] = 1
	}
	if p.Popular {
		targets[features.RatingsPercentile] = preferencePopularTarget
	}
	if p.Language != "" {
		targets[features.LanguagePrefix+p.Language] = 1
	}
	if p.SentimentPositive {
		targets[features.SentimentScore] = preferenceSentimentTarget
	}
	return targets
}

// RecommendByPreferences answers a feature-target query built from p.
// Count defaults to 5.
func (e *Engine) RecommendByPreferences(p models.Preferences) (results []models.BookSummary, err error) {
	defer func(start time.Time) { e.observe("recommend_by_preferences", start, err) }(time.Now())

	st, err := e.ensure()
	if err != nil {
		return nil, err
	}
	count := p.Count
	if count <= 0 {
		count = DefaultPreferenceCount
	}
	return st.index.ByFeatures(PreferenceTargets(p), count), nil
}

// AnalyzeSentiment labels text without needing a built model.
func (e *Engine) AnalyzeSentiment(text string) models.SentimentResult {
	start := time.Now()
	result := sentiment.Analyze(e.sentimentScorer(), text)
	e.observe("sentiment", start, nil)
	return result
}

// GenreInfo summarizes the books a genre matches.
func (e *Engine) GenreInfo(label string) (info models.GenreInfo, err error) {
	defer func(start time.Time) { e.observe("genre_info", start, err) }(time.Now())

	st, err := e.ensure()
	if err != nil {
		return models.GenreInfo{}, err
	}

	books := st.finder.Find(label, genre.DefaultFindLimit)
	keywords, ok := e.lexicon.Keywords(label)
	if !ok {
		keywords = []string{}
	}

	info = models.GenreInfo{
		Genre:        label,
		TotalBooks:   len(books),
		Keywords:     keywords,
		SampleTitles: []string{},
	}

	var sum float64
	var rated int
	for i, b := range books {
		if !math.IsNaN(b.AverageRating) {
			sum += b.AverageRating
			rated++
		}
		if i < genreSampleTitles {
			info.SampleTitles = append(info.SampleTitles, b.Title)
		}
	}
	if rated > 0 {
		info.AvgRating = sum / float64(rated)
	}
	return info, nil
}

// AvailableGenres lists the known genres in declaration order.
func (e *Engine) AvailableGenres() []string {
	return e.lexicon.Genres()
}

// CatalogInfo summarizes the catalog behind the serving model.
func (e *Engine) CatalogInfo() (models.CatalogInfo, error) {
	st, err := e.ensure()
	if err != nil {
		return models.CatalogInfo{}, err
	}
	return catalog.Info(st.catalog), nil
}

// ModelInfo describes the serving model, building it if needed.
func (e *Engine) ModelInfo() (models.ModelInfo, error) {
	return e.Warm()
}
