package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/internal/catalog"
	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/internal/index"
	"github.com/temcen/bookrec/internal/sentiment"
	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

const testCatalog = `bookID,title,authors,average_rating,language_code,num_pages,ratings_count,publication_date
1,The Alchemist,Paulo Coelho,3.88,eng,197,1631221,5/1/1993
2,Harry Potter and the Sorcerer's Stone,J.K. Rowling/Mary GrandPre,4.47,eng,309,4602479,11/1/2003
3,Harry Potter and the Chamber of Secrets,J.K. Rowling,4.42,eng,352,2293963,11/1/2003
4,The Hobbit,J.R.R. Tolkien,4.27,eng,366,2530894,8/15/2002
5,Siddhartha,Hermann Hesse,4.00,eng,152,395000,1/1/2002
6,Murder on the Orient Express,Agatha Christie,4.18,eng,265,651000,3/1/2007
7,The Girl on the Train,Paula Hawkins,3.89,eng,336,1400000,1/13/2015
8,Dracula,Bram Stoker,3.99,eng,488,830000,5/26/1997
9,Pride and Prejudice,Jane Austen,4.26,eng,279,2500000,10/10/2000
10,A Brief History of Time,Stephen Hawking,4.16,eng,212,290000,9/1/1998
11,Don Quijote,Miguel de Cervantes,3.87,spa,1056,2000,1/1/2004
12,Le Petit Prince,Antoine de Saint-Exupery,4.30,fre,96,6000,1/1/1999
13,Obscure Love Letters,Nobody Known,2.10,eng,150,12,1/1/2010
14,Heart of Darkness,Joseph Conrad,3.42,eng,188,350000,1/1/2000
15,Meditations,Marcus Aurelius,4.24,eng,254,180000,1/1/2002
16,The Wedding,Nicholas Sparks,3.95,eng,288,120000,1/1/2005
`

type countingObserver struct {
	builds atomic.Int32
	mu     sync.Mutex
	last   models.ModelInfo
}

func (o *countingObserver) ModelBuilt(info models.ModelInfo) {
	o.builds.Add(1)
	o.mu.Lock()
	o.last = info
	o.mu.Unlock()
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	return path
}

func testConfig(catalogPath string) *config.Config {
	cfg := config.Default()
	cfg.Catalog.Path = catalogPath
	cfg.Sentiment.Disabled = true
	return cfg
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *config.Config) {
	t.Helper()
	cfg := testConfig(writeCatalog(t))
	opts = append([]Option{WithScorer(sentiment.NewLexiconScorer())}, opts...)
	return New(cfg, testLogger(), opts...), cfg
}

func TestEngine_LazyFullBuild(t *testing.T) {
	obs := &countingObserver{}
	e, _ := newTestEngine(t, WithObserver(obs))
	assert.False(t, e.Ready())

	info, err := e.ModelInfo()
	require.NoError(t, err)
	assert.True(t, e.Ready())
	assert.Equal(t, string(store.ModeFull), info.Mode)
	assert.Equal(t, 16, info.Books)
	assert.Equal(t, 30, info.Features)
	assert.Equal(t, 10, info.Neighbors)
	assert.NotEmpty(t, info.SnapshotID)
	assert.Equal(t, int32(1), obs.builds.Load())
	assert.Equal(t, info.SnapshotID, obs.last.SnapshotID)
}

func TestEngine_ConcurrentFirstCallersBuildOnce(t *testing.T) {
	obs := &countingObserver{}
	e, _ := newTestEngine(t, WithObserver(obs))

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			info, err := e.ModelInfo()
			if err == nil {
				ids[i] = info.SnapshotID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), obs.builds.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestEngine_SimilarByTitle(t *testing.T) {
	e, _ := newTestEngine(t)

	results, err := e.SimilarByTitle("The Alchemist", 5)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.NotEqual(t, "The Alchemist", r.Title)
		require.NotNil(t, r.Similarity)
		assert.GreaterOrEqual(t, *r.Similarity, 0.0)
		assert.LessOrEqual(t, *r.Similarity, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, *r.Similarity, *results[i-1].Similarity)
		}
	}

	_, err = e.SimilarByTitle("Zzzzqqqq Xxxx", 5)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	t.Run("query failure leaves the model serving", func(t *testing.T) {
		again, err := e.SimilarByTitle("the alchemist", 3)
		require.NoError(t, err)
		assert.Len(t, again, 3)
	})
}

func TestEngine_RecommendByGenre(t *testing.T) {
	e, _ := newTestEngine(t)

	t.Run("quality books first, topped up with similar titles", func(t *testing.T) {
		titles, err := e.RecommendByGenre("fantasy", 6, 3.5, 100)
		require.NoError(t, err)
		require.Len(t, titles, 6)
		assert.Equal(t, []string{
			"Harry Potter and the Sorcerer's Stone",
			"Harry Potter and the Chamber of Secrets",
			"The Hobbit",
		}, titles[:3])

		seen := make(map[string]bool)
		for _, title := range titles {
			assert.False(t, seen[title], "duplicate %q", title)
			seen[title] = true
		}
	})

	t.Run("relaxes the rating floor", func(t *testing.T) {
		titles, err := e.RecommendByGenre("romance", 2, 3.5, 1_000_000)
		require.NoError(t, err)
		assert.Equal(t, []string{"The Wedding", "Heart of Darkness"}, titles)
	})

	t.Run("falls back to every genre book", func(t *testing.T) {
		titles, err := e.RecommendByGenre("romance", 3, 4.9, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"The Wedding", "Heart of Darkness", "Obscure Love Letters"}, titles)
	})

	t.Run("unknown genre", func(t *testing.T) {
		titles, err := e.RecommendByGenre("cooking", 6, 3.5, 100)
		require.NoError(t, err)
		assert.NotNil(t, titles)
		assert.Empty(t, titles)
	})

	t.Run("default count", func(t *testing.T) {
		titles, err := e.RecommendByGenre("fantasy", 0, DefaultGenreMinRating, DefaultGenreMinRatings)
		require.NoError(t, err)
		assert.Len(t, titles, DefaultGenreCount)
	})
}

func TestEngine_SearchByText(t *testing.T) {
	e, _ := newTestEngine(t)

	results, err := e.SearchByText("ROWLING", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Harry Potter and the Sorcerer's Stone", results[0].Title)
	assert.Equal(t, "J.K. Rowling", results[0].Author)
	assert.Nil(t, results[0].Similarity)

	_, err = e.SearchByText("  ", 10)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestEngine_PopularByFilter(t *testing.T) {
	e, _ := newTestEngine(t)

	results, err := e.PopularByFilter(index.Filter{RatingCategory: "very_high", MinRatings: 1000, Limit: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 10)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.RatingsCount, 1000)
		assert.Equal(t, catalog.RatingVeryHigh, catalog.CategorizeRating(r.Rating))
	}

	none, err := e.PopularByFilter(index.Filter{Language: "jpn", MinRatings: 1000, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = e.PopularByFilter(index.Filter{RatingCategory: "stellar"})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestEngine_RecommendByPreferences(t *testing.T) {
	assert.Equal(t, map[string]float64{
		"rating_high":        1,
		"rating_very_high":   1,
		"ratings_percentile": 0.9,
		"lang_fre":           1,
		"sentiment_score":    0.8,
	}, PreferenceTargets(models.Preferences{HighRating: true, Popular: true, Language: "fre", SentimentPositive: true}))
	assert.Empty(t, PreferenceTargets(models.Preferences{}))

	e, _ := newTestEngine(t)

	results, err := e.RecommendByPreferences(models.Preferences{HighRating: true})
	require.NoError(t, err)
	assert.Len(t, results, DefaultPreferenceCount)

	results, err = e.RecommendByPreferences(models.Preferences{Language: "spa", Count: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Don Quijote", results[0].Title)
}

func TestEngine_GenreInfo(t *testing.T) {
	e, _ := newTestEngine(t)

	info, err := e.GenreInfo("fantasy")
	require.NoError(t, err)
	assert.Equal(t, "fantasy", info.Genre)
	assert.Equal(t, 3, info.TotalBooks)
	assert.InDelta(t, (4.47+4.42+4.27)/3, info.AvgRating, 1e-9)
	assert.Contains(t, info.Keywords, "hobbit")
	assert.Equal(t, "Harry Potter and the Sorcerer's Stone", info.SampleTitles[0])

	unknown, err := e.GenreInfo("cooking")
	require.NoError(t, err)
	assert.Equal(t, 0, unknown.TotalBooks)
	assert.Equal(t, 0.0, unknown.AvgRating)
	assert.Equal(t, []string{}, unknown.Keywords)
	assert.Equal(t, []string{}, unknown.SampleTitles)

	assert.Equal(t, 10, len(e.AvailableGenres()))
	assert.Equal(t, "fantasy", e.AvailableGenres()[0])
}

func TestEngine_CatalogInfo(t *testing.T) {
	e, _ := newTestEngine(t)

	info, err := e.CatalogInfo()
	require.NoError(t, err)
	assert.Equal(t, 16, info.TotalBooks)
	assert.Equal(t, 14, info.Languages["eng"])
	assert.Equal(t, 1, info.Languages["spa"])
}

func TestEngine_AnalyzeSentiment(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.csv"))
	e := New(cfg, testLogger(), WithScorer(sentiment.NewLexiconScorer()))

	result := e.AnalyzeSentiment("An amazing, wonderful and brilliant story")
	assert.Equal(t, models.SentimentPositive, result.Label)

	neutral := e.AnalyzeSentiment("")
	assert.Equal(t, models.SentimentNeutral, neutral.Label)
	assert.Equal(t, 0.5, neutral.Score)
	assert.False(t, e.Ready(), "sentiment analysis needs no model")
}

func TestEngine_DegradedMode(t *testing.T) {
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "model.snapshot"), testLogger())
	cfg := testConfig(writeCatalog(t))
	cfg.Engine.ForceBasic = true
	e := New(cfg, testLogger(), WithScorer(sentiment.NewLexiconScorer()), WithStore(fs))

	info, err := e.ModelInfo()
	require.NoError(t, err)
	assert.Equal(t, string(store.ModeBasic), info.Mode)
	assert.Equal(t, cfg.Engine.BasicNeighbors, info.Neighbors)

	similar, err := e.SimilarByTitle("The Alchemist", 5)
	require.NoError(t, err)
	assert.Len(t, similar, 5)
	for _, r := range similar {
		assert.NotEqual(t, "The Alchemist", r.Title)
	}

	popular, err := e.PopularByFilter(index.DefaultFilter())
	require.NoError(t, err)
	assert.NotEmpty(t, popular)

	_, err = fs.Load()
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "basic models are not persisted")
}

func TestEngine_RestoresPersistedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.snapshot")
	cfg := testConfig(writeCatalog(t))

	first := New(cfg, testLogger(), WithScorer(sentiment.NewLexiconScorer()), WithStore(store.NewFileStore(path, testLogger())))
	built, err := first.ModelInfo()
	require.NoError(t, err)

	require.NoError(t, os.Remove(cfg.Catalog.Path))

	obs := &countingObserver{}
	second := New(cfg, testLogger(), WithStore(store.NewFileStore(path, testLogger())), WithObserver(obs))
	restored, err := second.ModelInfo()
	require.NoError(t, err)
	assert.Equal(t, built.SnapshotID, restored.SnapshotID)
	assert.Equal(t, built.FeatureNames, restored.FeatureNames)
	assert.Equal(t, int32(0), obs.builds.Load(), "restoring is not a build")

	results, err := second.SimilarByTitle("The Alchemist", 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestEngine_Retrain(t *testing.T) {
	obs := &countingObserver{}
	path := filepath.Join(t.TempDir(), "model.snapshot")
	fs := store.NewFileStore(path, testLogger())
	e, cfg := newTestEngine(t, WithStore(fs), WithObserver(obs))

	before, err := e.ModelInfo()
	require.NoError(t, err)

	after, err := e.Retrain()
	require.NoError(t, err)
	assert.NotEqual(t, before.SnapshotID, after.SnapshotID)
	assert.Equal(t, int32(2), obs.builds.Load())

	current, err := e.ModelInfo()
	require.NoError(t, err)
	assert.Equal(t, after.SnapshotID, current.SnapshotID)

	saved, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, after.SnapshotID, saved.ID)

	t.Run("failed retrain keeps the current model", func(t *testing.T) {
		require.NoError(t, os.Remove(cfg.Catalog.Path))
		_, err := e.Retrain()
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))

		current, err := e.ModelInfo()
		require.NoError(t, err)
		assert.Equal(t, after.SnapshotID, current.SnapshotID)
	})
}

func TestEngine_ModelUnavailable(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.csv"))
	e := New(cfg, testLogger(), WithScorer(sentiment.NewLexiconScorer()))

	_, err := e.ModelInfo()
	assert.True(t, errors.Is(err, apperrors.ErrModelUnavailable))

	_, err = e.SimilarByTitle("The Alchemist", 5)
	assert.True(t, errors.Is(err, apperrors.ErrModelUnavailable))
	assert.False(t, e.Ready())
	assert.NotEmpty(t, e.AvailableGenres())
}
