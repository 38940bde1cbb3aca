package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/internal/catalog"
)

func book(title, author string, rating, count float64, lang string, pages, year float64) catalog.Book {
	return catalog.Book{
		Title:           title,
		Authors:         author,
		PrimaryAuthor:   author,
		AverageRating:   rating,
		RatingsCount:    count,
		LanguageCode:    lang,
		NumPages:        pages,
		PublicationYear: year,
		RatingCategory:  catalog.CategorizeRating(rating),
		SentimentScore:  0.5,
	}
}

func testCatalog() *catalog.Catalog {
	books := []catalog.Book{
		book("The Hobbit", "J.R.R. Tolkien", 4.27, 2530894, "eng", 366, 2002),
		book("The Fellowship of the Ring", "J.R.R. Tolkien", 4.36, 2128944, "eng", 398, 2003),
		book("Cien años de soledad", "Gabriel García Márquez", 4.07, 6547, "spa", 471, 2007),
		book("Le Petit Prince", "Antoine de Saint-Exupéry", 4.30, 905, "fre", 96, 1999),
		book("Obscure Pamphlet", "Nobody", 2.10, 3, "nl", 0, math.NaN()),
		book("Unrated", "Anon", math.NaN(), math.NaN(), "eng", 700, 1985),
	}
	books[3].SentimentScore = 0.9
	return catalog.Restore(books, []string{"title", "authors", "average_rating", "ratings_count", "language_code", "num_pages", "publication_date"})
}

func value(t *testing.T, m *Matrix, row int, name string) float64 {
	t.Helper()
	j := m.Column(name)
	require.GreaterOrEqual(t, j, 0, "column %s", name)
	return m.Rows[row][j]
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 30)

	seen := make(map[string]bool)
	for _, n := range names {
		assert.False(t, seen[n], "duplicate column %s", n)
		seen[n] = true
	}
	assert.Equal(t, "rating_very_low", names[0])
	assert.Equal(t, SentimentScore, names[len(names)-1])
}

func TestEngineer(t *testing.T) {
	t.Run("requires preprocessing", func(t *testing.T) {
		_, err := Engineer(&catalog.Catalog{Books: testCatalog().Books})
		assert.True(t, errors.Is(err, apperrors.ErrState))

		_, err = Basic(&catalog.Catalog{})
		assert.True(t, errors.Is(err, apperrors.ErrState))
	})

	m, err := Engineer(testCatalog())
	require.NoError(t, err)
	require.Equal(t, 6, m.Len())
	require.Equal(t, 30, m.Width())

	t.Run("one-hot groups", func(t *testing.T) {
		for i := 0; i < m.Len(); i++ {
			var langs, pages float64
			for _, n := range m.Names {
				if n == LanguageOther || (len(n) > 5 && n[:5] == LanguagePrefix) {
					langs += value(t, m, i, n)
				}
			}
			for _, b := range pageBuckets {
				pages += value(t, m, i, b.name)
			}
			assert.Equal(t, 1.0, langs, "row %d has exactly one language", i)
			assert.Equal(t, 1.0, pages, "row %d has exactly one page bucket", i)
		}

		assert.Equal(t, 1.0, value(t, m, 0, RatingHigh))
		assert.Equal(t, 1.0, value(t, m, 1, RatingVeryHigh))
		assert.Equal(t, 1.0, value(t, m, 2, "lang_spa"))
		assert.Equal(t, 1.0, value(t, m, 4, LanguageOther))
		assert.Equal(t, 1.0, value(t, m, 4, "pages_short"), "zero pages fall in the first bucket")
		assert.Equal(t, 1.0, value(t, m, 5, "pages_very_long"))

		var ratingHot float64
		for _, c := range catalog.RatingCategories {
			ratingHot += value(t, m, 5, "rating_"+string(c))
		}
		assert.Equal(t, 0.0, ratingHot, "unknown rating has no category column")
	})

	t.Run("author aggregates", func(t *testing.T) {
		assert.Equal(t, 2.0, value(t, m, 0, "author_book_count"))
		assert.InDelta(t, (4.27+4.36)/2, value(t, m, 1, "author_avg_rating"), 1e-9)
		assert.InDelta(t, 2530894+2128944, value(t, m, 0, "author_total_ratings"), 1e-6)
		assert.InDelta(t, math.Log1p(2530894+2128944)*(4.27+4.36)/2, value(t, m, 0, "author_popularity_score"), 1e-9)
	})

	t.Run("weighted rating", func(t *testing.T) {
		counts := []float64{2530894, 2128944, 6547, 905, 3}
		mean := (4.27 + 4.36 + 4.07 + 4.30 + 2.10) / 5
		m90 := quantile(counts, 0.9)
		v, r := 905.0, 4.30
		expected := v/(v+m90)*r + m90/(m90+v)*mean
		assert.InDelta(t, expected, value(t, m, 3, "weighted_rating"), 1e-9)
		assert.Less(t, value(t, m, 4, "weighted_rating"), mean, "few votes pull toward the mean")
		assert.Greater(t, value(t, m, 4, "weighted_rating"), 2.10)
	})

	t.Run("missing values become zero", func(t *testing.T) {
		for _, row := range m.Rows {
			for _, v := range row {
				assert.False(t, math.IsNaN(v))
			}
		}
		assert.Equal(t, 0.0, value(t, m, 5, "average_rating"))
		assert.Equal(t, 0.0, value(t, m, 5, RatingsPercentile))
	})

	assert.Equal(t, 0.9, value(t, m, 3, SentimentScore))
	assert.InDelta(t, math.Log1p(366), value(t, m, 0, "num_pages_normalized"), 1e-9)
	assert.InDelta(t, 6547.0/472, value(t, m, 2, "engagement_score"), 1e-9)
}

func TestBuild(t *testing.T) {
	scaled, scaler, err := Build(testCatalog())
	require.NoError(t, err)
	assert.Equal(t, scaled.Width(), scaler.Width())

	for j := 0; j < scaled.Width(); j++ {
		col := scaled.Col(j)
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range col {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		assert.Equal(t, 0.0, lo, "column %s reaches 0", scaled.Names[j])
		if scaler.Max[j] != scaler.Min[j] {
			assert.Equal(t, 1.0, hi, "column %s reaches 1", scaled.Names[j])
		}
	}
}

func TestMinMaxScaler(t *testing.T) {
	m := &Matrix{
		Names: []string{"a", "b", "c"},
		Rows: [][]float64{
			{1, 10, 7},
			{3, 20, 7},
			{5, 40, 7},
		},
	}

	t.Run("before fit", func(t *testing.T) {
		_, err := NewMinMaxScaler().Transform(m)
		assert.True(t, errors.Is(err, apperrors.ErrState))
		assert.True(t, errors.Is(NewMinMaxScaler().TransformVector([]float64{1, 2, 3}), apperrors.ErrState))
	})

	s := NewMinMaxScaler()
	out, err := s.FitTransform(m)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, out.Rows[0])
	assert.Equal(t, []float64{0.5, 1.0 / 3, 0}, out.Rows[1])
	assert.Equal(t, []float64{1, 1, 0}, out.Rows[2])
	assert.Equal(t, []float64{1, 10, 7}, m.Rows[0], "input is not mutated")

	t.Run("reuses fitted bounds", func(t *testing.T) {
		v := []float64{4, 30, 7}
		require.NoError(t, s.TransformVector(v))
		assert.InDelta(t, 0.75, v[0], 1e-12)
		assert.InDelta(t, 2.0/3, v[1], 1e-12)
		assert.Equal(t, 0.0, v[2])
	})

	t.Run("width mismatch", func(t *testing.T) {
		_, err := s.Transform(&Matrix{Names: []string{"a"}, Rows: [][]float64{{1}}})
		assert.True(t, errors.Is(err, apperrors.ErrState))
	})

	t.Run("empty", func(t *testing.T) {
		assert.True(t, errors.Is(NewMinMaxScaler().Fit(&Matrix{}), apperrors.ErrState))
	})
}

func TestBasic(t *testing.T) {
	m, err := Basic(testCatalog())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"rating_normalized", "popularity_normalized",
		"lang_eng", "lang_spa", "lang_fre", "lang_nl",
		"year_normalized", "author_popularity",
	}, m.Names)

	for _, row := range m.Rows {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	assert.InDelta(t, 4.27/5, value(t, m, 0, "rating_normalized"), 1e-9)
	assert.Equal(t, 1.0, value(t, m, 0, "popularity_normalized"))
	assert.Equal(t, 0.5, value(t, m, 4, "year_normalized"), "missing year is neutral")
	assert.Equal(t, 0.0, value(t, m, 5, "year_normalized"))
	assert.Equal(t, 1.0, value(t, m, 0, "author_popularity"))
	assert.InDelta(t, math.Log1p(1)/math.Log1p(2), value(t, m, 3, "author_popularity"), 1e-9)

	t.Run("no year column", func(t *testing.T) {
		c := testCatalog()
		noYear := catalog.Restore(c.Books, []string{"title", "authors"})
		m, err := Basic(noYear)
		require.NoError(t, err)
		assert.Equal(t, -1, m.Column("year_normalized"))
	})
}

func TestStats(t *testing.T) {
	assert.Equal(t, []float64{0.25, 0.625, 0.625, 1}, percentileRank([]float64{10, 20, 20, 40}))

	ranks := percentileRank([]float64{3, math.NaN(), 1})
	assert.Equal(t, 1.0, ranks[0])
	assert.True(t, math.IsNaN(ranks[1]))
	assert.Equal(t, 0.5, ranks[2])

	assert.InDelta(t, 9.1, quantile([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9), 1e-9)
	assert.Equal(t, 5.0, quantile([]float64{5}, 0.9))
	assert.True(t, math.IsNaN(quantile(nil, 0.9)))

	assert.Equal(t, "pages_short", pageBucket(0))
	assert.Equal(t, "pages_short", pageBucket(200))
	assert.Equal(t, "pages_medium", pageBucket(201))
	assert.Equal(t, "pages_long", pageBucket(600))
	assert.Equal(t, "pages_very_long", pageBucket(601))
	assert.Equal(t, "", pageBucket(math.NaN()))
}
