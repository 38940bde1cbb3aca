package catalog

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/bookrec/internal/apperrors"
)

const sampleCSV = `bookID,title,authors,average_rating,isbn,language_code,  num_pages,ratings_count,publication_date
1,Harry Potter and the Half-Blood Prince,J.K. Rowling/Mary GrandPré,4.57,0439785960,eng,652,2095690,9/16/2006
2,The Alchemist,Paulo Coelho/Alan R. Clarke,3.86,0061122416,eng,197,1631221,5/1/1993
3,Broken,Some "Author,x,y,z,w,extra,fields,more
4,Unknown Ratings,Anon,,123,,,17,2001
5,Le Petit Prince,Antoine de Saint-Exupéry,4.30,2070612759,fre,abc,905,4/6/1999
`

func newTestLoader() *Loader {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewLoader(",", logger)
}

func TestLoader_LoadReader(t *testing.T) {
	cat, err := newTestLoader().LoadReader(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// the malformed row (too many fields) is skipped
	require.Len(t, cat.Books, 4)
	assert.False(t, cat.Preprocessed())
	assert.True(t, cat.HasColumn("num_pages"), "column names are trimmed")
	assert.True(t, cat.HasColumn("id"))

	hp := cat.Books[0]
	assert.Equal(t, "1", hp.ID)
	assert.Equal(t, "J.K. Rowling/Mary GrandPré", hp.Authors)
	assert.InDelta(t, 4.57, hp.AverageRating, 1e-9)
	assert.Equal(t, 2095690, hp.Count())
	assert.InDelta(t, 2006, hp.PublicationYear, 1e-9)

	unknown := cat.Books[2]
	assert.True(t, math.IsNaN(unknown.AverageRating))
	assert.True(t, math.IsNaN(unknown.NumPages))
	assert.InDelta(t, 2001, unknown.PublicationYear, 1e-9)

	assert.True(t, math.IsNaN(cat.Books[3].NumPages), "non-numeric pages are coerced to NaN")
}

func TestLoader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := newTestLoader().Load(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := newTestLoader().LoadReader(strings.NewReader(""))
		assert.True(t, errors.Is(err, apperrors.ErrParse))
	})

	t.Run("missing title column", func(t *testing.T) {
		_, err := newTestLoader().LoadReader(strings.NewReader("authors,average_rating\nA,4\n"))
		assert.True(t, errors.Is(err, apperrors.ErrParse))
	})

	t.Run("no readable rows", func(t *testing.T) {
		_, err := newTestLoader().LoadReader(strings.NewReader("title,authors\na,b,c\nd,e,f\n"))
		assert.True(t, errors.Is(err, apperrors.ErrParse))
	})

	t.Run("load from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "books.csv")
		require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

		cat, err := newTestLoader().Load(path)
		require.NoError(t, err)
		assert.Equal(t, 4, cat.Len())
	})
}

func TestPreprocess(t *testing.T) {
	raw, err := newTestLoader().LoadReader(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	cat := Preprocess(raw)
	require.True(t, cat.Preprocessed())
	assert.False(t, raw.Preprocessed(), "input catalog is not mutated")

	assert.Equal(t, "J.K. Rowling", cat.Books[0].PrimaryAuthor)
	assert.Equal(t, RatingVeryHigh, cat.Books[0].RatingCategory)
	assert.Equal(t, RatingHigh, cat.Books[1].RatingCategory)

	unknown := cat.Books[2]
	assert.Equal(t, RatingUnknown, unknown.RatingCategory)
	assert.Equal(t, DefaultLanguage, unknown.LanguageCode)
	// median of 652 and 197
	assert.InDelta(t, 424.5, unknown.NumPages, 1e-9)
	assert.InDelta(t, 424.5, cat.Books[3].NumPages, 1e-9)

	t.Run("idempotent", func(t *testing.T) {
		again := Preprocess(cat)
		require.Len(t, again.Books, len(cat.Books))
		for i := range cat.Books {
			assert.Equal(t, cat.Books[i].PrimaryAuthor, again.Books[i].PrimaryAuthor)
			assert.Equal(t, cat.Books[i].RatingCategory, again.Books[i].RatingCategory)
			assert.Equal(t, cat.Books[i].LanguageCode, again.Books[i].LanguageCode)
			assert.Equal(t, cat.Books[i].NumPages, again.Books[i].NumPages)
		}
	})
}

func TestCategorizeRating(t *testing.T) {
	tests := []struct {
		rating   float64
		expected RatingCategory
	}{
		{0, RatingVeryLow},
		{1.0, RatingVeryLow},
		{1.01, RatingLow},
		{2.0, RatingLow},
		{2.5, RatingMedium},
		{3.0, RatingMedium},
		{3.99, RatingHigh},
		{4.0, RatingHigh},
		{4.01, RatingVeryHigh},
		{5.0, RatingVeryHigh},
		{math.NaN(), RatingUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CategorizeRating(tt.rating), "rating %v", tt.rating)
	}

	t.Run("total and exclusive over [0,5]", func(t *testing.T) {
		for r := 0.0; r <= 5.0; r += 0.01 {
			c := CategorizeRating(r)
			_, ok := ParseRatingCategory(string(c))
			assert.True(t, ok)
			assert.NotEqual(t, RatingUnknown, c)
		}
	})
}

func TestPrimaryAuthor(t *testing.T) {
	assert.Equal(t, "Neil Gaiman", PrimaryAuthor(" Neil Gaiman / Terry Pratchett"))
	assert.Equal(t, "Solo", PrimaryAuthor("Solo"))
	assert.Equal(t, UnknownAuthor, PrimaryAuthor(""))
}

func TestInfo(t *testing.T) {
	raw, err := newTestLoader().LoadReader(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	info := Info(Preprocess(raw))
	assert.Equal(t, 4, info.TotalBooks)
	assert.Equal(t, 4, info.UniqueAuthors)
	assert.Equal(t, 3, info.Languages["eng"])
	assert.Equal(t, 1, info.Languages["fre"])
	assert.Equal(t, 1, info.RatingDistribution["unknown"])
	assert.InDelta(t, 3.86, info.AvgRatingRange.Min, 1e-9)
	assert.InDelta(t, 4.57, info.AvgRatingRange.Max, 1e-9)
}
