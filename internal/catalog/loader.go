// Package catalog loads the tabular book catalog and derives the columns the
// feature pipeline depends on.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/apperrors"
)

// Catalog is an ordered set of books. Feature work requires a preprocessed catalog.
type Catalog struct {
	Books        []Book
	Columns      []string
	preprocessed bool
}

// Preprocessed reports whether Preprocess produced this catalog.
func (c *Catalog) Preprocessed() bool {
	return c != nil && c.preprocessed
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Books)
}

// HasColumn reports whether the source file carried the normalized column name.
func (c *Catalog) HasColumn(name string) bool {
	for _, col := range c.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Restore rebuilds a preprocessed catalog from persisted rows.
func Restore(books []Book, columns []string) *Catalog {
	return &Catalog{Books: books, Columns: columns, preprocessed: true}
}

// Loader reads delimited book files.
type Loader struct {
	delimiter rune
	logger    *logrus.Logger
}

func NewLoader(delimiter string, logger *logrus.Logger) *Loader {
	d := ','
	if delimiter != "" {
		d = []rune(delimiter)[0]
	}
	return &Loader{delimiter: d, logger: logger}
}

// Load reads the catalog file at path. Malformed rows are skipped.
func (l *Loader) Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NotFound("books file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open books file: %w", err)
	}
	defer f.Close()

	cat, err := l.LoadReader(f)
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"path":    path,
		"books":   cat.Len(),
		"columns": cat.Columns,
	}).Info("Loaded book catalog")

	return cat, nil
}

// LoadReader parses a catalog from r.
func (l *Loader) LoadReader(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Parse(err, "books file is empty")
		}
		return nil, apperrors.Parse(err, "failed to read header")
	}

	columns := normalizeColumns(header)
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	if _, ok := index["title"]; !ok {
		return nil, apperrors.Parse(nil, "required column %q missing", "title")
	}

	cat := &Catalog{Columns: columns}
	skipped := 0
	line := 1

	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			l.logger.WithError(err).WithField("line", line).Debug("Skipping unreadable row")
			continue
		}
		if len(record) != len(columns) {
			skipped++
			l.logger.WithFields(logrus.Fields{
				"line":     line,
				"expected": len(columns),
				"got":      len(record),
			}).Debug("Skipping malformed row")
			continue
		}

		cat.Books = append(cat.Books, parseRow(record, index, len(cat.Books)))
	}

	if len(cat.Books) == 0 && skipped > 0 {
		return nil, apperrors.Parse(nil, "no readable rows (%d skipped)", skipped)
	}
	if skipped > 0 {
		l.logger.WithField("skipped", skipped).Warn("Skipped malformed catalog rows")
	}

	return cat, nil
}

func normalizeColumns(header []string) []string {
	columns := make([]string, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if name == "bookid" {
			name = "id"
		}
		columns[i] = name
	}
	return columns
}

func parseRow(record []string, index map[string]int, row int) Book {
	field := func(name string) (string, bool) {
		i, ok := index[name]
		if !ok {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	book := Book{
		AverageRating:   math.NaN(),
		RatingsCount:    math.NaN(),
		NumPages:        math.NaN(),
		PublicationYear: math.NaN(),
		SentimentScore:  NeutralSentiment,
	}

	if id, ok := field("id"); ok && id != "" {
		book.ID = id
	} else {
		book.ID = strconv.Itoa(row)
	}
	book.Title, _ = field("title")
	book.Authors, _ = field("authors")
	book.LanguageCode, _ = field("language_code")

	if v, ok := field("average_rating"); ok {
		book.AverageRating = coerceFloat(v)
	}
	if v, ok := field("ratings_count"); ok {
		book.RatingsCount = coerceFloat(v)
	}
	if v, ok := field("num_pages"); ok {
		book.NumPages = coerceFloat(v)
	}
	if v, ok := field("publication_year"); ok {
		book.PublicationYear = coerceFloat(v)
	} else if v, ok := field("publication_date"); ok {
		book.PublicationYear = parseYear(v)
	}

	return book
}

// coerceFloat parses v, returning NaN for anything non-numeric or infinite.
func coerceFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// parseYear extracts a year from dates like "9/16/2006" or "2006-09-16".
func parseYear(v string) float64 {
	parts := strings.Split(v, "/")
	if last := strings.TrimSpace(parts[len(parts)-1]); len(parts) == 3 && len(last) == 4 {
		return coerceFloat(last)
	}
	if m := yearPattern.FindString(v); m != "" {
		return coerceFloat(m)
	}
	return math.NaN()
}

// Preprocess derives primary_author and rating_category, imputes missing
// language and page counts, and returns a new preprocessed catalog. Applying it
// to an already preprocessed catalog yields the same rows.
func Preprocess(c *Catalog) *Catalog {
	out := &Catalog{
		Books:        make([]Book, len(c.Books)),
		Columns:      append([]string(nil), c.Columns...),
		preprocessed: true,
	}
	copy(out.Books, c.Books)

	var pages []float64
	for _, b := range out.Books {
		if !math.IsNaN(b.NumPages) {
			pages = append(pages, b.NumPages)
		}
	}
	medianPages := median(pages)

	for i := range out.Books {
		b := &out.Books[i]
		b.PrimaryAuthor = PrimaryAuthor(b.Authors)
		b.RatingCategory = CategorizeRating(b.AverageRating)
		if b.LanguageCode == "" {
			b.LanguageCode = DefaultLanguage
		}
		if math.IsNaN(b.NumPages) {
			b.NumPages = medianPages
		}
	}

	return out
}

// PrimaryAuthor returns the first author of a "/"-delimited author string.
func PrimaryAuthor(authors string) string {
	first := strings.TrimSpace(strings.Split(authors, "/")[0])
	if first == "" {
		return UnknownAuthor
	}
	return first
}

// median returns the middle value, averaging the two central values for even
// lengths, or NaN for empty input.
func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
