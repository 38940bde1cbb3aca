package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/pkg/models"
)

const testCatalog = `bookID,title,authors,average_rating,language_code,num_pages,ratings_count
1,The Alchemist,Paulo Coelho,3.88,eng,197,1631221
2,Harry Potter and the Sorcerer's Stone,J.K. Rowling,4.47,eng,309,4602479
3,The Hobbit,J.R.R. Tolkien,4.27,eng,366,2530894
4,Siddhartha,Hermann Hesse,4.00,eng,152,395000
5,Murder on the Orient Express,Agatha Christie,4.18,eng,265,651000
6,Dracula,Bram Stoker,3.99,eng,488,830000
7,Pride and Prejudice,Jane Austen,4.26,eng,279,2500000
8,Don Quijote,Miguel de Cervantes,3.87,spa,1056,2000
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "books.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))

	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Catalog.Path = path
	cfg.Sentiment.Disabled = true
	cfg.Store.Path = filepath.Join(dir, "model.snapshot")
	return cfg
}

func TestApp_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)

	application, err := New(cfg)
	require.NoError(t, err)
	defer application.Shutdown(context.Background())

	router := application.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/genres", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var genres models.GenreList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &genres))
	assert.Equal(t, 10, genres.Count)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/books/similar?title=The+Alchemist&count=3", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var similar models.SimilarBooksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &similar))
	assert.Equal(t, 3, similar.Count)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/model", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info models.ModelInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "full", info.Mode)
	assert.Equal(t, 8, info.Books)

	_, err = os.Stat(cfg.Store.Path)
	assert.NoError(t, err, "full snapshot persisted")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewCore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "badger"
	cfg.Store.BadgerDir = filepath.Join(t.TempDir(), "badger")

	core, err := NewCore(cfg, SetupLogger(cfg), prometheus.NewRegistry())
	require.NoError(t, err)
	assert.NotNil(t, core.Metrics)

	info, err := core.Engine.Warm()
	require.NoError(t, err)
	assert.Equal(t, 8, info.Books)
	require.NoError(t, core.Close())

	cfg.Store.Backend = "s3"
	_, err = NewCore(cfg, SetupLogger(cfg), nil)
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "bogus"
	cfg.Logging.Format = "json"
	logger := SetupLogger(cfg)
	assert.Equal(t, "info", logger.GetLevel().String())
}
