package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.RecordBuild("full", time.Second, nil)
	c.RecordBuild("full", time.Second, errors.New("boom"))
	c.RecordQuery("similar_by_title", time.Millisecond, nil)
	c.SetCatalogSize(42)
	c.SetSentimentVariant("lexicon", "learned", "lexicon")
	c.RecordCacheOperation("get", "miss")
	c.RecordEvent("model.built", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.builds.WithLabelValues("full", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.builds.WithLabelValues("full", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.queries.WithLabelValues("similar_by_title", "success")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.catalogBooks))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sentimentVariant.WithLabelValues("lexicon")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.sentimentVariant.WithLabelValues("learned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheOperations.WithLabelValues("get", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventsPublished.WithLabelValues("model.built", "success")))

	t.Run("second registration reuses collectors", func(t *testing.T) {
		again, err := New(reg)
		require.NoError(t, err)
		again.SetCatalogSize(7)
		assert.Equal(t, 7.0, testutil.ToFloat64(c.catalogBooks))
	})
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordBuild("basic", time.Second, nil)
		c.RecordQuery("popular", time.Second, nil)
		c.SetCatalogSize(1)
		c.SetSentimentVariant("learned")
		c.RecordCacheOperation("get", "hit")
		c.RecordEvent("model.built", nil)
	})
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	router := gin.New()
	router.Use(c.HTTPMiddleware())
	router.GET("/ping", func(ctx *gin.Context) { ctx.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("GET", "/ping", "200")))
}
