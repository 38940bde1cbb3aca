package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/metrics"
)

const (
	CacheHeader = "X-Cache"

	defaultCacheTTL = 5 * time.Minute
)

// CacheConfig represents cache configuration
type CacheConfig struct {
	DefaultTTL time.Duration
	MaxSize    int64
	KeyPrefix  string
	SkipPaths  []string
}

// VersionFunc names the data a response was computed from. Responses are only
// cached while it is non-empty, and a new version misses every old entry.
type VersionFunc func() string

type cachedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// ResponseCache serves repeated GET requests from redis. Redis failures never
// fail the request.
func ResponseCache(client *redis.Client, cfg CacheConfig, version VersionFunc, m *metrics.Collector, logger *logrus.Logger) gin.HandlerFunc {
	if client == nil {
		logger.Info("Redis client not configured, response caching disabled")
		return func(c *gin.Context) { c.Next() }
	}

	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || skipCaching(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}
		v := version()
		if v == "" {
			c.Next()
			return
		}

		key := cacheKey(cfg.KeyPrefix, v, c.Request)
		ctx := c.Request.Context()

		data, err := client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var resp cachedResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				m.RecordCacheOperation("get", "hit")
				c.Header(CacheHeader, "HIT")
				c.Data(resp.StatusCode, resp.ContentType, resp.Body)
				c.Abort()
				return
			}
			m.RecordCacheOperation("get", "corrupt")
		case errors.Is(err, redis.Nil):
			m.RecordCacheOperation("get", "miss")
		default:
			m.RecordCacheOperation("get", "error")
			logger.WithError(err).Debug("Response cache lookup failed")
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Header(CacheHeader, "MISS")

		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 || len(writer.body) == 0 {
			return
		}
		if cfg.MaxSize > 0 && int64(len(writer.body)) > cfg.MaxSize {
			logger.WithFields(logrus.Fields{
				"size":     len(writer.body),
				"max_size": cfg.MaxSize,
			}).Debug("Response too large to cache")
			return
		}

		payload, err := json.Marshal(cachedResponse{
			StatusCode:  status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body,
		})
		if err != nil {
			return
		}
		if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
			m.RecordCacheOperation("set", "error")
			logger.WithError(err).WithField("cache_key", key).Warn("Failed to cache response")
			return
		}
		m.RecordCacheOperation("set", "success")
	}
}

// captureWriter keeps a copy of the body written downstream.
type captureWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *captureWriter) Write(data []byte) (int, error) {
	w.body = append(w.body, data...)
	return w.ResponseWriter.Write(data)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body = append(w.body, s...)
	return w.ResponseWriter.WriteString(s)
}

func cacheKey(prefix, version string, r *http.Request) string {
	sum := sha256.Sum256([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return prefix + ":" + version + ":" + hex.EncodeToString(sum[:12])
}

func skipCaching(path string, skip []string) bool {
	for _, p := range skip {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
