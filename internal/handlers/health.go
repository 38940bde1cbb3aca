package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const apiVersion = "2.0.0"

type HealthHandler struct {
	engine Recommender
	logger *logrus.Logger
}

func NewHealthHandler(engine Recommender, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		engine: engine,
		logger: logger,
	}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Book Recommender API",
		"version": apiVersion,
		"endpoints": gin.H{
			"/api/v1/recommend":             "Get book recommendations by genre",
			"/api/v1/genres":                "List available genres",
			"/api/v1/search":                "Search for books by title or author",
			"/api/v1/books/similar":         "Get similar books based on a book title",
			"/api/v1/books/popular":         "Get popular books with optional filters",
			"/api/v1/recommend/preferences": "Get recommendations from reader preferences",
			"/api/v1/sentiment":             "Analyze the sentiment of a text",
			"/api/v1/analytics":             "Catalog statistics",
		},
	})
}

// Check reports liveness. A model that has not been built yet is not a failure:
// it is built on the first query.
func (h *HealthHandler) Check(c *gin.Context) {
	status := "starting"
	if h.engine.Ready() {
		status = "healthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"model_loaded": h.engine.Ready(),
		"snapshot_id":  h.engine.SnapshotID(),
		"version":      apiVersion,
	})
}
