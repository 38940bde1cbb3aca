package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/index"
	"github.com/temcen/bookrec/pkg/models"
)

type searchRequest struct {
	Query string `form:"q" validate:"required,max=256"`
	Limit int    `form:"limit" validate:"min=1,max=100"`
}

type similarRequest struct {
	Title string `form:"title" validate:"required,max=512"`
	Count int    `form:"count" validate:"min=1,max=50"`
}

type BookHandler struct {
	engine   Recommender
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewBookHandler(engine Recommender, v *validator.Validate, logger *logrus.Logger) *BookHandler {
	return &BookHandler{
		engine:   engine,
		validate: v,
		logger:   logger,
	}
}

func (h *BookHandler) Search(c *gin.Context) {
	req := searchRequest{Limit: 10}
	if err := bindQuery(c, h.validate, &req); err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	books, err := h.engine.SearchByText(req.Query, req.Limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to search books")
		return
	}

	c.JSON(http.StatusOK, models.SearchResponse{
		Query: req.Query,
		Books: books,
		Count: len(books),
	})
}

func (h *BookHandler) Similar(c *gin.Context) {
	req := similarRequest{Count: 5}
	if err := bindQuery(c, h.validate, &req); err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	books, err := h.engine.SimilarByTitle(req.Title, req.Count)
	if err != nil {
		respondError(c, h.logger, err, "Failed to find similar books")
		return
	}

	c.JSON(http.StatusOK, models.SimilarBooksResponse{
		Title:        req.Title,
		SimilarBooks: books,
		Count:        len(books),
	})
}

func (h *BookHandler) Popular(c *gin.Context) {
	req := models.PopularFilter{
		MinRatings: index.DefaultMinRatings,
		Limit:      index.DefaultPopularLimit,
	}
	if err := bindQuery(c, h.validate, &req); err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	books, err := h.engine.PopularByFilter(index.Filter{
		RatingCategory: req.RatingCategory,
		Language:       req.Language,
		MinRatings:     req.MinRatings,
		Limit:          req.Limit,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch popular books")
		return
	}

	c.JSON(http.StatusOK, models.PopularBooksResponse{
		PopularBooks: books,
		Count:        len(books),
		Filters:      req,
	})
}

func (h *BookHandler) Preferences(c *gin.Context) {
	var prefs models.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		respondError(c, h.logger, bindError(err), "")
		return
	}
	if err := h.validate.Struct(prefs); err != nil {
		respondError(c, h.logger, bindError(err), "")
		return
	}

	books, err := h.engine.RecommendByPreferences(prefs)
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate preference-based recommendations")
		return
	}

	c.JSON(http.StatusOK, models.PreferenceResponse{
		Preferences:     prefs,
		Recommendations: books,
		Count:           len(books),
	})
}

func (h *BookHandler) Analytics(c *gin.Context) {
	info, err := h.engine.CatalogInfo()
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch analytics")
		return
	}
	c.JSON(http.StatusOK, info)
}
