package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/pkg/models"
)

type GenreHandler struct {
	engine   Recommender
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewGenreHandler(engine Recommender, v *validator.Validate, logger *logrus.Logger) *GenreHandler {
	return &GenreHandler{
		engine:   engine,
		validate: v,
		logger:   logger,
	}
}

func (h *GenreHandler) Recommend(c *gin.Context) {
	req := models.GenreRequest{
		Count:           6,
		MinRating:       3.5,
		MinRatingsCount: 100,
	}
	if err := bindQuery(c, h.validate, &req); err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	titles, err := h.engine.RecommendByGenre(req.Genre, req.Count, req.MinRating, req.MinRatingsCount)
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate recommendations")
		return
	}

	resp := models.GenreRecommendationResponse{
		Genre:           req.Genre,
		Recommendations: titles,
		Count:           len(titles),
	}
	if len(titles) == 0 {
		resp.Message = fmt.Sprintf("No books found for genre '%s'. See /api/v1/genres for available genres.", req.Genre)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GenreHandler) List(c *gin.Context) {
	genres := h.engine.AvailableGenres()
	c.JSON(http.StatusOK, models.GenreList{
		Genres: genres,
		Count:  len(genres),
	})
}

func (h *GenreHandler) Info(c *gin.Context) {
	info, err := h.engine.GenreInfo(c.Param("genre"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch genre info")
		return
	}
	c.JSON(http.StatusOK, info)
}
