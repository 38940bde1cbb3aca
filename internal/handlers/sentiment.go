package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/pkg/models"
)

type sentimentRequest struct {
	Text string `form:"text" validate:"required,max=10000"`
}

type SentimentHandler struct {
	engine   Recommender
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewSentimentHandler(engine Recommender, v *validator.Validate, logger *logrus.Logger) *SentimentHandler {
	return &SentimentHandler{
		engine:   engine,
		validate: v,
		logger:   logger,
	}
}

func (h *SentimentHandler) Analyze(c *gin.Context) {
	var req sentimentRequest
	if err := bindQuery(c, h.validate, &req); err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusOK, models.SentimentResponse{
		Text:      req.Text,
		Sentiment: h.engine.AnalyzeSentiment(req.Text),
	})
}
