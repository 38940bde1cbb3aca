package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/internal/index"
	"github.com/temcen/bookrec/pkg/models"
)

// Recommender is the query surface the HTTP layer depends on.
type Recommender interface {
	Ready() bool
	SnapshotID() string

	RecommendByGenre(genre string, count int, minRating float64, minRatingsCount int) ([]string, error)
	SearchByText(query string, limit int) ([]models.BookSummary, error)
	SimilarByTitle(title string, count int) ([]models.BookSummary, error)
	PopularByFilter(f index.Filter) ([]models.BookSummary, error)
	RecommendByPreferences(p models.Preferences) ([]models.BookSummary, error)
	AnalyzeSentiment(text string) models.SentimentResult
	GenreInfo(genre string) (models.GenreInfo, error)
	AvailableGenres() []string
	CatalogInfo() (models.CatalogInfo, error)

	ModelInfo() (models.ModelInfo, error)
	Retrain() (models.ModelInfo, error)
}

type Handlers struct {
	Health    *HealthHandler
	Books     *BookHandler
	Genres    *GenreHandler
	Sentiment *SentimentHandler
	Admin     *AdminHandler
}

func New(engine Recommender, logger *logrus.Logger) *Handlers {
	v := validator.New()
	return &Handlers{
		Health:    NewHealthHandler(engine, logger),
		Books:     NewBookHandler(engine, v, logger),
		Genres:    NewGenreHandler(engine, v, logger),
		Sentiment: NewSentimentHandler(engine, v, logger),
		Admin:     NewAdminHandler(engine, logger),
	}
}

// respondError writes the error envelope. Internal errors are logged and their
// detail withheld from the caller.
func respondError(c *gin.Context, logger *logrus.Logger, err error, message string) {
	code := apperrors.CodeOf(err)
	body := gin.H{"code": code, "message": err.Error()}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Details != nil {
		body["details"] = appErr.Details
	}

	switch code {
	case apperrors.CodeInternal, apperrors.CodeModelUnavailable:
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error(message)
		body["message"] = message
	}

	c.JSON(code.HTTPStatus(), gin.H{"error": body})
}

// bindError converts gin binding and validator failures into a validation error.
func bindError(err error) *apperrors.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("invalid request: %v", err)
	}

	fields := make(map[string]string, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		fields[name] = fmt.Sprintf("failed '%s' validation", fe.Tag())
		names = append(names, name)
	}
	return apperrors.Validation("invalid parameters: %s", strings.Join(names, ", ")).WithDetails(fields)
}

func bindQuery(c *gin.Context, v *validator.Validate, req any) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return bindError(err)
	}
	if err := v.Struct(req); err != nil {
		return bindError(err)
	}
	return nil
}
