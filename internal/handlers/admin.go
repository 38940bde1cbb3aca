package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	engine Recommender
	logger *logrus.Logger
}

func NewAdminHandler(engine Recommender, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		engine: engine,
		logger: logger,
	}
}

// Retrain rebuilds the model synchronously and reports the new snapshot.
func (h *AdminHandler) Retrain(c *gin.Context) {
	info, err := h.engine.Retrain()
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrain model")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"snapshot_id": info.SnapshotID,
		"mode":        info.Mode,
		"books":       info.Books,
	}).Info("Model retrained via admin API")

	c.JSON(http.StatusOK, info)
}

func (h *AdminHandler) Model(c *gin.Context) {
	info, err := h.engine.ModelInfo()
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch model info")
		return
	}
	c.JSON(http.StatusOK, info)
}
