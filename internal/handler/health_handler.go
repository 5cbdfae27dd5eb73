package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/repository"
	"grouplink-go/response"
)

type HealthHandler struct {
	store  *repository.Store
	logger *zap.Logger
}

func NewHealthHandler(store *repository.Store, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Error("Database ping failed", zap.Error(err))
		_ = c.Error(apperrors.SystemError(err))
		return
	}
	c.JSON(http.StatusOK, response.OK("ok", "success"))
}
