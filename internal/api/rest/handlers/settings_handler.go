package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/service"
	"github.com/creatorly/billing-service/pkg/logger"
)

// SettingsHandler обрабатывает действия со страницы настроек
type SettingsHandler struct {
	settings service.SettingsService
	log      *logger.Logger
}

// NewSettingsHandler создает новый обработчик настроек
func NewSettingsHandler(settings service.SettingsService, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, log: log}
}

// ResetLastSync сбрасывает отметку последней синхронизации метрик пользователя
func (h *SettingsHandler) ResetLastSync(c *gin.Context) {
	userID := c.Param("userId")

	if err := h.settings.ResetLastSync(c.Request.Context(), userID); err != nil {
		h.log.Error("Failed to reset last sync for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset last sync"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResetMetrics очищает кэшированные социальные метрики пользователя
func (h *SettingsHandler) ResetMetrics(c *gin.Context) {
	userID := c.Param("userId")

	if err := h.settings.ResetAllMetrics(c.Request.Context(), userID); err != nil {
		h.log.Error("Failed to reset metrics for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CancelSubscription отменяет подписку пользователя у провайдера
func (h *SettingsHandler) CancelSubscription(c *gin.Context) {
	userID := c.Param("userId")

	err := h.settings.CancelSubscription(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("Failed to cancel subscription for user %s: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel subscription"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReactivateSubscription возобновляет подписку пользователя у провайдера
func (h *SettingsHandler) ReactivateSubscription(c *gin.Context) {
	userID := c.Param("userId")

	err := h.settings.ReactivateSubscription(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("Failed to reactivate subscription for user %s: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reactivate subscription"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
