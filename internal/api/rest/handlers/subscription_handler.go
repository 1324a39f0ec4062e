package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/repository"
	"github.com/creatorly/billing-service/internal/service"
	"github.com/creatorly/billing-service/pkg/logger"
)

// SubscriptionHandler отдает состояние подписки и историю платежей
type SubscriptionHandler struct {
	subscriptions service.SubscriptionService
	webhookLogs   repository.WebhookLogRepository
	log           *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(
	subscriptions service.SubscriptionService,
	webhookLogs repository.WebhookLogRepository,
	log *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		webhookLogs:   webhookLogs,
		log:           log,
	}
}

// GetStatus возвращает текущее состояние подписки пользователя.
// Дашборд опрашивает этот эндпоинт после оплаты, пока вебхук не подтвердит платеж.
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	userID := c.Param("userId")

	view, err := h.subscriptions.GetStatus(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.log.Error("Failed to get subscription status for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get subscription status"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetPaymentHistory возвращает историю платежей пользователя
func (h *SubscriptionHandler) GetPaymentHistory(c *gin.Context) {
	userID := c.Param("userId")

	entries, err := h.subscriptions.GetPaymentHistory(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.log.Error("Failed to get payment history for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get payment history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": entries})
}

// GetWebhookLogs возвращает журнал полученных вебхуков с пагинацией
func (h *SubscriptionHandler) GetWebhookLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	logs, err := h.webhookLogs.GetAll(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error("Failed to get webhook logs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get webhook logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "limit": limit, "offset": offset})
}
