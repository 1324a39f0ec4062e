package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/service"
	"github.com/creatorly/billing-service/pkg/logger"
)

// CheckoutHandler обрабатывает создание платежных сессий
type CheckoutHandler struct {
	checkout service.CheckoutService
	log      *logger.Logger
}

// NewCheckoutHandler создает новый обработчик чекаута
func NewCheckoutHandler(checkout service.CheckoutService, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, log: log}
}

// CreateCheckout создает сессию оплаты подписки в Asaas и возвращает ссылку
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	url, err := h.checkout.CreateCheckout(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("Failed to create checkout for user %s: %v", req.UserID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout_url": url})
}
