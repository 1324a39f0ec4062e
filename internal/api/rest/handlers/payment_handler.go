package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/creatorly/billing-service/internal/integration/asaas"
	"github.com/creatorly/billing-service/pkg/logger"
)

// PixProvider получает данные PIX QR-кода у платежного провайдера
type PixProvider interface {
	GetPixQRCode(ctx context.Context, paymentID string) (*asaas.PixQRCodeResponse, error)
}

// PaymentHandler обрабатывает запросы по отдельным платежам
type PaymentHandler struct {
	provider PixProvider
	log      *logger.Logger
}

// NewPaymentHandler создает новый обработчик платежей
func NewPaymentHandler(provider PixProvider, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{provider: provider, log: log}
}

// GetPixQRCode возвращает QR-код PIX для платежа, чтобы фронтенд мог показать его сразу после чекаута
func (h *PaymentHandler) GetPixQRCode(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment id is required"})
		return
	}

	qr, err := h.provider.GetPixQRCode(c.Request.Context(), paymentID)
	if err != nil {
		h.log.Error("Failed to get PIX QR code for payment %s: %v", paymentID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to get PIX QR code"})
		return
	}

	c.JSON(http.StatusOK, qr)
}
