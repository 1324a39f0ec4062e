package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/integration/asaas"
	"github.com/creatorly/billing-service/internal/metrics"
	"github.com/creatorly/billing-service/internal/service"
	"github.com/creatorly/billing-service/pkg/logger"
)

// WebhookHandler обрабатывает входящие вебхуки от Asaas
type WebhookHandler struct {
	verifier   *asaas.WebhookVerifier
	normalizer *asaas.Normalizer
	reconciler service.Reconciler
	audit      service.AuditLogger
	metrics    metrics.WebhookMetrics
	log        *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(
	verifier *asaas.WebhookVerifier,
	normalizer *asaas.Normalizer,
	reconciler service.Reconciler,
	audit service.AuditLogger,
	m metrics.WebhookMetrics,
	log *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		normalizer: normalizer,
		reconciler: reconciler,
		audit:      audit,
		metrics:    m,
		log:        log,
	}
}

// HandleAsaasWebhook принимает событие от платежного провайдера,
// проверяет токен, нормализует payload и запускает сверку подписки.
func (h *WebhookHandler) HandleAsaasWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Error("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if err := h.verifier.Verify(c.Request.Header); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Não autorizado."})
		return
	}

	event, err := h.normalizer.Normalize(body)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedPayload) {
			h.log.Warn("Malformed webhook payload: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}

		// Событие получено, но сопоставить его с пользователем нельзя.
		// Провайдеру возвращаем 200, чтобы он не ретраил, а сам факт
		// фиксируем в журнале вебхуков.
		h.metrics.IncEventReceived(string(event.Kind))
		h.audit.Record(event.RawEventType, body, event.CustomerID, event.Amount, false)

		switch {
		case errors.Is(err, domain.ErrPayloadWithoutPayment):
			h.log.Warn("Webhook event %s has no payment object, ignoring", event.RawEventType)
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "event without payment ignored"})
		case errors.Is(err, domain.ErrMissingUserReference), errors.Is(err, domain.ErrMissingPlanInfo):
			h.log.Warn("Webhook event %s could not be matched to a user: %v", event.RawEventType, err)
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "event not matched to a user"})
		default:
			h.log.Error("Failed to normalize webhook event: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		}
		return
	}

	h.metrics.IncEventReceived(string(event.Kind))

	if event.Kind == domain.EventKindUnhandled {
		h.log.Info("Ignoring unhandled webhook event type: %s", event.RawEventType)
		h.audit.Record(event.RawEventType, body, event.CustomerID, event.Amount, true)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "event type ignored"})
		return
	}

	h.audit.Record(event.RawEventType, body, event.CustomerID, event.Amount, true)

	if err := h.reconciler.Reconcile(c.Request.Context(), event); err != nil {
		h.log.Error("Reconciliation failed for event %s (user %s): %v", event.RawEventType, event.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to process webhook",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
