package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/integration/asaas"
	"github.com/creatorly/billing-service/internal/metrics"
	"github.com/creatorly/billing-service/pkg/logger"
)

const testWebhookToken = "test-webhook-token"

func testLogger() *logger.Logger {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return log
}

// fakeReconciler фиксирует вызовы движка сверки
type fakeReconciler struct {
	events []domain.NormalizedEvent
	err    error
}

func (f *fakeReconciler) Reconcile(ctx context.Context, event domain.NormalizedEvent) error {
	f.events = append(f.events, event)
	return f.err
}

// fakeAudit синхронная запись журнала для проверок в тестах
type fakeAudit struct {
	eventTypes []string
	successes  []bool
}

func (f *fakeAudit) Record(eventType string, rawPayload []byte, customerID string, amount float64, isSuccess bool) {
	f.eventTypes = append(f.eventTypes, eventType)
	f.successes = append(f.successes, isSuccess)
}

func setupWebhookRouter(rec *fakeReconciler, audit *fakeAudit) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := testLogger()

	handler := NewWebhookHandler(
		asaas.NewWebhookVerifier(testWebhookToken, log),
		asaas.NewNormalizer(log),
		rec,
		audit,
		metrics.NoOpWebhookMetrics{},
		log,
	)

	r := gin.New()
	r.POST("/webhooks/asaas", handler.HandleAsaasWebhook)
	return r
}

func postWebhook(r *gin.Engine, token string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/asaas", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("asaas-access-token", token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleWebhookRejectsInvalidToken(t *testing.T) {
	rec := &fakeReconciler{}
	audit := &fakeAudit{}
	r := setupWebhookRouter(rec, audit)

	w := postWebhook(r, "wrong-token", `{"event": "PAYMENT_CONFIRMED"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// Неавторизованная доставка не оставляет следов ни в состоянии, ни в журнале
	assert.Empty(t, rec.events)
	assert.Empty(t, audit.eventTypes)
}

func TestHandleWebhookRejectsMissingToken(t *testing.T) {
	rec := &fakeReconciler{}
	audit := &fakeAudit{}
	r := setupWebhookRouter(rec, audit)

	w := postWebhook(r, "", `{"event": "PAYMENT_CONFIRMED"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, rec.events)
}

func TestHandleWebhookMalformedBody(t *testing.T) {
	rec := &fakeReconciler{}
	audit := &fakeAudit{}
	r := setupWebhookRouter(rec, audit)

	w := postWebhook(r, testWebhookToken, `{not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rec.events)
}

func TestHandleWebhookUnmatchedEventIsAcceptedAndLogged(t *testing.T) {
	rec := &fakeReconciler{}
	audit := &fakeAudit{}
	r := setupWebhookRouter(rec, audit)

	// Платеж без externalReference нельзя сопоставить с пользователем
	w := postWebhook(r, testWebhookToken, `{
		"event": "PAYMENT_CONFIRMED",
		"payment": {"id": "pay_123", "customer": "cus_456", "value": 49.90}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, rec.events)

	require.Len(t, audit.eventTypes, 1)
	assert.Equal(t, "PAYMENT_CONFIRMED", audit.eventTypes[0])
	assert.False(t, audit.successes[0])
}

func TestHandleWebhookConfirmedPayment(t *testing.T) {
	rec := &fakeReconciler{}
	audit := &fakeAudit{}
	r := setupWebhookRouter(rec, audit)

	w := postWebhook(r, testWebhookToken, `{
		"event": "PAYMENT_CONFIRMED",
		"payment": {
			"id": "pay_123",
			"customer": "cus_456",
			"value": 49.90,
			"externalReference": "user-42",
			"items": [{"description": "{\"plan\":\"pro\",\"cycle\":\"monthly\"}"}]
		}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())

	require.Len(t, rec.events, 1)
	assert.Equal(t, "user-42", rec.events[0].UserID)
	assert.Equal(t, domain.PlanPro, rec.events[0].Plan)

	require.Len(t, audit.successes, 1)
	assert.True(t, audit.successes[0])
}

func TestHandleWebhookUserNotFoundReturns500(t *testing.T) {
	rec := &fakeReconciler{err: domain.ErrUserNotFound}
	audit := &fakeAudit{}
	r := setupWebhookRouter(rec, audit)

	// 500 заставит провайдера ретраить доставку, пока пользователь не появится
	w := postWebhook(r, testWebhookToken, `{
		"event": "PAYMENT_CONFIRMED",
		"payment": {
			"id": "pay_123",
			"customer": "cus_456",
			"value": 49.90,
			"externalReference": "user-42",
			"items": [{"description": "{\"plan\":\"pro\",\"cycle\":\"monthly\"}"}]
		}
	}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, rec.events, 1)
}

func TestHandleWebhookUnhandledEventType(t *testing.T) {
	rec := &fakeReconciler{}
	audit := &fakeAudit{}
	r := setupWebhookRouter(rec, audit)

	w := postWebhook(r, testWebhookToken, `{
		"event": "PAYMENT_CREATED",
		"payment": {"id": "pay_123", "customer": "cus_456", "value": 49.90}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, rec.events)

	require.Len(t, audit.successes, 1)
	assert.True(t, audit.successes[0])
}
