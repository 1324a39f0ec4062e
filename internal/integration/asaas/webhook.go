package asaas

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/pkg/logger"
)

// Заголовок, в котором Asaas передает пре-шаред токен вебхука
const webhookTokenHeader = "asaas-access-token"

// WebhookVerifier проверяет подлинность входящих вебхуков Asaas
type WebhookVerifier struct {
	token string
	log   *logger.Logger
}

// NewWebhookVerifier создает новый верификатор вебхуков
func NewWebhookVerifier(token string, log *logger.Logger) *WebhookVerifier {
	return &WebhookVerifier{
		token: token,
		log:   log,
	}
}

// Verify сравнивает токен из заголовка с настроенным секретом.
// Закрыт по умолчанию: отсутствие секрета или заголовка означает отказ.
func (v *WebhookVerifier) Verify(headers http.Header) error {
	if v.token == "" {
		v.log.Error("Webhook token is not configured, rejecting delivery")
		return domain.ErrWebhookUnauthorized
	}

	received := headers.Get(webhookTokenHeader)
	if received == "" {
		v.log.Warn("Webhook delivery without %s header", webhookTokenHeader)
		return domain.ErrWebhookUnauthorized
	}

	if subtle.ConstantTimeCompare([]byte(received), []byte(v.token)) != 1 {
		v.log.Warn("Webhook token mismatch")
		return domain.ErrWebhookUnauthorized
	}

	return nil
}

// webhookPayload провайдер-специфичная форма вебхука Asaas
type webhookPayload struct {
	Event   string          `json:"event"`
	Payment *paymentPayload `json:"payment"`
}

// paymentPayload объект платежа внутри вебхука
type paymentPayload struct {
	ID                string        `json:"id"`
	Customer          string        `json:"customer"`
	Value             float64       `json:"value"`
	Status            string        `json:"status"`
	PaymentDate       string        `json:"paymentDate"`
	BillingType       string        `json:"billingType"`
	InvoiceURL        string        `json:"invoiceUrl"`
	Subscription      string        `json:"subscription"`
	ExternalReference string        `json:"externalReference"`
	Items             []itemPayload `json:"items"`
}

// itemPayload позиция платежа; Description несет JSON с планом и периодом
type itemPayload struct {
	Description string `json:"description"`
}

// planInfo содержимое Description первой позиции
type planInfo struct {
	Plan  string `json:"plan"`
	Cycle string `json:"cycle"`
}

// Normalizer извлекает каноническое событие из сырого payload Asaas
type Normalizer struct {
	log *logger.Logger
}

// NewNormalizer создает новый нормализатор событий
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// mapEventKind переводит тип события провайдера в канонический вид.
// Незнакомые типы не отклоняются: провайдер ожидает 200 на все доставки.
func mapEventKind(event string) domain.EventKind {
	switch event {
	case "PAYMENT_RECEIVED":
		return domain.EventKindPaymentReceived
	case "PAYMENT_CONFIRMED":
		return domain.EventKindPaymentConfirmed
	case "PAYMENT_OVERDUE":
		return domain.EventKindPaymentOverdue
	case "PAYMENT_DELETED":
		return domain.EventKindPaymentDeleted
	case "PAYMENT_REFUNDED":
		return domain.EventKindPaymentRefunded
	default:
		return domain.EventKindUnhandled
	}
}

// Normalize разбирает сырое тело вебхука в domain.NormalizedEvent.
// Ошибки классифицируются по таксономии обработчика: MalformedPayload
// приводит к 400, остальные к "не сопоставлено, но принято" (200).
func (n *Normalizer) Normalize(raw []byte) (domain.NormalizedEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		n.log.Warn("Failed to parse webhook payload: %v", err)
		return domain.NormalizedEvent{}, domain.ErrMalformedPayload
	}

	ev := domain.NormalizedEvent{
		Kind:         mapEventKind(payload.Event),
		RawEventType: payload.Event,
	}

	// Событие без объекта платежа (например, жизненный цикл клиента)
	// валидно, но для сверки не нужно
	if payload.Payment == nil {
		return ev, domain.ErrPayloadWithoutPayment
	}

	p := payload.Payment
	ev.PaymentID = p.ID
	ev.CustomerID = p.Customer
	ev.Amount = p.Value
	ev.PaymentDate = p.PaymentDate
	ev.BillingType = p.BillingType
	ev.InvoiceURL = p.InvoiceURL
	ev.SubscriptionID = p.Subscription

	if ev.Kind == domain.EventKindUnhandled {
		return ev, nil
	}

	// externalReference закладывается при создании чекаута и содержит
	// внутренний ID пользователя
	if strings.TrimSpace(p.ExternalReference) == "" {
		return ev, domain.ErrMissingUserReference
	}
	ev.UserID = p.ExternalReference

	// План и период нужны только для подтверждающих событий
	if ev.Kind.IsConfirmation() {
		info, err := parsePlanInfo(p.Items)
		if err != nil {
			n.log.Warn("Failed to extract plan info for payment %s: %v", p.ID, err)
			return ev, domain.ErrMissingPlanInfo
		}
		ev.Plan = domain.Plan(info.Plan)
		ev.Cycle = domain.BillingCycle(info.Cycle)
	}

	return ev, nil
}

// parsePlanInfo разбирает JSON-строку из описания первой позиции
func parsePlanInfo(items []itemPayload) (planInfo, error) {
	var info planInfo

	if len(items) == 0 || strings.TrimSpace(items[0].Description) == "" {
		return info, domain.ErrMissingPlanInfo
	}

	if err := json.Unmarshal([]byte(items[0].Description), &info); err != nil {
		return info, domain.ErrMissingPlanInfo
	}

	// Значения вне доменных перечислений отклоняются: платный план
	// бывает только pro или premium, период только monthly или annual
	switch domain.Plan(info.Plan) {
	case domain.PlanPro, domain.PlanPremium:
	default:
		return info, domain.ErrMissingPlanInfo
	}

	switch domain.BillingCycle(info.Cycle) {
	case domain.BillingCycleMonthly, domain.BillingCycleAnnual:
	default:
		return info, domain.ErrMissingPlanInfo
	}

	return info, nil
}
