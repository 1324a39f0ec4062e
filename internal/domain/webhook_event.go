package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind канонический тип вебхук-события провайдера
type EventKind string

const (
	EventKindPaymentReceived  EventKind = "PAYMENT_RECEIVED"
	EventKindPaymentConfirmed EventKind = "PAYMENT_CONFIRMED"
	EventKindPaymentOverdue   EventKind = "PAYMENT_OVERDUE"
	EventKindPaymentDeleted   EventKind = "PAYMENT_DELETED"
	EventKindPaymentRefunded  EventKind = "PAYMENT_REFUNDED"

	// EventKindUnhandled событие, которое мы принимаем, но не обрабатываем.
	// Провайдер ожидает 200 на все доставки, включая неинтересные нам.
	EventKindUnhandled EventKind = "UNHANDLED"
)

// IsConfirmation возвращает true для событий, подтверждающих оплату
func (k EventKind) IsConfirmation() bool {
	return k == EventKindPaymentReceived || k == EventKindPaymentConfirmed
}

// NormalizedEvent каноническое представление вебхук-события,
// извлеченное из провайдер-специфичного payload
type NormalizedEvent struct {
	UserID         string
	Plan           Plan
	Cycle          BillingCycle
	Kind           EventKind
	RawEventType   string
	PaymentID      string
	CustomerID     string
	Amount         float64
	PaymentDate    string
	BillingType    string
	InvoiceURL     string
	SubscriptionID string
}

// WebhookLogEntry запись журнала вебхуков. Пишется на каждую входящую
// доставку независимо от того, удалось ли сопоставить событие пользователю.
type WebhookLogEntry struct {
	ID            uuid.UUID `json:"id"`
	ReceivedAt    time.Time `json:"received_at"`
	EventType     string    `json:"event_type"`
	Payload       string    `json:"payload"`
	IsSuccess     bool      `json:"is_success"`
	Amount        float64   `json:"amount,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
}
