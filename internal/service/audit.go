package service

import (
	"context"
	"time"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/integration/asaas"
	"github.com/creatorly/billing-service/internal/metrics"
	"github.com/creatorly/billing-service/internal/repository"
	"github.com/creatorly/billing-service/pkg/logger"
)

// Таймаут на фоновую запись журнала вместе с обогащением
const auditRecordTimeout = 10 * time.Second

// CustomerLookup интерфейс поиска клиента у провайдера (для обогащения журнала)
type CustomerLookup interface {
	GetCustomer(ctx context.Context, id string) (*asaas.CustomerResponse, error)
}

// AuditLogger пишет журнал вебхуков. Запись фоновая и best-effort:
// отказ журнала никогда не влияет на ответ провайдеру.
type AuditLogger interface {
	// Record ставит запись журнала в фоновую обработку
	Record(eventType string, rawPayload []byte, customerID string, amount float64, isSuccess bool)
}

type auditLogger struct {
	logs      repository.WebhookLogRepository
	customers CustomerLookup
	metrics   metrics.WebhookMetrics
	log       *logger.Logger
}

// NewAuditLogger создает новый журнал вебхуков
func NewAuditLogger(
	logs repository.WebhookLogRepository,
	customers CustomerLookup,
	webhookMetrics metrics.WebhookMetrics,
	log *logger.Logger,
) AuditLogger {
	return &auditLogger{
		logs:      logs,
		customers: customers,
		metrics:   webhookMetrics,
		log:       log,
	}
}

// Record ставит запись журнала в фоновую обработку
func (a *auditLogger) Record(eventType string, rawPayload []byte, customerID string, amount float64, isSuccess bool) {
	go a.record(eventType, rawPayload, customerID, amount, isSuccess)
}

// record выполняет запись с собственным контекстом и изолированной
// обработкой ошибок
func (a *auditLogger) record(eventType string, rawPayload []byte, customerID string, amount float64, isSuccess bool) {
	ctx, cancel := context.WithTimeout(context.Background(), auditRecordTimeout)
	defer cancel()

	entry := domain.WebhookLogEntry{
		ReceivedAt: time.Now(),
		EventType:  eventType,
		Payload:    string(rawPayload),
		IsSuccess:  isSuccess,
		Amount:     amount,
	}

	// Обогащение email плательщика best-effort: при отказе пишем без него
	if customerID != "" && a.customers != nil {
		customer, err := a.customers.GetCustomer(ctx, customerID)
		if err != nil {
			a.log.Warn("Failed to enrich webhook log with customer email: %v", err)
		} else if customer != nil {
			entry.CustomerEmail = customer.Email
		}
	}

	if _, err := a.logs.Create(ctx, entry); err != nil {
		a.metrics.IncAuditLogFailure()
		a.log.Error("Failed to write webhook log entry: %v", err)
	}
}
