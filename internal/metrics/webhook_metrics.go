package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/creatorly/billing-service/pkg/logger"
)

// WebhookMetrics интерфейс для метрик обработки вебхуков
type WebhookMetrics interface {
	IncEventReceived(kind string)
	IncReconciliation(outcome string)
	ObserveReconcileDuration(d time.Duration)
	IncAuditLogFailure()
}

type webhookMetrics struct {
	log               *logger.Logger
	eventsReceived    *prometheus.CounterVec
	reconciliations   *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	auditLogFailures  prometheus.Counter
}

// NewWebhookMetrics создает новые метрики вебхуков
func NewWebhookMetrics(registry *prometheus.Registry, log *logger.Logger) WebhookMetrics {
	eventsReceived := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_received_total",
			Help: "The total number of received webhook events by kind",
		},
		[]string{"kind"},
	)

	reconciliations := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_reconciliations_total",
			Help: "The total number of reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	reconcileDuration := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subscription_reconcile_duration_seconds",
			Help:    "Reconciliation duration distribution",
			Buckets: prometheus.DefBuckets,
		},
	)

	auditLogFailures := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_audit_log_failures_total",
			Help: "The total number of failed audit log writes",
		},
	)

	return &webhookMetrics{
		log:               log,
		eventsReceived:    eventsReceived,
		reconciliations:   reconciliations,
		reconcileDuration: reconcileDuration,
		auditLogFailures:  auditLogFailures,
	}
}

// IncEventReceived увеличивает счетчик принятых событий
func (m *webhookMetrics) IncEventReceived(kind string) {
	m.eventsReceived.WithLabelValues(kind).Inc()
}

// IncReconciliation увеличивает счетчик сверок по исходу
func (m *webhookMetrics) IncReconciliation(outcome string) {
	m.reconciliations.WithLabelValues(outcome).Inc()
}

// ObserveReconcileDuration записывает длительность сверки
func (m *webhookMetrics) ObserveReconcileDuration(d time.Duration) {
	m.reconcileDuration.Observe(d.Seconds())
}

// IncAuditLogFailure увеличивает счетчик неудачных записей журнала
func (m *webhookMetrics) IncAuditLogFailure() {
	m.auditLogFailures.Inc()
}

// NoOpWebhookMetrics заглушка метрик (используется в тестах)
type NoOpWebhookMetrics struct{}

func (NoOpWebhookMetrics) IncEventReceived(kind string)              {}
func (NoOpWebhookMetrics) IncReconciliation(outcome string)          {}
func (NoOpWebhookMetrics) ObserveReconcileDuration(d time.Duration)  {}
func (NoOpWebhookMetrics) IncAuditLogFailure()                       {}
