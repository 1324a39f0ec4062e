package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/pkg/logger"
)

const (
	TopicSubscriptionActivated   = "billing.subscription.activated"
	TopicSubscriptionDeactivated = "billing.subscription.deactivated"
	TopicPaymentRecorded         = "billing.payment.recorded"
)

// BillingEvent представляет событие биллинга для Kafka
type BillingEvent struct {
	UserID    string                    `json:"user_id"`
	Plan      domain.Plan               `json:"plan,omitempty"`
	Cycle     domain.BillingCycle       `json:"cycle,omitempty"`
	Status    domain.SubscriptionStatus `json:"status"`
	PaymentID string                    `json:"payment_id,omitempty"`
	Amount    float64                   `json:"amount,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
}

// BillingProducer интерфейс для отправки событий биллинга
type BillingProducer interface {
	PublishSubscriptionActivated(ctx context.Context, event BillingEvent) error
	PublishSubscriptionDeactivated(ctx context.Context, event BillingEvent) error
	PublishPaymentRecorded(ctx context.Context, event BillingEvent) error
	Close() error
}

type kafkaBillingProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaBillingProducer создает новый продюсер событий биллинга
func NewKafkaBillingProducer(producer sarama.SyncProducer, log *logger.Logger) BillingProducer {
	return &kafkaBillingProducer{
		producer: producer,
		log:      log,
	}
}

// PublishSubscriptionActivated публикует событие активации подписки
func (p *kafkaBillingProducer) PublishSubscriptionActivated(ctx context.Context, event BillingEvent) error {
	return p.publishEvent(ctx, TopicSubscriptionActivated, event)
}

// PublishSubscriptionDeactivated публикует событие деактивации подписки
func (p *kafkaBillingProducer) PublishSubscriptionDeactivated(ctx context.Context, event BillingEvent) error {
	return p.publishEvent(ctx, TopicSubscriptionDeactivated, event)
}

// PublishPaymentRecorded публикует событие записи платежа
func (p *kafkaBillingProducer) PublishPaymentRecorded(ctx context.Context, event BillingEvent) error {
	return p.publishEvent(ctx, TopicPaymentRecorded, event)
}

// publishEvent сериализует событие и отправляет в указанный топик.
// Ключом служит UserID: события одного пользователя попадают в одну партицию.
func (p *kafkaBillingProducer) publishEvent(ctx context.Context, topic string, event BillingEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal billing event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Error("Failed to publish billing event to %s: %v", topic, err)
		return fmt.Errorf("failed to publish billing event: %w", err)
	}

	p.log.Debug("Published billing event to %s (partition %d, offset %d)", topic, partition, offset)
	return nil
}

// Close закрывает продюсер Kafka
func (p *kafkaBillingProducer) Close() error {
	return p.producer.Close()
}

// NoOpBillingProducer заглушка продюсера, когда Kafka отключена
type NoOpBillingProducer struct{}

func (NoOpBillingProducer) PublishSubscriptionActivated(ctx context.Context, event BillingEvent) error {
	return nil
}

func (NoOpBillingProducer) PublishSubscriptionDeactivated(ctx context.Context, event BillingEvent) error {
	return nil
}

func (NoOpBillingProducer) PublishPaymentRecorded(ctx context.Context, event BillingEvent) error {
	return nil
}

func (NoOpBillingProducer) Close() error { return nil }
