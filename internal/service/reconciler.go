package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/kafka/producer"
	"github.com/creatorly/billing-service/internal/metrics"
	"github.com/creatorly/billing-service/internal/repository"
	"github.com/creatorly/billing-service/pkg/logger"
)

// Reconciler интерфейс движка сверки подписок
type Reconciler interface {
	// Reconcile применяет нормализованное событие к состоянию подписки
	Reconcile(ctx context.Context, event domain.NormalizedEvent) error
}

// reconciler реализация движка сверки
type reconciler struct {
	users    repository.UserRepository
	producer producer.BillingProducer
	metrics  metrics.WebhookMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewReconciler создает новый движок сверки
func NewReconciler(
	users repository.UserRepository,
	billingProducer producer.BillingProducer,
	webhookMetrics metrics.WebhookMetrics,
	log *logger.Logger,
) Reconciler {
	return &reconciler{
		users:    users,
		producer: billingProducer,
		metrics:  webhookMetrics,
		log:      log,
		now:      time.Now,
	}
}

// Reconcile применяет нормализованное событие к состоянию подписки
func (s *reconciler) Reconcile(ctx context.Context, event domain.NormalizedEvent) error {
	start := s.now()

	var err error
	switch event.Kind {
	case domain.EventKindPaymentReceived, domain.EventKindPaymentConfirmed:
		err = s.applyConfirmation(ctx, event)
	case domain.EventKindPaymentOverdue:
		err = s.deactivate(ctx, event, domain.PaymentStatusOverdue)
	case domain.EventKindPaymentDeleted, domain.EventKindPaymentRefunded:
		err = s.deactivate(ctx, event, domain.PaymentStatusRefunded)
	default:
		// Неизвестные события принимаются, но не обрабатываются
		s.log.Info("Ignoring unhandled webhook event type: %s", event.RawEventType)
		s.metrics.IncReconciliation("skipped")
		return nil
	}

	s.metrics.ObserveReconcileDuration(time.Since(start))
	if err != nil {
		s.metrics.IncReconciliation("failed")
		return err
	}

	s.metrics.IncReconciliation("applied")
	return nil
}

// applyConfirmation обрабатывает подтверждение оплаты: продлевает подписку
// и идемпотентно дописывает историю платежей. Запись платежа и обновление
// подписки проходят в одной транзакции хранилища: сбой на любом шаге
// откатывает оба, и ретрай провайдера повторяет подтверждение целиком.
func (s *reconciler) applyConfirmation(ctx context.Context, event domain.NormalizedEvent) error {
	entry := domain.PaymentHistoryEntry{
		PaymentID:   event.PaymentID,
		Amount:      event.Amount,
		Status:      string(domain.PaymentStatusConfirmed),
		PaymentDate: event.PaymentDate,
		BillingType: event.BillingType,
		InvoiceURL:  event.InvoiceURL,
	}

	var expiresAt time.Time
	inserted, err := s.users.ApplyConfirmation(ctx, event.UserID, entry, func(current domain.Subscription) domain.SubscriptionUpdate {
		// База продления: максимум из "сейчас" и текущего expiresAt.
		// Продление никогда не откатывает срок назад.
		base := s.now()
		if cur := current.ExpiresAt; cur != nil && cur.After(base) {
			base = *cur
		}

		if event.Cycle == domain.BillingCycleAnnual {
			expiresAt = addMonths(base, 12)
		} else {
			expiresAt = addMonths(base, 1)
		}

		status := domain.SubscriptionStatusActive
		paymentStatus := domain.PaymentStatusConfirmed
		update := domain.SubscriptionUpdate{
			Plan:              &event.Plan,
			Status:            &status,
			Cycle:             &event.Cycle,
			ExpiresAt:         &expiresAt,
			LastPaymentStatus: &paymentStatus,
			ClearTrial:        true,
			PaymentID:         &event.CustomerID,
		}
		if event.SubscriptionID != "" {
			update.AsaasSubscriptionID = &event.SubscriptionID
		}
		return update
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to apply payment %s: %w", event.PaymentID, err)
	}

	// Повторная доставка уже учтенного платежа: состояние применено
	// первой доставкой, продление пропускаем
	if !inserted {
		s.log.Info("Payment %s already recorded for user %s, skipping extension", event.PaymentID, event.UserID)
		return nil
	}

	s.log.Info("Subscription for user %s activated: plan=%s cycle=%s expires=%s",
		event.UserID, event.Plan, event.Cycle, expiresAt.Format(time.RFC3339))

	// Публикация событий не критична для ответа провайдеру
	s.publish(ctx, producer.TopicSubscriptionActivated, event, domain.SubscriptionStatusActive)
	s.publish(ctx, producer.TopicPaymentRecorded, event, domain.SubscriptionStatusActive)

	return nil
}

// deactivate обрабатывает просрочку, удаление или возврат платежа.
// План и срок действия не меняются, только статус.
func (s *reconciler) deactivate(ctx context.Context, event domain.NormalizedEvent, paymentStatus domain.PaymentStatus) error {
	if _, err := s.getUser(ctx, event.UserID); err != nil {
		return err
	}

	status := domain.SubscriptionStatusInactive
	update := domain.SubscriptionUpdate{
		Status:            &status,
		LastPaymentStatus: &paymentStatus,
	}

	if err := s.users.UpdateSubscription(ctx, event.UserID, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to deactivate subscription for user %s: %w", event.UserID, err)
	}

	s.log.Info("Subscription for user %s deactivated: last payment %s", event.UserID, paymentStatus)

	s.publish(ctx, producer.TopicSubscriptionDeactivated, event, domain.SubscriptionStatusInactive)

	return nil
}

// getUser возвращает пользователя, переводя ErrNotFound в доменную ошибку.
// Движок никогда не создает пользователей: их создает только регистрация.
func (s *reconciler) getUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// publish отправляет событие биллинга в Kafka, проглатывая ошибку
func (s *reconciler) publish(ctx context.Context, topic string, event domain.NormalizedEvent, status domain.SubscriptionStatus) {
	billingEvent := producer.BillingEvent{
		UserID:    event.UserID,
		Plan:      event.Plan,
		Cycle:     event.Cycle,
		Status:    status,
		PaymentID: event.PaymentID,
		Amount:    event.Amount,
	}

	var err error
	switch topic {
	case producer.TopicSubscriptionActivated:
		err = s.producer.PublishSubscriptionActivated(ctx, billingEvent)
	case producer.TopicSubscriptionDeactivated:
		err = s.producer.PublishSubscriptionDeactivated(ctx, billingEvent)
	case producer.TopicPaymentRecorded:
		err = s.producer.PublishPaymentRecorded(ctx, billingEvent)
	}

	if err != nil {
		s.log.Warn("Failed to publish billing event to %s: %v", topic, err)
	}
}

// addMonths добавляет календарные месяцы, прижимая день к последнему дню
// месяца: 31 января + 1 месяц = 28/29 февраля
func addMonths(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	day := t.Day()
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
