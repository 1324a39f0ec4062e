package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/integration/asaas"
	"github.com/creatorly/billing-service/internal/repository"
	"github.com/creatorly/billing-service/pkg/logger"
)

// SubscriptionProvider операции провайдера над рекуррентной подпиской
type SubscriptionProvider interface {
	CancelSubscription(ctx context.Context, subscriptionID string) error
	ReactivateSubscription(ctx context.Context, subscriptionID string) (*asaas.SubscriptionResponse, error)
}

// SettingsService интерфейс сервисных действий из настроек дашборда
type SettingsService interface {
	// ResetLastSync сбрасывает отметку последней синхронизации метрик
	ResetLastSync(ctx context.Context, userID string) error

	// ResetAllMetrics очищает все кешированные метрики соцсетей пользователя
	ResetAllMetrics(ctx context.Context, userID string) error

	// CancelSubscription отменяет рекуррентную подписку у провайдера
	// и отражает статус в хранилище
	CancelSubscription(ctx context.Context, userID string) error

	// ReactivateSubscription возобновляет рекуррентную подписку у провайдера
	// и отражает статус в хранилище
	ReactivateSubscription(ctx context.Context, userID string) error
}

type settingsService struct {
	users    repository.UserRepository
	cache    repository.MetricsCache
	provider SubscriptionProvider
	log      *logger.Logger
}

// NewSettingsService создает новый сервис настроек
func NewSettingsService(
	users repository.UserRepository,
	cache repository.MetricsCache,
	provider SubscriptionProvider,
	log *logger.Logger,
) SettingsService {
	return &settingsService{
		users:    users,
		cache:    cache,
		provider: provider,
		log:      log,
	}
}

// ResetLastSync сбрасывает отметку последней синхронизации метрик
func (s *settingsService) ResetLastSync(ctx context.Context, userID string) error {
	if err := s.cache.ResetLastSync(ctx, userID); err != nil {
		return fmt.Errorf("failed to reset last sync: %w", err)
	}

	s.log.Info("Last sync reset for user %s", userID)
	return nil
}

// ResetAllMetrics очищает все кешированные метрики соцсетей пользователя
func (s *settingsService) ResetAllMetrics(ctx context.Context, userID string) error {
	if err := s.cache.ResetAllMetrics(ctx, userID); err != nil {
		return fmt.Errorf("failed to reset metrics: %w", err)
	}

	s.log.Info("All cached metrics reset for user %s", userID)
	return nil
}

// CancelSubscription отменяет рекуррентную подписку у провайдера
func (s *settingsService) CancelSubscription(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	subscriptionID := user.Subscription.AsaasSubscriptionID
	if subscriptionID == "" {
		return fmt.Errorf("%w: user %s has no provider subscription", domain.ErrInvalidInput, userID)
	}

	// 404 провайдера клиент трактует как "уже отменена"
	if err := s.provider.CancelSubscription(ctx, subscriptionID); err != nil {
		return fmt.Errorf("provider cancellation failed: %w", err)
	}

	status := domain.SubscriptionStatusInactive
	if err := s.users.UpdateSubscription(ctx, userID, domain.SubscriptionUpdate{Status: &status}); err != nil {
		return fmt.Errorf("failed to mirror cancellation: %w", err)
	}

	s.log.Info("Subscription cancelled for user %s", userID)
	return nil
}

// ReactivateSubscription возобновляет рекуррентную подписку у провайдера
func (s *settingsService) ReactivateSubscription(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	subscriptionID := user.Subscription.AsaasSubscriptionID
	if subscriptionID == "" {
		return fmt.Errorf("%w: user %s has no provider subscription", domain.ErrInvalidInput, userID)
	}

	if _, err := s.provider.ReactivateSubscription(ctx, subscriptionID); err != nil {
		return fmt.Errorf("provider reactivation failed: %w", err)
	}

	status := domain.SubscriptionStatusActive
	if err := s.users.UpdateSubscription(ctx, userID, domain.SubscriptionUpdate{Status: &status}); err != nil {
		return fmt.Errorf("failed to mirror reactivation: %w", err)
	}

	s.log.Info("Subscription reactivated for user %s", userID)
	return nil
}

// getUser возвращает пользователя, переводя ErrNotFound в доменную ошибку
func (s *settingsService) getUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}
