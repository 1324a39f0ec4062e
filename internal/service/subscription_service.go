package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/repository"
	"github.com/creatorly/billing-service/pkg/logger"
)

// SubscriptionStatusView представление статуса подписки для дашборда.
// Используется действием "проверить статус платежа": пользователь не видит
// ошибок вебхуков напрямую и перечитывает текущее состояние.
type SubscriptionStatusView struct {
	Plan              domain.Plan               `json:"plan"`
	Status            domain.SubscriptionStatus `json:"status"`
	Cycle             domain.BillingCycle       `json:"cycle,omitempty"`
	ExpiresAt         *time.Time                `json:"expires_at,omitempty"`
	LastPaymentStatus domain.PaymentStatus      `json:"last_payment_status,omitempty"`
	TrialEndsAt       *time.Time                `json:"trial_ends_at,omitempty"`
}

// SubscriptionService интерфейс чтения состояния подписки
type SubscriptionService interface {
	// GetStatus возвращает текущее состояние подписки пользователя
	GetStatus(ctx context.Context, userID string) (SubscriptionStatusView, error)

	// GetPaymentHistory возвращает историю платежей пользователя
	GetPaymentHistory(ctx context.Context, userID string) ([]domain.PaymentHistoryEntry, error)
}

type subscriptionService struct {
	users repository.UserRepository
	log   *logger.Logger
}

// NewSubscriptionService создает новый сервис чтения подписок
func NewSubscriptionService(users repository.UserRepository, log *logger.Logger) SubscriptionService {
	return &subscriptionService{
		users: users,
		log:   log,
	}
}

// GetStatus возвращает текущее состояние подписки пользователя
func (s *subscriptionService) GetStatus(ctx context.Context, userID string) (SubscriptionStatusView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SubscriptionStatusView{}, domain.ErrUserNotFound
		}
		return SubscriptionStatusView{}, fmt.Errorf("failed to get user %s: %w", userID, err)
	}

	sub := user.Subscription
	return SubscriptionStatusView{
		Plan:              sub.Plan,
		Status:            sub.Status,
		Cycle:             sub.Cycle,
		ExpiresAt:         sub.ExpiresAt,
		LastPaymentStatus: sub.LastPaymentStatus,
		TrialEndsAt:       sub.TrialEndsAt,
	}, nil
}

// GetPaymentHistory возвращает историю платежей пользователя
func (s *subscriptionService) GetPaymentHistory(ctx context.Context, userID string) ([]domain.PaymentHistoryEntry, error) {
	entries, err := s.users.GetPaymentHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment history for user %s: %w", userID, err)
	}
	return entries, nil
}
