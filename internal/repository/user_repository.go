package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/pkg/logger"
)

// UserRepository интерфейс хранилища пользователей и их подписок.
// Движок сверки опирается на атомарность операций в рамках одного пользователя;
// транзакций между пользователями не требуется.
type UserRepository interface {
	// GetByID возвращает пользователя по ID
	GetByID(ctx context.Context, id string) (domain.User, error)

	// UpdateSubscription применяет частичное обновление подписки пользователя
	UpdateSubscription(ctx context.Context, id string, update domain.SubscriptionUpdate) error

	// ApplyConfirmation атомарно записывает платеж и применяет обновление
	// подписки, построенное build из текущего состояния. Обе записи проходят
	// в одной транзакции: частично примененное подтверждение невозможно, и
	// ретрай после сбоя повторяет операцию целиком. Возвращает true, если
	// платеж был учтен впервые; при повторе подписка не меняется.
	ApplyConfirmation(ctx context.Context, userID string, entry domain.PaymentHistoryEntry, build func(domain.Subscription) domain.SubscriptionUpdate) (bool, error)

	// GetPaymentHistory возвращает историю платежей пользователя
	GetPaymentHistory(ctx context.Context, userID string) ([]domain.PaymentHistoryEntry, error)
}

// InMemoryUserRepository реализация репозитория пользователей в памяти
type InMemoryUserRepository struct {
	users   map[string]domain.User
	history map[string]map[string]domain.PaymentHistoryEntry
	mutex   sync.RWMutex
	log     *logger.Logger
}

// NewInMemoryUserRepository создает новый репозиторий пользователей в памяти
func NewInMemoryUserRepository(log *logger.Logger) *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:   make(map[string]domain.User),
		history: make(map[string]map[string]domain.PaymentHistoryEntry),
		log:     log,
	}
}

// Seed добавляет пользователя (используется в тестах и фикстурах)
func (r *InMemoryUserRepository) Seed(user domain.User) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
}

// GetByID возвращает пользователя по ID
func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return domain.User{}, ErrNotFound
	}

	return user, nil
}

// UpdateSubscription применяет частичное обновление подписки пользователя
func (r *InMemoryUserRepository) UpdateSubscription(ctx context.Context, id string, update domain.SubscriptionUpdate) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[id]
	if !exists {
		return ErrNotFound
	}

	update.Apply(&user.Subscription)
	user.UpdatedAt = time.Now()
	r.users[id] = user

	return nil
}

// ApplyConfirmation атомарно записывает платеж и применяет обновление подписки
func (r *InMemoryUserRepository) ApplyConfirmation(ctx context.Context, userID string, entry domain.PaymentHistoryEntry, build func(domain.Subscription) domain.SubscriptionUpdate) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return false, ErrNotFound
	}

	entries, exists := r.history[userID]
	if !exists {
		entries = make(map[string]domain.PaymentHistoryEntry)
		r.history[userID] = entries
	}

	// Повторная доставка уже учтенного платежа не меняет подписку
	if _, exists := entries[entry.PaymentID]; exists {
		return false, nil
	}

	entry.CreatedAt = time.Now()
	entries[entry.PaymentID] = entry

	update := build(user.Subscription)
	update.Apply(&user.Subscription)
	user.UpdatedAt = time.Now()
	r.users[userID] = user

	return true, nil
}

// GetPaymentHistory возвращает историю платежей пользователя
func (r *InMemoryUserRepository) GetPaymentHistory(ctx context.Context, userID string) ([]domain.PaymentHistoryEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries := make([]domain.PaymentHistoryEntry, 0, len(r.history[userID]))
	for _, entry := range r.history[userID] {
		entries = append(entries, entry)
	}

	// Сортируем записи по времени создания (новые в начале)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries, nil
}
