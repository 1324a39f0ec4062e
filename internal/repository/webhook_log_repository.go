package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/pkg/logger"
	"github.com/google/uuid"
)

// WebhookLogRepository интерфейс журнала вебхуков (append-only)
type WebhookLogRepository interface {
	// Create создает новую запись журнала
	Create(ctx context.Context, entry domain.WebhookLogEntry) (domain.WebhookLogEntry, error)

	// GetAll возвращает записи журнала с пагинацией, новые в начале
	GetAll(ctx context.Context, limit, offset int) ([]domain.WebhookLogEntry, error)
}

// InMemoryWebhookLogRepository реализация журнала вебхуков в памяти
type InMemoryWebhookLogRepository struct {
	entries map[uuid.UUID]domain.WebhookLogEntry
	mutex   sync.RWMutex
	log     *logger.Logger
}

// NewInMemoryWebhookLogRepository создает новый журнал вебхуков в памяти
func NewInMemoryWebhookLogRepository(log *logger.Logger) *InMemoryWebhookLogRepository {
	return &InMemoryWebhookLogRepository{
		entries: make(map[uuid.UUID]domain.WebhookLogEntry),
		log:     log,
	}
}

// Create создает новую запись журнала
func (r *InMemoryWebhookLogRepository) Create(ctx context.Context, entry domain.WebhookLogEntry) (domain.WebhookLogEntry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now()
	}

	r.entries[entry.ID] = entry

	return entry, nil
}

// GetAll возвращает записи журнала с пагинацией
func (r *InMemoryWebhookLogRepository) GetAll(ctx context.Context, limit, offset int) ([]domain.WebhookLogEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries := make([]domain.WebhookLogEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}

	// Сортируем записи по времени получения (новые в начале)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ReceivedAt.After(entries[j].ReceivedAt)
	})

	// Применяем пагинацию
	if offset >= len(entries) {
		return []domain.WebhookLogEntry{}, nil
	}

	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}

	return entries[offset:end], nil
}
