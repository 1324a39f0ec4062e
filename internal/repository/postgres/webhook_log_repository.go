package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresWebhookLogRepository реализация журнала вебхуков через PostgreSQL
type PostgresWebhookLogRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresWebhookLogRepository создает новый журнал вебхуков через PostgreSQL
func NewPostgresWebhookLogRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresWebhookLogRepository {
	return &PostgresWebhookLogRepository{
		db:  db,
		log: log,
	}
}

// Create создает новую запись журнала
func (r *PostgresWebhookLogRepository) Create(ctx context.Context, entry domain.WebhookLogEntry) (domain.WebhookLogEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now()
	}

	query := `
		INSERT INTO webhook_logs (id, received_at, event_type, payload, is_success, amount, customer_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(
		ctx,
		query,
		entry.ID,
		entry.ReceivedAt,
		entry.EventType,
		entry.Payload,
		entry.IsSuccess,
		entry.Amount,
		entry.CustomerEmail,
	)

	if err != nil {
		return domain.WebhookLogEntry{}, fmt.Errorf("failed to create webhook log entry: %w", err)
	}

	return entry, nil
}

// GetAll возвращает записи журнала с пагинацией, новые в начале
func (r *PostgresWebhookLogRepository) GetAll(ctx context.Context, limit, offset int) ([]domain.WebhookLogEntry, error) {
	query := `
		SELECT id, received_at, event_type, payload, is_success, amount, customer_email
		FROM webhook_logs
		ORDER BY received_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.WebhookLogEntry
	for rows.Next() {
		var entry domain.WebhookLogEntry

		err := rows.Scan(
			&entry.ID,
			&entry.ReceivedAt,
			&entry.EventType,
			&entry.Payload,
			&entry.IsSuccess,
			&entry.Amount,
			&entry.CustomerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook log entry: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhook logs: %w", err)
	}

	return entries, nil
}
