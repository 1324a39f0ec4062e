package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/repository"
	"github.com/creatorly/billing-service/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserRepository реализация репозитория пользователей через PostgreSQL.
// Поля подписки хранятся в строке пользователя, история платежей в
// отдельной таблице с ключом (user_id, payment_id).
type PostgresUserRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresUserRepository создает новый репозиторий пользователей через PostgreSQL
func NewPostgresUserRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:  db,
		log: log,
	}
}

// GetByID возвращает пользователя по ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := `
		SELECT id, email, name, plan, status, cycle, expires_at,
		       last_payment_status, trial_ends_at, asaas_subscription_id,
		       payment_id, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	var cycle, lastPaymentStatus, asaasSubscriptionID, paymentID *string

	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Subscription.Plan,
		&user.Subscription.Status,
		&cycle,
		&user.Subscription.ExpiresAt,
		&lastPaymentStatus,
		&user.Subscription.TrialEndsAt,
		&asaasSubscriptionID,
		&paymentID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, repository.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	if cycle != nil {
		user.Subscription.Cycle = domain.BillingCycle(*cycle)
	}
	if lastPaymentStatus != nil {
		user.Subscription.LastPaymentStatus = domain.PaymentStatus(*lastPaymentStatus)
	}
	if asaasSubscriptionID != nil {
		user.Subscription.AsaasSubscriptionID = *asaasSubscriptionID
	}
	if paymentID != nil {
		user.Subscription.PaymentID = *paymentID
	}

	return user, nil
}

// buildSubscriptionSet собирает SET-часть частичного обновления подписки.
// Nil-поля обновления не попадают в SET.
func buildSubscriptionSet(update domain.SubscriptionUpdate) ([]string, []any) {
	set := make([]string, 0, 8)
	args := make([]any, 0, 8)

	appendSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Plan != nil {
		appendSet("plan", string(*update.Plan))
	}
	if update.Status != nil {
		appendSet("status", string(*update.Status))
	}
	if update.Cycle != nil {
		appendSet("cycle", string(*update.Cycle))
	}
	if update.ExpiresAt != nil {
		appendSet("expires_at", *update.ExpiresAt)
	}
	if update.LastPaymentStatus != nil {
		appendSet("last_payment_status", string(*update.LastPaymentStatus))
	}
	if update.AsaasSubscriptionID != nil {
		appendSet("asaas_subscription_id", *update.AsaasSubscriptionID)
	}
	if update.PaymentID != nil {
		appendSet("payment_id", *update.PaymentID)
	}
	if update.ClearTrial {
		set = append(set, "trial_ends_at = NULL")
	}

	return set, args
}

// UpdateSubscription применяет частичное обновление подписки пользователя
func (r *PostgresUserRepository) UpdateSubscription(ctx context.Context, id string, update domain.SubscriptionUpdate) error {
	set, args := buildSubscriptionSet(update)
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = NOW()")

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(set, ", "), len(args)+1)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ApplyConfirmation атомарно записывает платеж и применяет обновление
// подписки в одной транзакции. Строка пользователя блокируется на время
// транзакции: конкурирующие подтверждения сериализуются и не теряют
// продления.
func (r *PostgresUserRepository) ApplyConfirmation(ctx context.Context, userID string, entry domain.PaymentHistoryEntry, build func(domain.Subscription) domain.SubscriptionUpdate) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	selectQuery := `
		SELECT plan, status, cycle, expires_at, last_payment_status,
		       trial_ends_at, asaas_subscription_id, payment_id
		FROM users
		WHERE id = $1
		FOR UPDATE
	`

	var sub domain.Subscription
	var cycle, lastPaymentStatus, asaasSubscriptionID, paymentID *string

	err = tx.QueryRow(ctx, selectQuery, userID).Scan(
		&sub.Plan,
		&sub.Status,
		&cycle,
		&sub.ExpiresAt,
		&lastPaymentStatus,
		&sub.TrialEndsAt,
		&asaasSubscriptionID,
		&paymentID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, repository.ErrNotFound
		}
		return false, fmt.Errorf("failed to lock user row: %w", err)
	}

	if cycle != nil {
		sub.Cycle = domain.BillingCycle(*cycle)
	}
	if lastPaymentStatus != nil {
		sub.LastPaymentStatus = domain.PaymentStatus(*lastPaymentStatus)
	}
	if asaasSubscriptionID != nil {
		sub.AsaasSubscriptionID = *asaasSubscriptionID
	}
	if paymentID != nil {
		sub.PaymentID = *paymentID
	}

	insertQuery := `
		INSERT INTO payment_history (user_id, payment_id, amount, status, payment_date, billing_type, invoice_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id, payment_id) DO NOTHING
	`

	tag, err := tx.Exec(
		ctx,
		insertQuery,
		userID,
		entry.PaymentID,
		entry.Amount,
		entry.Status,
		entry.PaymentDate,
		entry.BillingType,
		entry.InvoiceURL,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert payment history: %w", err)
	}

	// Платеж уже был учтен: фиксируем транзакцию, подписку не трогаем
	if tag.RowsAffected() == 0 {
		if err := tx.Commit(ctx); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return false, nil
	}

	update := build(sub)
	set, args := buildSubscriptionSet(update)
	if len(set) > 0 {
		set = append(set, "updated_at = NOW()")

		updateQuery := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(set, ", "), len(args)+1)
		args = append(args, userID)

		if _, err := tx.Exec(ctx, updateQuery, args...); err != nil {
			return false, fmt.Errorf("failed to update subscription: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit confirmation: %w", err)
	}

	return true, nil
}

// GetPaymentHistory возвращает историю платежей пользователя
func (r *PostgresUserRepository) GetPaymentHistory(ctx context.Context, userID string) ([]domain.PaymentHistoryEntry, error) {
	query := `
		SELECT payment_id, amount, status, payment_date, billing_type, invoice_url, created_at
		FROM payment_history
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment history: %w", err)
	}
	defer rows.Close()

	var entries []domain.PaymentHistoryEntry
	for rows.Next() {
		var entry domain.PaymentHistoryEntry

		err := rows.Scan(
			&entry.PaymentID,
			&entry.Amount,
			&entry.Status,
			&entry.PaymentDate,
			&entry.BillingType,
			&entry.InvoiceURL,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment history entry: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment history: %w", err)
	}

	return entries, nil
}
