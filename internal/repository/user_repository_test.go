package repository

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/pkg/logger"
)

func testLogger() *logger.Logger {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return log
}

func TestInMemoryUserRepositoryGetByID(t *testing.T) {
	repo := NewInMemoryUserRepository(testLogger())
	repo.Seed(domain.User{ID: "user-1", Email: "user-1@example.com", Subscription: domain.NewSubscription()})

	user, err := repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1@example.com", user.Email)
	assert.Equal(t, domain.PlanFree, user.Subscription.Plan)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryUserRepositoryPartialUpdate(t *testing.T) {
	repo := NewInMemoryUserRepository(testLogger())

	trialEnd := time.Now().Add(72 * time.Hour)
	sub := domain.NewSubscription()
	sub.TrialEndsAt = &trialEnd
	repo.Seed(domain.User{ID: "user-1", Subscription: sub})

	plan := domain.PlanPro
	status := domain.SubscriptionStatusActive
	err := repo.UpdateSubscription(context.Background(), "user-1", domain.SubscriptionUpdate{
		Plan:   &plan,
		Status: &status,
	})
	require.NoError(t, err)

	user, err := repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, user.Subscription.Plan)
	assert.Equal(t, domain.SubscriptionStatusActive, user.Subscription.Status)
	// Незатронутые поля не меняются
	require.NotNil(t, user.Subscription.TrialEndsAt)

	err = repo.UpdateSubscription(context.Background(), "user-1", domain.SubscriptionUpdate{ClearTrial: true})
	require.NoError(t, err)

	user, err = repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, user.Subscription.TrialEndsAt)

	err = repo.UpdateSubscription(context.Background(), "missing", domain.SubscriptionUpdate{Plan: &plan})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryUserRepositoryApplyConfirmation(t *testing.T) {
	repo := NewInMemoryUserRepository(testLogger())
	repo.Seed(domain.User{ID: "user-1", Subscription: domain.NewSubscription()})

	entry := domain.PaymentHistoryEntry{PaymentID: "pay_001", Amount: 49.90, Status: "confirmed"}

	plan := domain.PlanPro
	status := domain.SubscriptionStatusActive
	activate := func(current domain.Subscription) domain.SubscriptionUpdate {
		return domain.SubscriptionUpdate{Plan: &plan, Status: &status}
	}

	inserted, err := repo.ApplyConfirmation(context.Background(), "user-1", entry, activate)
	require.NoError(t, err)
	assert.True(t, inserted)

	user, err := repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, user.Subscription.Plan)
	assert.Equal(t, domain.SubscriptionStatusActive, user.Subscription.Status)

	// Повтор того же платежа не создает вторую запись и не трогает подписку
	demote := domain.PlanFree
	inserted, err = repo.ApplyConfirmation(context.Background(), "user-1", entry, func(current domain.Subscription) domain.SubscriptionUpdate {
		return domain.SubscriptionUpdate{Plan: &demote}
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	user, err = repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, user.Subscription.Plan)

	history, err := repo.GetPaymentHistory(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = repo.ApplyConfirmation(context.Background(), "missing", entry, activate)
	assert.ErrorIs(t, err, ErrNotFound)
}
