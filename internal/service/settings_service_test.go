package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/integration/asaas"
	"github.com/creatorly/billing-service/internal/repository"
)

// fakeSubscriptionProvider фиксирует обращения к провайдеру
type fakeSubscriptionProvider struct {
	cancelled   []string
	reactivated []string
}

func (f *fakeSubscriptionProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	f.cancelled = append(f.cancelled, subscriptionID)
	return nil
}

func (f *fakeSubscriptionProvider) ReactivateSubscription(ctx context.Context, subscriptionID string) (*asaas.SubscriptionResponse, error) {
	f.reactivated = append(f.reactivated, subscriptionID)
	return &asaas.SubscriptionResponse{ID: subscriptionID, Status: "ACTIVE"}, nil
}

// fakeMetricsCache фиксирует операции с кешем метрик
type fakeMetricsCache struct {
	lastSyncResets []string
	metricsResets  []string
}

func (f *fakeMetricsCache) ResetLastSync(ctx context.Context, userID string) error {
	f.lastSyncResets = append(f.lastSyncResets, userID)
	return nil
}

func (f *fakeMetricsCache) ResetAllMetrics(ctx context.Context, userID string) error {
	f.metricsResets = append(f.metricsResets, userID)
	return nil
}

func (f *fakeMetricsCache) Close() error { return nil }

func seedSubscribedUser(repo *repository.InMemoryUserRepository, id, subscriptionID string) {
	sub := domain.NewSubscription()
	sub.Plan = domain.PlanPro
	sub.Status = domain.SubscriptionStatusActive
	sub.AsaasSubscriptionID = subscriptionID
	repo.Seed(domain.User{ID: id, Email: id + "@example.com", Subscription: sub})
}

func TestSettingsCancelSubscription(t *testing.T) {
	repo := repository.NewInMemoryUserRepository(testLogger())
	seedSubscribedUser(repo, "user-1", "sub_123")

	provider := &fakeSubscriptionProvider{}
	svc := NewSettingsService(repo, &fakeMetricsCache{}, provider, testLogger())

	require.NoError(t, svc.CancelSubscription(context.Background(), "user-1"))

	assert.Equal(t, []string{"sub_123"}, provider.cancelled)

	user, err := repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusInactive, user.Subscription.Status)
	// План сохраняется для возможной реактивации
	assert.Equal(t, domain.PlanPro, user.Subscription.Plan)
}

func TestSettingsCancelWithoutProviderSubscription(t *testing.T) {
	repo := repository.NewInMemoryUserRepository(testLogger())
	seedSubscribedUser(repo, "user-1", "")

	provider := &fakeSubscriptionProvider{}
	svc := NewSettingsService(repo, &fakeMetricsCache{}, provider, testLogger())

	err := svc.CancelSubscription(context.Background(), "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, provider.cancelled)
}

func TestSettingsCancelUnknownUser(t *testing.T) {
	repo := repository.NewInMemoryUserRepository(testLogger())

	provider := &fakeSubscriptionProvider{}
	svc := NewSettingsService(repo, &fakeMetricsCache{}, provider, testLogger())

	err := svc.CancelSubscription(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSettingsReactivateSubscription(t *testing.T) {
	repo := repository.NewInMemoryUserRepository(testLogger())
	seedSubscribedUser(repo, "user-1", "sub_123")

	provider := &fakeSubscriptionProvider{}
	svc := NewSettingsService(repo, &fakeMetricsCache{}, provider, testLogger())

	require.NoError(t, svc.CancelSubscription(context.Background(), "user-1"))
	require.NoError(t, svc.ReactivateSubscription(context.Background(), "user-1"))

	assert.Equal(t, []string{"sub_123"}, provider.reactivated)

	user, err := repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusActive, user.Subscription.Status)
}

func TestSettingsResetActions(t *testing.T) {
	repo := repository.NewInMemoryUserRepository(testLogger())
	cache := &fakeMetricsCache{}
	svc := NewSettingsService(repo, cache, &fakeSubscriptionProvider{}, testLogger())

	require.NoError(t, svc.ResetLastSync(context.Background(), "user-1"))
	require.NoError(t, svc.ResetAllMetrics(context.Background(), "user-1"))

	assert.Equal(t, []string{"user-1"}, cache.lastSyncResets)
	assert.Equal(t, []string{"user-1"}, cache.metricsResets)
}
