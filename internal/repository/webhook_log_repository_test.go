package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorly/billing-service/internal/domain"
)

func TestInMemoryWebhookLogRepositoryPagination(t *testing.T) {
	repo := NewInMemoryWebhookLogRepository(testLogger())

	base := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := repo.Create(context.Background(), domain.WebhookLogEntry{
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
			EventType:  "PAYMENT_CONFIRMED",
			IsSuccess:  true,
		})
		require.NoError(t, err)
	}

	// Новые записи в начале
	entries, err := repo.GetAll(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, base.Add(4*time.Minute), entries[0].ReceivedAt)
	assert.Equal(t, base.Add(3*time.Minute), entries[1].ReceivedAt)

	entries, err = repo.GetAll(context.Background(), 2, 4)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, base, entries[0].ReceivedAt)

	entries, err = repo.GetAll(context.Background(), 10, 100)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInMemoryWebhookLogRepositoryAssignsID(t *testing.T) {
	repo := NewInMemoryWebhookLogRepository(testLogger())

	created, err := repo.Create(context.Background(), domain.WebhookLogEntry{EventType: "PAYMENT_OVERDUE"})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.False(t, created.ReceivedAt.IsZero())
}
