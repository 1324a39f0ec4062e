package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorly/billing-service/internal/integration/asaas"
	"github.com/creatorly/billing-service/internal/metrics"
	"github.com/creatorly/billing-service/internal/repository"
)

// fakeCustomerLookup возвращает фиксированного клиента либо ошибку
type fakeCustomerLookup struct {
	customer *asaas.CustomerResponse
	err      error
}

func (f *fakeCustomerLookup) GetCustomer(ctx context.Context, id string) (*asaas.CustomerResponse, error) {
	return f.customer, f.err
}

func TestAuditRecordEnrichesCustomerEmail(t *testing.T) {
	logs := repository.NewInMemoryWebhookLogRepository(testLogger())
	lookup := &fakeCustomerLookup{customer: &asaas.CustomerResponse{ID: "cus_001", Email: "maria@example.com"}}

	a := &auditLogger{
		logs:      logs,
		customers: lookup,
		metrics:   metrics.NoOpWebhookMetrics{},
		log:       testLogger(),
	}

	a.record("PAYMENT_CONFIRMED", []byte(`{"event":"PAYMENT_CONFIRMED"}`), "cus_001", 49.90, true)

	entries, err := logs.GetAll(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "PAYMENT_CONFIRMED", entries[0].EventType)
	assert.Equal(t, "maria@example.com", entries[0].CustomerEmail)
	assert.Equal(t, 49.90, entries[0].Amount)
	assert.True(t, entries[0].IsSuccess)
}

func TestAuditRecordSurvivesLookupFailure(t *testing.T) {
	logs := repository.NewInMemoryWebhookLogRepository(testLogger())
	lookup := &fakeCustomerLookup{err: errors.New("asaas timeout")}

	a := &auditLogger{
		logs:      logs,
		customers: lookup,
		metrics:   metrics.NoOpWebhookMetrics{},
		log:       testLogger(),
	}

	// Отказ обогащения не мешает записи журнала
	a.record("PAYMENT_OVERDUE", []byte(`{}`), "cus_001", 0, false)

	entries, err := logs.GetAll(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].CustomerEmail)
	assert.False(t, entries[0].IsSuccess)
}

func TestAuditRecordWithoutCustomerID(t *testing.T) {
	logs := repository.NewInMemoryWebhookLogRepository(testLogger())
	lookup := &fakeCustomerLookup{}

	a := &auditLogger{
		logs:      logs,
		customers: lookup,
		metrics:   metrics.NoOpWebhookMetrics{},
		log:       testLogger(),
	}

	a.record("SUBSCRIPTION_CREATED", []byte(`{}`), "", 0, false)

	entries, err := logs.GetAll(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].CustomerEmail)
}
