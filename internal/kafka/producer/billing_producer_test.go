package producer

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/IBM/sarama/mocks"
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

func TestKafkaBillingProducerPublishAndClose(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event BillingEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		assert.Equal(t, "user-42", event.UserID)
		assert.Equal(t, domain.SubscriptionStatusActive, event.Status)
		assert.False(t, event.Timestamp.IsZero())
		return nil
	})

	p := NewKafkaBillingProducer(mockProducer, testLogger())

	err := p.PublishSubscriptionActivated(context.Background(), BillingEvent{
		UserID: "user-42",
		Plan:   domain.PlanPro,
		Cycle:  domain.BillingCycleMonthly,
		Status: domain.SubscriptionStatusActive,
	})
	require.NoError(t, err)

	// Продюсер закрывается вместе с нижележащим клиентом Kafka
	require.NoError(t, p.Close())
}

func TestKafkaBillingProducerPublishFailure(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(assert.AnError)

	p := NewKafkaBillingProducer(mockProducer, testLogger())

	err := p.PublishPaymentRecorded(context.Background(), BillingEvent{UserID: "user-42"})
	assert.Error(t, err)

	require.NoError(t, p.Close())
}
