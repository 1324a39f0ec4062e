package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/integration/asaas"
)

// fakeCheckoutProvider фиксирует запросы к провайдеру
type fakeCheckoutProvider struct {
	existingCustomer *asaas.CustomerResponse
	createdCustomer  asaas.CustomerRequest
	checkoutReq      asaas.CheckoutRequest
	checkoutErr      error
}

func (f *fakeCheckoutProvider) FindCustomerByEmail(ctx context.Context, email string) (*asaas.CustomerResponse, error) {
	return f.existingCustomer, nil
}

func (f *fakeCheckoutProvider) CreateCustomer(ctx context.Context, req asaas.CustomerRequest) (*asaas.CustomerResponse, error) {
	f.createdCustomer = req
	return &asaas.CustomerResponse{ID: "cus_new", Name: req.Name, Email: req.Email}, nil
}

func (f *fakeCheckoutProvider) CreateCheckout(ctx context.Context, req asaas.CheckoutRequest) (*asaas.CheckoutResponse, error) {
	f.checkoutReq = req
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return &asaas.CheckoutResponse{ID: "chk_001", Link: "https://asaas.com/c/chk_001"}, nil
}

func validCheckoutRequest() CheckoutRequest {
	return CheckoutRequest{
		Name:    "Maria Silva",
		CpfCnpj: "12345678901",
		Email:   "maria@example.com",
		Plan:    "pro",
		Cycle:   "monthly",
		UserID:  "user-42",
	}
}

func TestCreateCheckoutForNewCustomer(t *testing.T) {
	provider := &fakeCheckoutProvider{}
	svc := NewCheckoutService(provider, testLogger())

	url, err := svc.CreateCheckout(context.Background(), validCheckoutRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://asaas.com/c/chk_001", url)

	// Новый клиент создается с внутренним ID пользователя в externalReference
	assert.Equal(t, "user-42", provider.createdCustomer.ExternalReference)
	assert.Equal(t, "cus_new", provider.checkoutReq.Customer)
	assert.Equal(t, "user-42", provider.checkoutReq.ExternalReference)
	assert.Equal(t, "MONTHLY", provider.checkoutReq.SubscriptionCycle)
	assert.Equal(t, []string{"RECURRENT"}, provider.checkoutReq.ChargeTypes)

	// План и период закодированы в описании позиции и вернутся в вебхуке
	require.Len(t, provider.checkoutReq.Items, 1)
	var info struct {
		Plan  string `json:"plan"`
		Cycle string `json:"cycle"`
	}
	require.NoError(t, json.Unmarshal([]byte(provider.checkoutReq.Items[0].Description), &info))
	assert.Equal(t, "pro", info.Plan)
	assert.Equal(t, "monthly", info.Cycle)
	assert.Equal(t, 49.90, provider.checkoutReq.Items[0].Value)
}

func TestCreateCheckoutReusesExistingCustomer(t *testing.T) {
	provider := &fakeCheckoutProvider{
		existingCustomer: &asaas.CustomerResponse{ID: "cus_existing", Email: "maria@example.com"},
	}
	svc := NewCheckoutService(provider, testLogger())

	_, err := svc.CreateCheckout(context.Background(), validCheckoutRequest())
	require.NoError(t, err)

	assert.Equal(t, "cus_existing", provider.checkoutReq.Customer)
	assert.Empty(t, provider.createdCustomer.Email)
}

func TestCreateCheckoutAnnualCycle(t *testing.T) {
	provider := &fakeCheckoutProvider{}
	svc := NewCheckoutService(provider, testLogger())

	req := validCheckoutRequest()
	req.Plan = "premium"
	req.Cycle = "annual"

	_, err := svc.CreateCheckout(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "YEARLY", provider.checkoutReq.SubscriptionCycle)
	assert.Equal(t, 958.80, provider.checkoutReq.Items[0].Value)
}

func TestCreateCheckoutValidation(t *testing.T) {
	provider := &fakeCheckoutProvider{}
	svc := NewCheckoutService(provider, testLogger())

	tests := []struct {
		name   string
		mutate func(*CheckoutRequest)
	}{
		{"пустой email", func(r *CheckoutRequest) { r.Email = "" }},
		{"невалидный email", func(r *CheckoutRequest) { r.Email = "not-an-email" }},
		{"неизвестный план", func(r *CheckoutRequest) { r.Plan = "enterprise" }},
		{"неизвестный период", func(r *CheckoutRequest) { r.Cycle = "weekly" }},
		{"пустой userId", func(r *CheckoutRequest) { r.UserID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCheckoutRequest()
			tt.mutate(&req)

			_, err := svc.CreateCheckout(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreateCheckoutProviderFailure(t *testing.T) {
	provider := &fakeCheckoutProvider{checkoutErr: errors.New("asaas is down")}
	svc := NewCheckoutService(provider, testLogger())

	_, err := svc.CreateCheckout(context.Background(), validCheckoutRequest())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
}
