package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/creatorly/billing-service/internal/domain"
	"github.com/creatorly/billing-service/internal/integration/asaas"
	"github.com/creatorly/billing-service/pkg/logger"
)

// CheckoutRequest запрос на создание чекаута
type CheckoutRequest struct {
	Name    string `json:"name" validate:"required"`
	CpfCnpj string `json:"cpf_cnpj" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Plan    string `json:"plan" validate:"required,oneof=pro premium"`
	Cycle   string `json:"cycle" validate:"required,oneof=monthly annual"`
	UserID  string `json:"user_id" validate:"required"`
}

// CheckoutProvider операции провайдера, нужные для создания чекаута
type CheckoutProvider interface {
	FindCustomerByEmail(ctx context.Context, email string) (*asaas.CustomerResponse, error)
	CreateCustomer(ctx context.Context, req asaas.CustomerRequest) (*asaas.CustomerResponse, error)
	CreateCheckout(ctx context.Context, req asaas.CheckoutRequest) (*asaas.CheckoutResponse, error)
}

// CheckoutService интерфейс сервиса создания чекаутов
type CheckoutService interface {
	// CreateCheckout создает сессию оплаты и возвращает ссылку на чекаут
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

type checkoutService struct {
	provider CheckoutProvider
	validate *validator.Validate
	log      *logger.Logger
}

// Цены планов в BRL
var planPrices = map[string]map[string]float64{
	"pro": {
		"monthly": 49.90,
		"annual":  478.80,
	},
	"premium": {
		"monthly": 99.90,
		"annual":  958.80,
	},
}

// NewCheckoutService создает новый сервис чекаутов
func NewCheckoutService(provider CheckoutProvider, log *logger.Logger) CheckoutService {
	return &checkoutService{
		provider: provider,
		validate: validator.New(),
		log:      log,
	}
}

// CreateCheckout создает сессию оплаты и возвращает ссылку на чекаут
func (s *checkoutService) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	// Ищем клиента у провайдера, либо создаем нового
	customer, err := s.provider.FindCustomerByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("customer lookup failed: %w", err)
	}
	if customer == nil {
		customer, err = s.provider.CreateCustomer(ctx, asaas.CustomerRequest{
			Name:              req.Name,
			Email:             req.Email,
			CpfCnpj:           req.CpfCnpj,
			ExternalReference: req.UserID,
		})
		if err != nil {
			return "", fmt.Errorf("customer creation failed: %w", err)
		}
	}

	// План и период кодируются в описании позиции, чтобы вернуться
	// к нам в вебхуке вместе с платежом
	description, err := json.Marshal(map[string]string{
		"plan":  req.Plan,
		"cycle": req.Cycle,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode plan info: %w", err)
	}

	price := planPrices[req.Plan][req.Cycle]

	subscriptionCycle := "MONTHLY"
	if req.Cycle == string(domain.BillingCycleAnnual) {
		subscriptionCycle = "YEARLY"
	}

	checkout, err := s.provider.CreateCheckout(ctx, asaas.CheckoutRequest{
		Customer:          customer.ID,
		BillingTypes:      []string{"CREDIT_CARD", "PIX"},
		ChargeTypes:       []string{"RECURRENT"},
		ExternalReference: req.UserID,
		SubscriptionCycle: subscriptionCycle,
		Items: []asaas.CheckoutItem{
			{
				Name:        fmt.Sprintf("Plano %s (%s)", req.Plan, req.Cycle),
				Description: string(description),
				Quantity:    1,
				Value:       price,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("checkout creation failed: %w", err)
	}

	s.log.Info("Checkout created for user %s: plan=%s cycle=%s", req.UserID, req.Plan, req.Cycle)
	return checkout.Link, nil
}
