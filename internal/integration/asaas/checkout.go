package asaas

import (
	"context"
	"fmt"
	"net/http"
)

// CheckoutItem позиция чекаута. В Description кодируется JSON с планом и
// периодом: у провайдера нет понятия "тариф", и это единственный способ
// провезти его через платеж до вебхука.
type CheckoutItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Value       float64 `json:"value"`
}

// CheckoutRequest запрос на создание сессии чекаута в Asaas
type CheckoutRequest struct {
	Customer          string         `json:"customer"`
	BillingTypes      []string       `json:"billingTypes"`
	ChargeTypes       []string       `json:"chargeTypes"`
	ExternalReference string         `json:"externalReference"`
	Items             []CheckoutItem `json:"items"`
	CallbackURL       string         `json:"callbackUrl,omitempty"`
	SubscriptionCycle string         `json:"subscriptionCycle,omitempty"`
}

// CheckoutResponse ответ Asaas при создании чекаута
type CheckoutResponse struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

// CreateCheckout создает сессию чекаута в Asaas
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	c.log.Debug("Creating Asaas checkout for customer %s", req.Customer)

	var resp CheckoutResponse
	if _, err := c.doRequest(ctx, http.MethodPost, "/checkouts", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}

	c.log.Info("Successfully created Asaas checkout: %s", resp.ID)
	return &resp, nil
}
