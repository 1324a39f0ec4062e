package asaas

import (
	"context"
	"fmt"
	"net/http"
)

// SubscriptionResponse представляет рекуррентную подписку в Asaas
type SubscriptionResponse struct {
	ID                string  `json:"id"`
	Customer          string  `json:"customer"`
	Status            string  `json:"status"`
	Value             float64 `json:"value"`
	NextDueDate       string  `json:"nextDueDate"`
	Cycle             string  `json:"cycle"`
	ExternalReference string  `json:"externalReference"`
	Deleted           bool    `json:"deleted"`
}

// CancelSubscription отменяет рекуррентную подписку в Asaas.
// 404 от провайдера означает, что подписка уже отменена, и не считается ошибкой.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	c.log.Debug("Cancelling Asaas subscription: %s", subscriptionID)

	status, err := c.doRequest(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, nil, nil)
	if err != nil {
		if status == http.StatusNotFound {
			c.log.Warn("Asaas subscription %s not found, treating as already cancelled", subscriptionID)
			return nil
		}
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	c.log.Info("Successfully cancelled Asaas subscription: %s", subscriptionID)
	return nil
}

// ReactivateSubscription возобновляет рекуррентную подписку в Asaas
func (c *Client) ReactivateSubscription(ctx context.Context, subscriptionID string) (*SubscriptionResponse, error) {
	c.log.Debug("Reactivating Asaas subscription: %s", subscriptionID)

	body := map[string]string{"status": "ACTIVE"}

	var resp SubscriptionResponse
	if _, err := c.doRequest(ctx, http.MethodPut, "/subscriptions/"+subscriptionID, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to reactivate subscription: %w", err)
	}

	c.log.Info("Successfully reactivated Asaas subscription: %s", resp.ID)
	return &resp, nil
}
