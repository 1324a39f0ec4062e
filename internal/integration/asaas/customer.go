package asaas

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CustomerResponse представляет клиента в Asaas
type CustomerResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	CpfCnpj string `json:"cpfCnpj"`
}

// CustomerListResponse представляет страницу списка клиентов
type CustomerListResponse struct {
	Data       []CustomerResponse `json:"data"`
	TotalCount int                `json:"totalCount"`
}

// CustomerRequest запрос на создание клиента в Asaas
type CustomerRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	CpfCnpj           string `json:"cpfCnpj"`
	ExternalReference string `json:"externalReference,omitempty"`
}

// CreateCustomer создает нового клиента в Asaas
func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (*CustomerResponse, error) {
	c.log.Debug("Creating Asaas customer for %s", req.Email)

	var resp CustomerResponse
	if _, err := c.doRequest(ctx, http.MethodPost, "/customers", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	c.log.Info("Successfully created Asaas customer with ID: %s", resp.ID)
	return &resp, nil
}

// GetCustomer получает клиента из Asaas по ID
func (c *Client) GetCustomer(ctx context.Context, id string) (*CustomerResponse, error) {
	c.log.Debug("Getting Asaas customer with ID: %s", id)

	var resp CustomerResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/customers/"+id, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &resp, nil
}

// FindCustomerByEmail ищет клиента в Asaas по email.
// Возвращает nil без ошибки, если клиента нет.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*CustomerResponse, error) {
	c.log.Debug("Looking up Asaas customer by email: %s", email)

	var resp CustomerListResponse
	path := "/customers?email=" + url.QueryEscape(email)
	if _, err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, nil
	}

	return &resp.Data[0], nil
}
