package asaas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/creatorly/billing-service/pkg/logger"
)

// Client представляет клиент для работы с API Asaas
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

// Config конфигурация для клиента Asaas
type Config struct {
	APIKey  string
	BaseURL string
}

// ErrorResponse представляет ошибку от API Asaas
type ErrorResponse struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

// Message возвращает первое описание ошибки
func (e *ErrorResponse) Message() string {
	if len(e.Errors) == 0 {
		return "unknown asaas error"
	}
	return e.Errors[0].Description
}

// NewClient создает новый клиент Asaas
func NewClient(cfg Config, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.asaas.com/v3"
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// doRequest выполняет запрос к API Asaas и декодирует ответ в dest.
// Тело ошибки провайдера разбирается в ErrorResponse.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, dest any) (int, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("access_token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && len(errResp.Errors) > 0 {
			return resp.StatusCode, fmt.Errorf("asaas API error: %s", errResp.Message())
		}
		return resp.StatusCode, fmt.Errorf("asaas API error: status %d", resp.StatusCode)
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
