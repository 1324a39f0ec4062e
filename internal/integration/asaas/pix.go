package asaas

import (
	"context"
	"fmt"
	"net/http"
)

// PixQRCodeResponse представляет PIX QR-код для платежа
type PixQRCodeResponse struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

// GetPixQRCode получает PIX QR-код для платежа
func (c *Client) GetPixQRCode(ctx context.Context, paymentID string) (*PixQRCodeResponse, error) {
	c.log.Debug("Getting PIX QR code for payment: %s", paymentID)

	var resp PixQRCodeResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/payments/"+paymentID+"/pixQrCode", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get PIX QR code: %w", err)
	}

	return &resp, nil
}
