package domain

import (
	"time"
)

// PaymentHistoryEntry запись истории платежей пользователя.
// Ключом служит идентификатор платежа у провайдера: повторная доставка
// того же события не должна создавать дубликат.
type PaymentHistoryEntry struct {
	PaymentID   string    `json:"payment_id"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	PaymentDate string    `json:"payment_date,omitempty"`
	BillingType string    `json:"billing_type,omitempty"`
	InvoiceURL  string    `json:"invoice_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
