package domain

import (
	"time"
)

// Plan тарифный план пользователя
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

// BillingCycle период оплаты подписки
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

// SubscriptionStatus статус подписки
type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusActive   SubscriptionStatus = "active"
)

// PaymentStatus последний наблюдаемый статус платежа у провайдера
type PaymentStatus string

const (
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusOverdue   PaymentStatus = "overdue"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Subscription представляет собой состояние подписки пользователя.
// Создается вместе с пользователем в состоянии {inactive, free} и
// далее только мутируется, никогда не заменяется целиком.
type Subscription struct {
	Plan                Plan               `json:"plan"`
	Status              SubscriptionStatus `json:"status"`
	Cycle               BillingCycle       `json:"cycle,omitempty"`
	ExpiresAt           *time.Time         `json:"expires_at,omitempty"`
	LastPaymentStatus   PaymentStatus      `json:"last_payment_status,omitempty"`
	TrialEndsAt         *time.Time         `json:"trial_ends_at,omitempty"`
	AsaasSubscriptionID string             `json:"asaas_subscription_id,omitempty"`
	PaymentID           string             `json:"payment_id,omitempty"`
}

// User представляет собой пользователя с вложенной подпиской
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name,omitempty"`
	Subscription Subscription `json:"subscription"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewSubscription возвращает подписку в начальном состоянии
func NewSubscription() Subscription {
	return Subscription{
		Plan:   PlanFree,
		Status: SubscriptionStatusInactive,
	}
}

// SubscriptionUpdate частичное обновление подписки. Nil-поля не трогаются.
type SubscriptionUpdate struct {
	Plan                *Plan
	Status              *SubscriptionStatus
	Cycle               *BillingCycle
	ExpiresAt           *time.Time
	LastPaymentStatus   *PaymentStatus
	ClearTrial          bool
	AsaasSubscriptionID *string
	PaymentID           *string
}

// Apply применяет частичное обновление к подписке
func (u SubscriptionUpdate) Apply(s *Subscription) {
	if u.Plan != nil {
		s.Plan = *u.Plan
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.Cycle != nil {
		s.Cycle = *u.Cycle
	}
	if u.ExpiresAt != nil {
		s.ExpiresAt = u.ExpiresAt
	}
	if u.LastPaymentStatus != nil {
		s.LastPaymentStatus = *u.LastPaymentStatus
	}
	if u.ClearTrial {
		s.TrialEndsAt = nil
	}
	if u.AsaasSubscriptionID != nil {
		s.AsaasSubscriptionID = *u.AsaasSubscriptionID
	}
	if u.PaymentID != nil {
		s.PaymentID = *u.PaymentID
	}
}
