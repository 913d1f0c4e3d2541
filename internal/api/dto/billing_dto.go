package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// CheckoutRequest payload.
type CheckoutRequest struct {
	Plan     domain.Plan            `json:"plan"`
	Interval domain.BillingInterval `json:"interval"`
}

// CancelRequest payload. Mode is "now" or "period_end".
type CancelRequest struct {
	Mode string `json:"mode"`
}

// RecordPaymentRequest payload for admin pay-month / pay-year. Period is
// YYYY-MM and defaults to the current month.
type RecordPaymentRequest struct {
	Period string      `json:"period"`
	Plan   domain.Plan `json:"plan"`
}

// ExtendGraceRequest payload.
type ExtendGraceRequest struct {
	Until time.Time `json:"until"`
}

// SubscriptionResponse is the public view of a subscription.
type SubscriptionResponse struct {
	TenantID           string                    `json:"tenant_id"`
	Plan               domain.Plan               `json:"plan"`
	Status             domain.SubscriptionStatus `json:"status"`
	CurrentPeriodStart *time.Time                `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time                `json:"current_period_end,omitempty"`
	TrialEndsAt        *time.Time                `json:"trial_ends_at,omitempty"`
	CancelAtPeriodEnd  bool                      `json:"cancel_at_period_end"`
	GraceUntil         *time.Time                `json:"grace_until,omitempty"`
	Seats              int                       `json:"seats"`
}

// CheckoutResponse carries the redirect URL.
type CheckoutResponse struct {
	SessionID    string               `json:"session_id"`
	URL          string               `json:"url"`
	Subscription SubscriptionResponse `json:"subscription"`
}

// InvoiceResponse is the public view of an invoice.
type InvoiceResponse struct {
	ID          string                 `json:"id"`
	Plan        domain.Plan            `json:"plan"`
	Interval    domain.BillingInterval `json:"interval"`
	PeriodStart time.Time              `json:"period_start"`
	PeriodEnd   time.Time              `json:"period_end"`
	Amount      decimal.Decimal        `json:"amount"`
	Currency    string                 `json:"currency"`
	Status      domain.InvoiceStatus   `json:"status"`
	PaidAt      *time.Time             `json:"paid_at,omitempty"`
}

// NewSubscriptionResponse maps a subscription.
func NewSubscriptionResponse(s *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		TenantID:           s.TenantID,
		Plan:               s.Plan,
		Status:             s.Status,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		TrialEndsAt:        s.TrialEndsAt,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		GraceUntil:         s.GraceUntil,
		Seats:              s.Seats,
	}
}

// NewInvoiceResponse maps an invoice.
func NewInvoiceResponse(inv domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:          inv.ID,
		Plan:        inv.Plan,
		Interval:    inv.Interval,
		PeriodStart: inv.PeriodStart,
		PeriodEnd:   inv.PeriodEnd,
		Amount:      inv.Amount,
		Currency:    inv.Currency,
		Status:      inv.Status,
		PaidAt:      inv.PaidAt,
	}
}
