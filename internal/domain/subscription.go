package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan enumerates subscription tiers.
type Plan string

const (
	PlanFree     Plan = "FREE"
	PlanPro      Plan = "PRO"
	PlanBusiness Plan = "BUSINESS"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanBusiness:
		return true
	}
	return false
}

// IsPaid reports whether the plan is billed.
func (p Plan) IsPaid() bool {
	return p == PlanPro || p == PlanBusiness
}

// SubscriptionStatus enumerates lifecycle states.
type SubscriptionStatus string

const (
	StatusTrialing SubscriptionStatus = "trialing"
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
)

// Subscription is the billing state of a tenant. At most one per tenant.
type Subscription struct {
	ID                 string
	TenantID           string
	Plan               Plan
	Status             SubscriptionStatus
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	TrialEndsAt        *time.Time
	CancelAtPeriodEnd  bool
	GraceUntil         *time.Time
	Seats              int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// StatusChange is one row moved by a bulk transition.
type StatusChange struct {
	TenantID string
	Plan     Plan
	From     SubscriptionStatus
	To       SubscriptionStatus
}

// BillingInterval is the length of a paid period.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalYearly  BillingInterval = "yearly"
)

// Valid reports whether i is a known interval.
func (i BillingInterval) Valid() bool {
	return i == IntervalMonthly || i == IntervalYearly
}

// PeriodEnd returns the end of a period of this interval starting at start.
func (i BillingInterval) PeriodEnd(start time.Time) time.Time {
	if i == IntervalYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// InvoiceStatus enumerates invoice states.
type InvoiceStatus string

const (
	InvoiceOpen InvoiceStatus = "open"
	InvoicePaid InvoiceStatus = "paid"
	InvoiceVoid InvoiceStatus = "void"
)

// Invoice records a billed period. Unique per (tenant, period start).
type Invoice struct {
	ID          string
	TenantID    string
	Plan        Plan
	Interval    BillingInterval
	PeriodStart time.Time
	PeriodEnd   time.Time
	Amount      decimal.Decimal
	Currency    string
	Status      InvoiceStatus
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TenantOverview is a tenant joined with its subscription for admin listings.
type TenantOverview struct {
	Tenant
	Subscription *Subscription
	MemberCount  int
}
