package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/perdeci/curtain-order-service/internal/api/dto"
	"github.com/perdeci/curtain-order-service/internal/billing"
	"github.com/perdeci/curtain-order-service/internal/domain"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// BillingHandler exposes subscription management.
type BillingHandler struct {
	billing *billing.Service
}

// NewBillingHandler creates handler instance.
func NewBillingHandler(billingService *billing.Service) *BillingHandler {
	return &BillingHandler{billing: billingService}
}

// Status handles GET /workspace/billing.
func (h *BillingHandler) Status(c *fiber.Ctx) error {
	tenantID, err := scopedTenant(c)
	if err != nil {
		return err
	}
	sub, err := h.billing.Status(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubscriptionResponse(sub)})
}

// Invoices handles GET /workspace/billing/invoices.
func (h *BillingHandler) Invoices(c *fiber.Ctx) error {
	tenantID, err := scopedTenant(c)
	if err != nil {
		return err
	}
	invoices, err := h.billing.Invoices(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	resp := make([]dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		resp = append(resp, dto.NewInvoiceResponse(inv))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Checkout handles POST /workspace/billing/checkout.
func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	tenantID, err := scopedTenant(c)
	if err != nil {
		return err
	}
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if req.Interval == "" {
		req.Interval = domain.IntervalMonthly
	}
	session, err := h.billing.Checkout(c.UserContext(), tenantID, req.Plan, req.Interval)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CheckoutResponse{
		SessionID:    session.ID,
		URL:          session.URL,
		Subscription: dto.NewSubscriptionResponse(session.Subscription),
	}})
}

// Cancel handles POST /workspace/billing/cancel.
func (h *BillingHandler) Cancel(c *fiber.Ctx) error {
	tenantID, err := scopedTenant(c)
	if err != nil {
		return err
	}
	var req dto.CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	var sub *domain.Subscription
	switch req.Mode {
	case "now":
		sub, err = h.billing.CancelNow(c.UserContext(), tenantID)
	case "", "period_end":
		sub, err = h.billing.CancelAtPeriodEnd(c.UserContext(), tenantID)
	default:
		return apperrors.NewValidationError("mode must be now or period_end", map[string]any{"mode": req.Mode})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubscriptionResponse(sub)})
}

// Resume handles POST /workspace/billing/resume.
func (h *BillingHandler) Resume(c *fiber.Ctx) error {
	tenantID, err := scopedTenant(c)
	if err != nil {
		return err
	}
	sub, err := h.billing.Resume(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubscriptionResponse(sub)})
}

// PayMonth handles POST /admin/tenants/:tenantID/billing/pay-month.
func (h *BillingHandler) PayMonth(c *fiber.Ctx) error {
	var req dto.RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	month, err := parseMonth(req.Period)
	if err != nil {
		return err
	}
	invoice, err := h.billing.PayMonth(c.UserContext(), c.Params("tenantID"), month, req.Plan)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInvoiceResponse(*invoice)})
}

// PayYear handles POST /admin/tenants/:tenantID/billing/pay-year.
func (h *BillingHandler) PayYear(c *fiber.Ctx) error {
	var req dto.RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	start, err := parseMonth(req.Period)
	if err != nil {
		return err
	}
	invoice, err := h.billing.PayYear(c.UserContext(), c.Params("tenantID"), start, req.Plan)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInvoiceResponse(*invoice)})
}

// ExtendGrace handles POST /admin/tenants/:tenantID/billing/extend-grace.
func (h *BillingHandler) ExtendGrace(c *fiber.Ctx) error {
	var req dto.ExtendGraceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	sub, err := h.billing.ExtendGrace(c.UserContext(), c.Params("tenantID"), req.Until)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubscriptionResponse(sub)})
}
