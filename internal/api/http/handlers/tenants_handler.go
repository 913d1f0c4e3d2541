package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/perdeci/curtain-order-service/internal/api/dto"
	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/service"
)

// TenantsHandler exposes tenant listing and provisioning.
type TenantsHandler struct {
	tenants *service.TenantService
}

// NewTenantsHandler creates handler instance.
func NewTenantsHandler(tenants *service.TenantService) *TenantsHandler {
	return &TenantsHandler{tenants: tenants}
}

// Mine handles GET /tenants.
func (h *TenantsHandler) Mine(c *fiber.Ctx) error {
	items, err := h.tenants.ListMine(c.UserContext(), auth.PrincipalFromContext(c).UserID)
	if err != nil {
		return err
	}
	resp := make([]dto.TenantResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.NewTenantResponse(item.Tenant, item.Role))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Create handles POST /admin/tenants.
func (h *TenantsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	tenant, err := h.tenants.Create(c.UserContext(), auth.PrincipalFromContext(c).UserID, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTenantResponse(*tenant, domain.TenantRoleOwner)})
}

// Overview handles GET /admin/tenants.
func (h *TenantsHandler) Overview(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	items, err := h.tenants.Overview(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.TenantOverviewResponse, 0, len(items))
	for _, item := range items {
		entry := dto.TenantOverviewResponse{
			TenantResponse: dto.NewTenantResponse(item.Tenant, ""),
			MemberCount:    item.MemberCount,
		}
		if item.Subscription != nil {
			sub := dto.NewSubscriptionResponse(item.Subscription)
			entry.Subscription = &sub
		}
		resp = append(resp, entry)
	}
	return c.JSON(fiber.Map{"data": resp, "meta": fiber.Map{"limit": limit, "offset": offset}})
}
