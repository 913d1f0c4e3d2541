package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/perdeci/curtain-order-service/internal/api/dto"
	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/repository"
	"github.com/perdeci/curtain-order-service/internal/service"
)

// DealersHandler exposes resellers inside the active tenant.
type DealersHandler struct {
	dealers *service.DealerService
}

// NewDealersHandler creates handler instance.
func NewDealersHandler(dealers *service.DealerService) *DealersHandler {
	return &DealersHandler{dealers: dealers}
}

// Create handles POST /dealers.
func (h *DealersHandler) Create(c *fiber.Ctx) error {
	var req dto.DealerRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	dealer, err := h.dealers.Create(c.UserContext(), auth.ActiveTenantFromContext(c), service.DealerInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewDealerResponse(dealer)})
}

// List handles GET /dealers.
func (h *DealersHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := repository.DealerFilter{Limit: limit, Offset: offset, ActiveOnly: c.QueryBool("active")}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}
	dealers, err := h.dealers.List(c.UserContext(), auth.ActiveTenantFromContext(c), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.DealerResponse, 0, len(dealers))
	for i := range dealers {
		resp = append(resp, dto.NewDealerResponse(&dealers[i]))
	}
	return c.JSON(fiber.Map{"data": resp, "meta": fiber.Map{"limit": limit, "offset": offset}})
}

// Get handles GET /dealers/:id.
func (h *DealersHandler) Get(c *fiber.Ctx) error {
	dealer, err := h.dealers.Get(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDealerResponse(dealer)})
}

// Update handles PUT /dealers/:id.
func (h *DealersHandler) Update(c *fiber.Ctx) error {
	var req dto.DealerRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	dealer, err := h.dealers.Update(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"), service.DealerInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDealerResponse(dealer)})
}

// Delete handles DELETE /dealers/:id.
func (h *DealersHandler) Delete(c *fiber.Ctx) error {
	if err := h.dealers.Delete(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
