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

// CustomersHandler exposes customer CRUD inside the active tenant.
type CustomersHandler struct {
	customers *service.CustomerService
}

// NewCustomersHandler creates handler instance.
func NewCustomersHandler(customers *service.CustomerService) *CustomersHandler {
	return &CustomersHandler{customers: customers}
}

// Create handles POST /customers.
func (h *CustomersHandler) Create(c *fiber.Ctx) error {
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	customer, err := h.customers.Create(c.UserContext(), auth.ActiveTenantFromContext(c), customerInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}

// List handles GET /customers.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := repository.CustomerFilter{Limit: limit, Offset: offset}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}
	if branch := c.Query("branch_id"); branch != "" {
		filter.BranchID = &branch
	}
	customers, err := h.customers.List(c.UserContext(), auth.ActiveTenantFromContext(c), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		resp = append(resp, dto.NewCustomerResponse(&customers[i]))
	}
	return c.JSON(fiber.Map{"data": resp, "meta": fiber.Map{"limit": limit, "offset": offset}})
}

// Get handles GET /customers/:id.
func (h *CustomersHandler) Get(c *fiber.Ctx) error {
	customer, err := h.customers.Get(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}

// Update handles PUT /customers/:id.
func (h *CustomersHandler) Update(c *fiber.Ctx) error {
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	customer, err := h.customers.Update(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"), customerInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}

// Delete handles DELETE /customers/:id.
func (h *CustomersHandler) Delete(c *fiber.Ctx) error {
	if err := h.customers.Delete(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func customerInput(req dto.CustomerRequest) service.CustomerInput {
	return service.CustomerInput{
		BranchID: req.BranchID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
		Notes:    req.Notes,
	}
}
