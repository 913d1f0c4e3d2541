package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/perdeci/curtain-order-service/internal/api/dto"
	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
	"github.com/perdeci/curtain-order-service/internal/service"
)

// OrdersHandler exposes curtain orders inside the active tenant.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler creates handler instance.
func NewOrdersHandler(orders *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// Create handles POST /orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	input := service.OrderCreateInput{
		CustomerID: req.CustomerID,
		BranchID:   req.BranchID,
		DealerID:   req.DealerID,
		Note:       req.Note,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, domain.OrderItem{
			VariantID:   item.VariantID,
			Description: item.Description,
			Fabric:      item.Fabric,
			WidthCm:     item.WidthCm,
			HeightCm:    item.HeightCm,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	order, err := h.orders.Create(c.UserContext(), auth.ActiveTenantFromContext(c), auth.PrincipalFromContext(c).UserID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// List handles GET /orders.
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := repository.OrderFilter{Limit: limit, Offset: offset}
	if customer := c.Query("customer_id"); customer != "" {
		filter.CustomerID = &customer
	}
	if dealer := c.Query("dealer_id"); dealer != "" {
		filter.DealerID = &dealer
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.OrderStatus(strings.TrimSpace(s)))
		}
	}
	orders, err := h.orders.List(c.UserContext(), auth.ActiveTenantFromContext(c), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, dto.NewOrderResponse(&orders[i]))
	}
	return c.JSON(fiber.Map{"data": resp, "meta": fiber.Map{"limit": limit, "offset": offset}})
}

// Get handles GET /orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	order, err := h.orders.Get(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// UpdateStatus handles PATCH /orders/:id/status.
func (h *OrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	order, err := h.orders.UpdateStatus(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}
