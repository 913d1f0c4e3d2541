package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// CustomerRequest payload for create and update.
type CustomerRequest struct {
	BranchID *string `json:"branch_id"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Address  string  `json:"address"`
	Notes    string  `json:"notes"`
}

// CustomerResponse is the public view of a customer.
type CustomerResponse struct {
	ID        string    `json:"id"`
	BranchID  *string   `json:"branch_id,omitempty"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItemRequest is one line of a new order.
type OrderItemRequest struct {
	VariantID   *string         `json:"variant_id"`
	Description string          `json:"description"`
	Fabric      string          `json:"fabric"`
	WidthCm     int             `json:"width_cm"`
	HeightCm    int             `json:"height_cm"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest payload.
type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	BranchID   *string            `json:"branch_id"`
	DealerID   *string            `json:"dealer_id"`
	Note       string             `json:"note"`
	Items      []OrderItemRequest `json:"items"`
}

// UpdateOrderStatusRequest payload.
type UpdateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// OrderItemResponse is one order line.
type OrderItemResponse struct {
	ID          string          `json:"id"`
	VariantID   *string         `json:"variant_id,omitempty"`
	Description string          `json:"description"`
	Fabric      string          `json:"fabric,omitempty"`
	WidthCm     int             `json:"width_cm"`
	HeightCm    int             `json:"height_cm"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResponse is the public view of an order.
type OrderResponse struct {
	ID         string              `json:"id"`
	Number     string              `json:"number"`
	CustomerID string              `json:"customer_id"`
	BranchID   *string             `json:"branch_id,omitempty"`
	DealerID   *string             `json:"dealer_id,omitempty"`
	Status     domain.OrderStatus  `json:"status"`
	Discount   decimal.Decimal     `json:"discount"`
	Total      decimal.Decimal     `json:"total"`
	Note       string              `json:"note,omitempty"`
	Items      []OrderItemResponse `json:"items,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// NewCustomerResponse maps a customer.
func NewCustomerResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		BranchID:  c.BranchID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewOrderResponse maps an order and its items.
func NewOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:         o.ID,
		Number:     o.Number,
		CustomerID: o.CustomerID,
		BranchID:   o.BranchID,
		DealerID:   o.DealerID,
		Status:     o.Status,
		Discount:   o.Discount,
		Total:      o.Total,
		Note:       o.Note,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:          item.ID,
			VariantID:   item.VariantID,
			Description: item.Description,
			Fabric:      item.Fabric,
			WidthCm:     item.WidthCm,
			HeightCm:    item.HeightCm,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal(),
		})
	}
	return resp
}
