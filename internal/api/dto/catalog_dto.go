package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// CategoryRequest payload for create and update.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// VariantRequest payload for create and update.
type VariantRequest struct {
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	IsActive  *bool           `json:"is_active"`
}

// DealerRequest payload for create and update.
type DealerRequest struct {
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	Address         string          `json:"address"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	IsActive        *bool           `json:"is_active"`
}

// VariantResponse is the public view of a variant.
type VariantResponse struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	IsActive   bool            `json:"is_active"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CategoryResponse is the public view of a category.
type CategoryResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Variants    []VariantResponse `json:"variants,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// DealerResponse is the public view of a dealer.
type DealerResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone,omitempty"`
	Email           string          `json:"email,omitempty"`
	Address         string          `json:"address,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewCategoryResponse maps a category and, when given, its variants.
func NewCategoryResponse(c *domain.Category, variants []domain.Variant) CategoryResponse {
	resp := CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for i := range variants {
		resp.Variants = append(resp.Variants, NewVariantResponse(&variants[i]))
	}
	return resp
}

// NewVariantResponse maps a variant.
func NewVariantResponse(v *domain.Variant) VariantResponse {
	return VariantResponse{
		ID:         v.ID,
		CategoryID: v.CategoryID,
		Name:       v.Name,
		SKU:        v.SKU,
		UnitPrice:  v.UnitPrice,
		IsActive:   v.IsActive,
		UpdatedAt:  v.UpdatedAt,
	}
}

// NewDealerResponse maps a dealer.
func NewDealerResponse(d *domain.Dealer) DealerResponse {
	return DealerResponse{
		ID:              d.ID,
		Name:            d.Name,
		Phone:           d.Phone,
		Email:           d.Email,
		Address:         d.Address,
		DiscountPercent: d.DiscountPercent,
		IsActive:        d.IsActive,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
