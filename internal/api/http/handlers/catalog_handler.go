package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/perdeci/curtain-order-service/internal/api/dto"
	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/service"
)

// CatalogHandler exposes fabric categories and variants inside the active tenant.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates handler instance.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories handles GET /categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext(), auth.ActiveTenantFromContext(c))
	if err != nil {
		return err
	}
	resp := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		resp = append(resp, dto.NewCategoryResponse(&categories[i], nil))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateCategory handles POST /categories.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	category, err := h.catalog.CreateCategory(c.UserContext(), auth.ActiveTenantFromContext(c), service.CategoryInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCategoryResponse(category, nil)})
}

// GetCategory handles GET /categories/:id.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	category, err := h.catalog.GetCategory(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponse(&category.Category, category.Variants)})
}

// UpdateCategory handles PUT /categories/:id.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	category, err := h.catalog.UpdateCategory(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"), service.CategoryInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponse(category, nil)})
}

// DeleteCategory handles DELETE /categories/:id.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.catalog.DeleteCategory(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListVariants handles GET /categories/:id/variants. ?active=true hides retired variants.
func (h *CatalogHandler) ListVariants(c *fiber.Ctx) error {
	variants, err := h.catalog.ListVariants(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"), c.QueryBool("active"))
	if err != nil {
		return err
	}
	resp := make([]dto.VariantResponse, 0, len(variants))
	for i := range variants {
		resp = append(resp, dto.NewVariantResponse(&variants[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateVariant handles POST /categories/:id/variants.
func (h *CatalogHandler) CreateVariant(c *fiber.Ctx) error {
	var req dto.VariantRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	variant, err := h.catalog.CreateVariant(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"), service.VariantInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewVariantResponse(variant)})
}

// UpdateVariant handles PUT /variants/:id.
func (h *CatalogHandler) UpdateVariant(c *fiber.Ctx) error {
	var req dto.VariantRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	variant, err := h.catalog.UpdateVariant(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id"), service.VariantInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVariantResponse(variant)})
}

// DeleteVariant handles DELETE /variants/:id.
func (h *CatalogHandler) DeleteVariant(c *fiber.Ctx) error {
	if err := h.catalog.DeleteVariant(c.UserContext(), auth.ActiveTenantFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
