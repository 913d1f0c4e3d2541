package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/perdeci/curtain-order-service/internal/api/dto"
	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/service"
)

// MembersHandler exposes tenant member management to tenant admins.
type MembersHandler struct {
	members *service.MembershipService
}

// NewMembersHandler creates handler instance.
func NewMembersHandler(members *service.MembershipService) *MembersHandler {
	return &MembersHandler{members: members}
}

// List handles GET /workspace/members.
func (h *MembersHandler) List(c *fiber.Ctx) error {
	tenantID, err := scopedTenant(c)
	if err != nil {
		return err
	}
	members, err := h.members.List(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	resp := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, dto.NewMemberResponse(m))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Invite handles POST /workspace/members.
func (h *MembersHandler) Invite(c *fiber.Ctx) error {
	tenantID, err := scopedTenant(c)
	if err != nil {
		return err
	}
	var req dto.InviteMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	membership, err := h.members.Invite(c.UserContext(), tenantID, auth.PrincipalFromContext(c).UserID, service.InviteInput{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"user_id":   membership.UserID,
		"tenant_id": membership.TenantID,
		"role":      membership.Role,
	}})
}

// ChangeRole handles PATCH /workspace/members/:userID.
func (h *MembersHandler) ChangeRole(c *fiber.Ctx) error {
	tenantID, err := scopedTenant(c)
	if err != nil {
		return err
	}
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	membership, err := h.members.ChangeRole(c.UserContext(), tenantID, c.Params("userID"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user_id":   membership.UserID,
		"tenant_id": membership.TenantID,
		"role":      membership.Role,
	}})
}

// Remove handles DELETE /workspace/members/:userID.
func (h *MembersHandler) Remove(c *fiber.Ctx) error {
	tenantID, err := scopedTenant(c)
	if err != nil {
		return err
	}
	if err := h.members.Remove(c.UserContext(), tenantID, c.Params("userID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
