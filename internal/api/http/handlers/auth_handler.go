package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/perdeci/curtain-order-service/internal/api/dto"
	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/service"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// AuthHandler exposes session endpoints.
type AuthHandler struct {
	auth          *service.AuthService
	impersonation *service.ImpersonationService
}

// NewAuthHandler creates handler instance.
func NewAuthHandler(authService *service.AuthService, impersonation *service.ImpersonationService) *AuthHandler {
	return &AuthHandler{auth: authService, impersonation: impersonation}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		TenantName: req.TenantName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p := auth.PrincipalFromContext(c)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user_id":         p.UserID,
		"email":           p.Email,
		"role":            p.Role,
		"tenant_id":       p.TenantID,
		"tenant_role":     p.TenantRole,
		"impersonator_id": p.ImpersonatorID,
		"scope":           p.Scope,
	}})
}

// SelectTenant handles POST /auth/tenant/select.
func (h *AuthHandler) SelectTenant(c *fiber.Ctx) error {
	var req dto.SelectTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	session, err := h.auth.SelectTenant(c.UserContext(), auth.PrincipalFromContext(c), req.TenantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if err := h.auth.ChangePassword(c.UserContext(), auth.PrincipalFromContext(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RequestPasswordReset handles POST /auth/password/reset/request. Always 202.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"status": "requested"}})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Impersonate handles POST /auth/impersonate.
func (h *AuthHandler) Impersonate(c *fiber.Ctx) error {
	var req dto.ImpersonateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	grant, err := h.impersonation.Issue(c.UserContext(), auth.PrincipalFromContext(c), req.TargetUserID, req.Scope)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ImpersonationResponse{
		Token:        grant.Token,
		ExpiresAt:    grant.ExpiresAt,
		TargetUserID: grant.TargetUserID,
		Scope:        grant.Scope,
	}})
}

// ExchangeImpersonation handles POST /auth/impersonation/exchange.
func (h *AuthHandler) ExchangeImpersonation(c *fiber.Ctx) error {
	var req dto.ImpersonationExchangeRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return invalidPayload()
	}
	session, err := h.impersonation.Exchange(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// RevertImpersonation handles POST /auth/impersonation/revert.
func (h *AuthHandler) RevertImpersonation(c *fiber.Ctx) error {
	session, err := h.impersonation.Revert(c.UserContext(), auth.PrincipalFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// ImpersonationLogs handles GET /admin/impersonations.
func (h *AuthHandler) ImpersonationLogs(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil {
		return apperrors.NewValidationError("limit must be a number", nil)
	}
	logs, err := h.impersonation.Recent(c.UserContext(), limit)
	if err != nil {
		return err
	}
	resp := make([]dto.ImpersonationLogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, dto.ImpersonationLogResponse{
			ID:             l.ID,
			TargetUserID:   l.TargetUserID,
			ImpersonatorID: l.ImpersonatorID,
			Scope:          l.Scope,
			StartedAt:      l.StartedAt,
			EndedAt:        l.EndedAt,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

func sessionResponse(s *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		User:           dto.NewUserResponse(s.User),
		Auth:           dto.AuthResponse{Token: s.Token, ExpiresAt: s.ExpiresAt},
		TenantID:       s.Principal.TenantID,
		TenantRole:     s.Principal.TenantRole,
		ImpersonatorID: s.Principal.ImpersonatorID,
		Scope:          s.Principal.Scope,
	}
}
