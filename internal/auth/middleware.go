package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer access tokens and loads principals.
type AuthMiddleware struct {
	tokens      *TokenManager
	users       repository.UserRepository
	memberships repository.MembershipRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, memberships repository.MembershipRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, memberships: memberships}
}

// Handle enforces authentication for protected routes. The global role and
// tenant role are re-read from the store so demotions apply immediately.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := bearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw, domain.TokenTypeAccess)
	if err != nil {
		return apperrors.NewUnauthenticated("invalid token")
	}

	ctx := c.UserContext()
	user, err := m.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewUnauthenticated("user not found")
		}
		return apperrors.MapError(err)
	}
	if !user.IsActive {
		return apperrors.NewUnauthenticated("user is inactive")
	}

	principal := claims.Principal()
	principal.Email = user.Email
	principal.Role = user.Role

	if principal.TenantID != "" {
		membership, err := m.memberships.Get(ctx, user.ID, principal.TenantID)
		switch {
		case err == nil:
			principal.TenantRole = membership.Role
		case apperrors.IsNotFound(err):
			if !principal.IsSuperAdmin() {
				principal.TenantID = ""
				principal.TenantRole = ""
			}
		default:
			return apperrors.MapError(err)
		}
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", apperrors.NewUnauthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthenticated("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFromContext retrieves the authenticated principal. A nil result
// is passed on to guards, which reject it as unauthenticated.
func PrincipalFromContext(c *fiber.Ctx) *domain.Principal {
	principal, _ := c.Locals(principalKey).(*domain.Principal)
	return principal
}

// WithPrincipal stores p on the request. Used by tests and internal routes.
func WithPrincipal(c *fiber.Ctx, p *domain.Principal) {
	c.Locals(principalKey, p)
}
