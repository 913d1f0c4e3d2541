package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/perdeci/curtain-order-service/internal/access"
	"github.com/perdeci/curtain-order-service/internal/auth"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

const maxPageSize = 100

func pagination(c *fiber.Ctx) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > maxPageSize {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// scopedTenant returns the tenant an admin request operates on.
func scopedTenant(c *fiber.Ctx) (string, error) {
	tenantID := access.ScopeTenantID(auth.AdminScopeFromContext(c))
	if tenantID == "" {
		return "", apperrors.ErrTenantNotSelected
	}
	return tenantID, nil
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}

// parseMonth accepts YYYY-MM; empty means the current month.
func parseMonth(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	month, err := time.Parse("2006-01", raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("period must be YYYY-MM", map[string]any{"period": raw})
	}
	return month, nil
}
