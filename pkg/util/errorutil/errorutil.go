package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error codes surfaced to API clients.
const (
	CodeValidation           = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeForbiddenOtherTenant = "FORBIDDEN_OTHER_TENANT"
	CodeNoTenant             = "NO_TENANT"
	CodeTenantNotSelected    = "TENANT_NOT_SELECTED"
	CodeConflict             = "CONFLICT"
	CodePaymentRequired      = "PAYMENT_REQUIRED"
	CodeTrialExpired         = "TRIAL_EXPIRED"
	CodeInactive             = "SUBSCRIPTION_INACTIVE"
	CodeUserInactive         = "USER_INACTIVE"
	CodeNotImpersonating     = "NOT_IMPERSONATING"
	CodeAdminNotActive       = "ADMIN_NOT_ACTIVE"
	CodeInternal             = "INTERNAL_ERROR"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so sentinels work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks. Never return these directly from handlers
// that attach details; use the constructors instead.
var (
	ErrUnauthenticated      = &DomainError{Code: CodeUnauthenticated, Message: "authentication required", HTTPStatus: http.StatusUnauthorized}
	ErrUnauthorized         = &DomainError{Code: CodeUnauthorized, Message: "unauthorized", HTTPStatus: http.StatusUnauthorized}
	ErrForbidden            = &DomainError{Code: CodeForbidden, Message: "forbidden", HTTPStatus: http.StatusForbidden}
	ErrForbiddenOtherTenant = &DomainError{Code: CodeForbiddenOtherTenant, Message: "operation targets another tenant", HTTPStatus: http.StatusForbidden}
	ErrNoTenant             = &DomainError{Code: CodeNoTenant, Message: "no tenant membership", HTTPStatus: http.StatusBadRequest}
	ErrTenantNotSelected    = &DomainError{Code: CodeTenantNotSelected, Message: "no tenant selected", HTTPStatus: http.StatusBadRequest}
	ErrNotFound             = &DomainError{Code: CodeNotFound, Message: "resource not found", HTTPStatus: http.StatusNotFound}
	ErrConflict             = &DomainError{Code: CodeConflict, Message: "resource already exists", HTTPStatus: http.StatusConflict}
	ErrValidation           = &DomainError{Code: CodeValidation, Message: "validation failed", HTTPStatus: http.StatusBadRequest}
	ErrPaymentRequired      = &DomainError{Code: CodePaymentRequired, Message: "payment required", HTTPStatus: http.StatusPaymentRequired}
	ErrTrialExpired         = &DomainError{Code: CodeTrialExpired, Message: "trial expired", HTTPStatus: http.StatusPaymentRequired}
	ErrInactive             = &DomainError{Code: CodeInactive, Message: "subscription inactive", HTTPStatus: http.StatusPaymentRequired}
	ErrUserInactive         = &DomainError{Code: CodeUserInactive, Message: "user is inactive", HTTPStatus: http.StatusBadRequest}
	ErrNotImpersonating     = &DomainError{Code: CodeNotImpersonating, Message: "session is not impersonating", HTTPStatus: http.StatusBadRequest}
	ErrAdminNotActive       = &DomainError{Code: CodeAdminNotActive, Message: "original admin is no longer active", HTTPStatus: http.StatusForbidden}
	ErrInternal             = &DomainError{Code: CodeInternal, Message: "internal server error", HTTPStatus: http.StatusInternalServerError}
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthenticated(message string) error {
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewForbiddenOtherTenant(sessionTenantID, targetTenantID string) error {
	return NewDomainError(CodeForbiddenOtherTenant, "operation targets another tenant", http.StatusForbidden, map[string]any{
		"session_tenant_id": sessionTenantID,
		"target_tenant_id":  targetTenantID,
	})
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewPaymentRequired(message string, details map[string]any) error {
	return NewDomainError(CodePaymentRequired, message, http.StatusPaymentRequired, details)
}

func NewTrialExpired(tenantID string) error {
	return NewDomainError(CodeTrialExpired, "trial expired", http.StatusPaymentRequired, map[string]any{"tenant_id": tenantID})
}

func NewInactive(tenantID string) error {
	return NewDomainError(CodeInactive, "subscription inactive", http.StatusPaymentRequired, map[string]any{"tenant_id": tenantID})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsNotFound reports whether err means "no row".
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrNotFound)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return &DomainError{
			Code:       CodeNotFound,
			Message:    "resource not found",
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &DomainError{
			Code:       CodeConflict,
			Message:    "resource already exists",
			HTTPStatus: http.StatusConflict,
			Details:    map[string]any{"constraint": pgErr.ConstraintName},
			Err:        err,
		}
	}
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return &DomainError{
			Code:       CodeValidation,
			Message:    "referenced resource does not exist or is still in use",
			HTTPStatus: http.StatusBadRequest,
			Details:    map[string]any{"constraint": pgErr.ConstraintName},
			Err:        err,
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
