package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMemberInvited             EventType = "member.invited"
	EventPasswordResetRequested    EventType = "password_reset.requested"
	EventSubscriptionStatusChanged EventType = "subscription.status_changed"
	EventImpersonationStarted      EventType = "impersonation.started"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TenantID  string      `json:"tenant_id,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with an id and timestamp.
func New(eventType EventType, tenantID, actorID string, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TenantID:  tenantID,
		ActorID:   actorID,
		Timestamp: at,
		Payload:   payload,
	}
}

// MemberInvitedPayload payload.
type MemberInvitedPayload struct {
	UserID        string            `json:"user_id"`
	Email         string            `json:"email"`
	TenantName    string            `json:"tenant_name"`
	Role          domain.TenantRole `json:"role"`
	TemporaryPass string            `json:"-"`
}

// PasswordResetRequestedPayload payload.
type PasswordResetRequestedPayload struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SubscriptionStatusChangedPayload payload. Source is "gate", "sweep" or "billing".
type SubscriptionStatusChangedPayload struct {
	OldStatus domain.SubscriptionStatus `json:"old_status"`
	NewStatus domain.SubscriptionStatus `json:"new_status"`
	Plan      domain.Plan               `json:"plan"`
	Source    string                    `json:"source"`
}

// ImpersonationStartedPayload payload.
type ImpersonationStartedPayload struct {
	TargetUserID string                    `json:"target_user_id"`
	Scope        domain.ImpersonationScope `json:"scope"`
	ExpiresAt    time.Time                 `json:"expires_at"`
}
