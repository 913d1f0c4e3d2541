package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/config"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/mail"
	"github.com/perdeci/curtain-order-service/internal/repository"
)

// NotificationService turns domain events into emails.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     mail.Sender
	store      repository.Provider
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sender mail.Sender, store repository.Provider, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		store:      store,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.sender == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventMemberInvited, n.handleMemberInvited)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventSubscriptionStatusChanged, n.handleSubscriptionStatusChanged)
}

func (n *NotificationService) handleMemberInvited(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MemberInvitedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	loginURL := n.link("/login", nil)
	text := fmt.Sprintf("You have been added to %s as %s.\nSign in at %s", payload.TenantName, payload.Role, loginURL)
	if payload.TemporaryPass != "" {
		text += fmt.Sprintf("\nTemporary password: %s\nYou will be asked to change it after signing in.", payload.TemporaryPass)
	}
	return n.send(ctx, event, mail.Message{
		To:      payload.Email,
		Subject: fmt.Sprintf("You have been invited to %s", payload.TenantName),
		Text:    text,
		HTML:    toHTML(text),
	})
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	resetURL := n.link("/reset-password", url.Values{"token": {payload.Token}})
	text := fmt.Sprintf("Use the link below to choose a new password. It expires at %s.\n%s",
		payload.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"), resetURL)
	return n.send(ctx, event, mail.Message{
		To:      payload.Email,
		Subject: "Reset your password",
		Text:    text,
		HTML:    toHTML(text),
	})
}

func (n *NotificationService) handleSubscriptionStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SubscriptionStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	var subject, text string
	switch payload.NewStatus {
	case domain.StatusCanceled:
		subject = "Your subscription has ended"
		text = "Your subscription is no longer active. Choose a plan to keep using the service."
	case domain.StatusPastDue:
		subject = "Payment overdue"
		text = "We could not confirm payment for the current period. Access is paused until payment is recorded."
	default:
		return nil
	}
	text += "\n" + n.link("/billing", nil)

	members, err := n.store.Repos().Memberships.ListForTenant(ctx, event.TenantID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.Role != domain.TenantRoleOwner || !m.IsActive {
			continue
		}
		if err := n.send(ctx, event, mail.Message{To: m.Email, Subject: subject, Text: text, HTML: toHTML(text)}); err != nil {
			return err
		}
	}
	return nil
}

func (n *NotificationService) send(ctx context.Context, event events.Event, msg mail.Message) error {
	id, err := n.sender.Send(ctx, msg)
	if err != nil {
		return err
	}
	n.logger.Debug("notification sent",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
		zap.String("delivery_id", id))
	return nil
}

func (n *NotificationService) link(path string, query url.Values) string {
	base := strings.TrimRight(n.cfg.AppBaseURL, "/")
	if len(query) == 0 {
		return base + path
	}
	return base + path + "?" + query.Encode()
}

func toHTML(text string) string {
	escaped := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(text)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}
