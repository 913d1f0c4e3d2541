// Package mail defines the outbound email boundary.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSendFailed wraps every delivery failure.
var ErrSendFailed = errors.New("email send failed")

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages and returns a provider delivery id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	from   string
	logger *zap.Logger
}

// NewLogSender constructs a logging sender.
func NewLogSender(from string, logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{from: from, logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if strings.TrimSpace(msg.To) == "" {
		return "", fmt.Errorf("%w: empty recipient", ErrSendFailed)
	}
	id := uuid.NewString()
	s.logger.Info("email queued",
		zap.String("delivery_id", id),
		zap.String("from", s.from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("text_bytes", len(msg.Text)))
	return id, nil
}
