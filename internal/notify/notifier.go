// Package notify delivers account emails through an interchangeable provider.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/config"
)

// ErrNotConfigured is returned when the selected provider lacks credentials.
var ErrNotConfigured = errors.New("SMTP not configured")

// Notifier sends account lifecycle emails. Implementations are safe for
// concurrent use and may be called from detached goroutines.
type Notifier interface {
	SendInvitation(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Links builds the frontend URLs embedded in emails.
type Links struct {
	Frontend string
}

// Invitation returns the accept-invitation URL for token.
func (l Links) Invitation(token string) string {
	return l.Frontend + "/accept-invitation?token=" + url.QueryEscape(token)
}

// PasswordReset returns the reset-password URL for token.
func (l Links) PasswordReset(token string) string {
	return l.Frontend + "/reset-password?token=" + url.QueryEscape(token)
}

// Mailer renders templates and hands them to a Sender, bounding each send
// by a timeout.
type Mailer struct {
	sender  Sender
	links   Links
	timeout time.Duration
	logger  *zap.Logger
}

// NewMailer composes a Notifier from a sender.
func NewMailer(sender Sender, links Links, timeout time.Duration, logger *zap.Logger) *Mailer {
	return &Mailer{sender: sender, links: links, timeout: timeout, logger: logger}
}

// New selects the provider named in cfg.
func New(cfg config.NotificationConfig, frontendURL string, logger *zap.Logger) (*Mailer, error) {
	var sender Sender
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "smtp":
		sender = NewSMTPSender(cfg)
	case "http":
		sender = NewHTTPSender(cfg)
	default:
		return nil, fmt.Errorf("unknown notification provider %q", cfg.Provider)
	}
	return NewMailer(sender, Links{Frontend: frontendURL}, cfg.SendTimeout(), logger), nil
}

// SendInvitation emails an invitation link.
func (m *Mailer) SendInvitation(ctx context.Context, email, token string) error {
	msg, err := renderInvitation(email, m.links.Invitation(token))
	if err != nil {
		return err
	}
	return m.deliver(ctx, "invitation", msg)
}

// SendPasswordReset emails a password reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, email, token string) error {
	msg, err := renderPasswordReset(email, m.links.PasswordReset(token))
	if err != nil {
		return err
	}
	return m.deliver(ctx, "password_reset", msg)
}

func (m *Mailer) deliver(ctx context.Context, kind string, msg Message) error {
	ctx, span := otel.Tracer("notify").Start(ctx, "notify."+kind)
	defer span.End()
	span.SetAttributes(attribute.String("notify.provider", m.sender.Name()))

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.Warn("email delivery failed",
			zap.String("kind", kind),
			zap.String("provider", m.sender.Name()),
			zap.Error(err))
		return err
	}
	m.logger.Info("email delivered", zap.String("kind", kind), zap.String("provider", m.sender.Name()))
	return nil
}
