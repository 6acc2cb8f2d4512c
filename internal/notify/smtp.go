package notify

import (
	"context"
	"sync"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/spec-kit/issue-tracker/internal/config"
)

const smtpConnectTimeout = 10 * time.Second

// SMTPSender delivers through an SMTP relay. The client is built on the first
// send and reused for the life of the process.
type SMTPSender struct {
	cfg config.NotificationConfig

	once    sync.Once
	client  *mail.Client
	initErr error
	mu      sync.Mutex
}

// NewSMTPSender returns a sender for cfg. Missing credentials surface as
// ErrNotConfigured on send.
func NewSMTPSender(cfg config.NotificationConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) configured() bool {
	return s.cfg.SMTPHost != "" && s.cfg.SMTPUser != "" && s.cfg.SMTPPass != ""
}

func (s *SMTPSender) from() string {
	if s.cfg.EmailFrom != "" {
		return s.cfg.EmailFrom
	}
	return s.cfg.SMTPUser
}

func (s *SMTPSender) connect() (*mail.Client, error) {
	s.once.Do(func() {
		opts := []mail.Option{
			mail.WithPort(s.cfg.SMTPPort),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.SMTPUser),
			mail.WithPassword(s.cfg.SMTPPass),
			mail.WithTimeout(smtpConnectTimeout),
		}
		if s.cfg.SMTPSecure {
			opts = append(opts, mail.WithSSL())
		} else {
			opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
		}
		s.client, s.initErr = mail.NewClient(s.cfg.SMTPHost, opts...)
	})
	return s.client, s.initErr
}

// Send delivers msg, honoring ctx cancellation.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !s.configured() {
		return ErrNotConfigured
	}
	client, err := s.connect()
	if err != nil {
		return err
	}

	m := mail.NewMsg()
	if err := m.From(s.from()); err != nil {
		return err
	}
	if err := m.To(msg.To); err != nil {
		return err
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	s.mu.Lock()
	defer s.mu.Unlock()
	return client.DialAndSendWithContext(ctx, m)
}
