package notify

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/config"
)

type recordingSender struct {
	messages    []Message
	hadDeadline bool
	err         error
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) Send(ctx context.Context, msg Message) error {
	_, r.hadDeadline = ctx.Deadline()
	r.messages = append(r.messages, msg)
	return r.err
}

func TestLinks(t *testing.T) {
	links := Links{Frontend: "https://tracker.example.com"}
	assert.Equal(t, "https://tracker.example.com/accept-invitation?token=abc123", links.Invitation("abc123"))
	assert.Equal(t, "https://tracker.example.com/reset-password?token=abc123", links.PasswordReset("abc123"))
}

func TestMailerRendersAndBoundsSend(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender, Links{Frontend: "http://localhost:3000"}, time.Second, zap.NewNop())

	require.NoError(t, m.SendInvitation(context.Background(), "new@example.com", "tok"))
	require.NoError(t, m.SendPasswordReset(context.Background(), "old@example.com", "tok2"))

	require.Len(t, sender.messages, 2)
	assert.True(t, sender.hadDeadline)

	invite := sender.messages[0]
	assert.Equal(t, "new@example.com", invite.To)
	assert.Equal(t, "You have been invited to join Issue Tracker", invite.Subject)
	assert.Contains(t, invite.Text, "http://localhost:3000/accept-invitation?token=tok")
	assert.Contains(t, invite.Text, "7 days")
	assert.Contains(t, invite.HTML, `href="http://localhost:3000/accept-invitation?token=tok"`)

	reset := sender.messages[1]
	assert.Equal(t, "Reset Your Password - Issue Tracker", reset.Subject)
	assert.Contains(t, reset.Text, "http://localhost:3000/reset-password?token=tok2")
	assert.Contains(t, reset.Text, "1 hour")
}

func TestMailerReturnsSenderError(t *testing.T) {
	sender := &recordingSender{err: ErrNotConfigured}
	m := NewMailer(sender, Links{}, time.Second, zap.NewNop())
	assert.ErrorIs(t, m.SendInvitation(context.Background(), "a@example.com", "t"), ErrNotConfigured)
}

func TestNewSelectsProvider(t *testing.T) {
	m, err := New(config.NotificationConfig{Provider: "smtp"}, "http://x", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "smtp", m.sender.Name())

	m, err = New(config.NotificationConfig{Provider: "HTTP"}, "http://x", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http", m.sender.Name())

	_, err = New(config.NotificationConfig{Provider: "pigeon"}, "http://x", zap.NewNop())
	assert.Error(t, err)
}

func TestSMTPSenderRequiresCredentials(t *testing.T) {
	s := NewSMTPSender(config.NotificationConfig{SMTPHost: "smtp.example.com"})
	err := s.Send(context.Background(), Message{To: "a@example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "SMTP not configured", err.Error())
}

func TestSMTPSenderFromFallsBackToUser(t *testing.T) {
	s := NewSMTPSender(config.NotificationConfig{SMTPUser: "mailer@example.com"})
	assert.Equal(t, "mailer@example.com", s.from())
}

func startMailAPI(t *testing.T, status int, seen chan<- *fasthttp.Request) *fasthttputil.InmemoryListener {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		copied := &fasthttp.Request{}
		ctx.Request.CopyTo(copied)
		seen <- copied
		ctx.SetStatusCode(status)
	}}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

func TestHTTPSender(t *testing.T) {
	cfg := config.NotificationConfig{
		APIEndpoint: "http://mail.test/v1/send",
		APIKey:      "secret",
		EmailFrom:   "noreply@example.com",
	}

	t.Run("posts json with bearer key", func(t *testing.T) {
		seen := make(chan *fasthttp.Request, 1)
		ln := startMailAPI(t, fasthttp.StatusAccepted, seen)
		s := NewHTTPSender(cfg)
		s.client.Dial = func(string) (net.Conn, error) { return ln.Dial() }

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, s.Send(ctx, Message{To: "a@example.com", Subject: "hi", Text: "t", HTML: "<p>h</p>"}))

		req := <-seen
		assert.Equal(t, "Bearer secret", string(req.Header.Peek(fasthttp.HeaderAuthorization)))
		assert.Equal(t, "application/json", string(req.Header.ContentType()))

		var payload mailAPIRequest
		require.NoError(t, sonic.Unmarshal(req.Body(), &payload))
		assert.Equal(t, []string{"a@example.com"}, payload.To)
		assert.Equal(t, "noreply@example.com", payload.From)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		seen := make(chan *fasthttp.Request, 1)
		ln := startMailAPI(t, fasthttp.StatusUnauthorized, seen)
		s := NewHTTPSender(cfg)
		s.client.Dial = func(string) (net.Conn, error) { return ln.Dial() }

		err := s.Send(context.Background(), Message{To: "a@example.com"})
		assert.ErrorContains(t, err, "status 401")
	})

	t.Run("missing key", func(t *testing.T) {
		s := NewHTTPSender(config.NotificationConfig{APIEndpoint: cfg.APIEndpoint})
		assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNotConfigured)
	})
}
