package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/spec-kit/issue-tracker/internal/config"
)

const defaultHTTPTimeout = 15 * time.Second

type mailAPIRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
}

// HTTPSender delivers through a transactional mail API accepting a JSON
// message and a bearer key.
type HTTPSender struct {
	endpoint string
	apiKey   string
	from     string
	client   *fasthttp.Client
}

// NewHTTPSender returns a sender for cfg.
func NewHTTPSender(cfg config.NotificationConfig) *HTTPSender {
	return &HTTPSender{
		endpoint: cfg.APIEndpoint,
		apiKey:   cfg.APIKey,
		from:     cfg.EmailFrom,
		client: &fasthttp.Client{
			Name:         "issue-tracker-notify",
			ReadTimeout:  defaultHTTPTimeout,
			WriteTimeout: defaultHTTPTimeout,
		},
	}
}

func (s *HTTPSender) Name() string { return "http" }

// Send posts msg to the API, bounded by the ctx deadline when present.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	if s.endpoint == "" || s.apiKey == "" {
		return ErrNotConfigured
	}
	body, err := sonic.Marshal(mailAPIRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode mail request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+s.apiKey)
	req.SetBodyRaw(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultHTTPTimeout)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("mail api request: %w", err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return fmt.Errorf("mail api returned status %d", status)
	}
	return nil
}
