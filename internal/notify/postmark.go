package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yukikurage/daily-tracker/internal/constants"
)

const postmarkEndpoint = "https://api.postmarkapp.com/email"

// PostmarkSender sends codes by email through the Postmark API.
type PostmarkSender struct {
	serverToken string
	fromEmail   string
	endpoint    string
	httpClient  *http.Client
}

type PostmarkOption func(*PostmarkSender)

func WithHTTPClient(c *http.Client) PostmarkOption {
	return func(s *PostmarkSender) {
		s.httpClient = c
	}
}

func WithEndpoint(url string) PostmarkOption {
	return func(s *PostmarkSender) {
		s.endpoint = url
	}
}

func NewPostmarkSender(serverToken, fromEmail string, opts ...PostmarkOption) *PostmarkSender {
	s := &PostmarkSender{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		endpoint:    postmarkEndpoint,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured returns true if the server token is set.
func (s *PostmarkSender) Configured() bool {
	return s.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

func (s *PostmarkSender) SendCode(ctx context.Context, to, code string) error {
	if !s.Configured() {
		return fmt.Errorf("email sender not configured: missing server token")
	}

	minutes := int(constants.OTPTTL.Minutes())
	payload := postmarkEmail{
		From:     s.fromEmail,
		To:       to,
		Subject:  "Your Daily Tracker verification code",
		TextBody: fmt.Sprintf("Your verification code is %s.\n\nIt expires in %d minutes.", code, minutes),
		HtmlBody: fmt.Sprintf(
			`<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>`,
			code, minutes,
		),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", s.serverToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}
	return nil
}
