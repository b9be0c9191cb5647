package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

// Mailer sends a single rendered message. Implementations must treat each
// send independently; the caller decides what a failure means.
type Mailer interface {
	Send(ctx context.Context, from string, to []string, subject, text string) (string, error)
}

// ResendMailerConfig configures the ResendMailer. BaseURL and Client exist
// so tests can point the SDK at a stub server.
type ResendMailerConfig struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// ResendMailer delivers plain-text mail through the Resend SDK.
type ResendMailer struct {
	client *resend.Client
}

// NewResendMailer constructs a ResendMailer from the given configuration.
func NewResendMailer(cfg ResendMailerConfig) (*ResendMailer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("resend: api key is required")
	}

	var client *resend.Client
	if cfg.Client != nil {
		client = resend.NewCustomClient(cfg.Client, apiKey)
	} else {
		client = resend.NewClient(apiKey)
	}

	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		parsed, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("resend: invalid base url: %w", err)
		}
		client.BaseURL = parsed
	}

	return &ResendMailer{client: client}, nil
}

// Send submits one email and returns the provider's message id.
func (m *ResendMailer) Send(ctx context.Context, from string, to []string, subject, text string) (string, error) {
	if m == nil || m.client == nil {
		return "", errors.New("resend: mailer is nil")
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      to,
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return "", fmt.Errorf("resend: send email: %w", err)
	}
	return sent.Id, nil
}
