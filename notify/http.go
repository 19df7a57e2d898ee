package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPConfig configures [NewHTTPSender].
type HTTPConfig struct {
	BaseURL string
	Path    string
	APIKey  string
	Timeout time.Duration
	Retries int
}

// HTTPSender posts messages to an SMS gateway as JSON.
type HTTPSender struct {
	client *resty.Client
	path   string
}

// NewHTTPSender creates an [HTTPSender]. Path defaults to "/v1/messages".
func NewHTTPSender(cfg HTTPConfig) *HTTPSender {
	if cfg.Path == "" {
		cfg.Path = "/v1/messages"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &HTTPSender{client: client, path: cfg.Path}
}

func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post(s.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: gateway status %d", ErrDelivery, resp.StatusCode())
	}
	return nil
}
