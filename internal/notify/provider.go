package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrSendFailed wraps provider-side delivery failures.
var ErrSendFailed = errors.New("whatsapp send failed")

// ProviderClient talks to the WhatsApp gateway's HTTP API. It runs inside
// the worker; the API service only enqueues.
type ProviderClient struct {
	apiURL string
	token  string
	httpc  *http.Client
	logger *slog.Logger
}

// NewProviderClient constructs a provider client.
func NewProviderClient(apiURL, token string, logger *slog.Logger) *ProviderClient {
	return &ProviderClient{
		apiURL: apiURL,
		token:  token,
		httpc:  &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

type sendRequest struct {
	MobileNumber string `json:"mobile_number"`
	Message      string `json:"message"`
}

// Send delivers one message. The number must already be normalized.
func (c *ProviderClient) Send(ctx context.Context, mobile, message string) error {
	if _, err := NormalizeMobile(mobile); err != nil {
		return err
	}

	body, err := json.Marshal(sendRequest{MobileNumber: mobile, Message: message})
	if err != nil {
		return fmt.Errorf("notify: marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode)
	}
	return nil
}
