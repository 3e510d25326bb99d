// Package gateway is the HTTP client for the document RPC gateway, the
// server-side owner of all order status transitions.
package gateway

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

	"github.com/google/uuid"
)

// ErrCallFailed wraps every transport or server failure of an RPC call.
var ErrCallFailed = errors.New("gateway call failed")

// Response is the gateway's JSON envelope. A call succeeded when the message
// payload is present and truthy; the server reports failures either through a
// non-2xx status or an exception field.
type Response struct {
	Message   json.RawMessage `json:"message"`
	Exception string          `json:"exception,omitempty"`
}

// Succeeded reports whether the response carries a truthy success payload.
// A missing message is treated as failure rather than silently ignored.
func (r *Response) Succeeded() bool {
	if r == nil || r.Exception != "" {
		return false
	}
	trimmed := bytes.TrimSpace(r.Message)
	if len(trimmed) == 0 {
		return false
	}
	switch string(trimmed) {
	case "null", "false", `""`, "0":
		return false
	}
	return true
}

// Client invokes named actions against the document server.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  *slog.Logger
}

// NewClient constructs a gateway client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Call invokes a fully-qualified action with a flat argument map.
func (c *Client) Call(ctx context.Context, method string, args map[string]any) (*Response, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal args: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/method/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "token "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCallFailed, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrCallFailed, method, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("gateway call rejected",
			slog.String("method", method),
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %s: status %d", ErrCallFailed, method, resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %v", ErrCallFailed, method, err)
	}
	if !out.Succeeded() {
		// Missing or falsy success flag; surfaced as an error to the caller.
		c.logger.Warn("gateway response without success payload", slog.String("method", method))
		return &out, fmt.Errorf("%w: %s: no success payload", ErrCallFailed, method)
	}
	return &out, nil
}

// Invoke calls a method for its side effect, discarding the payload.
func (c *Client) Invoke(ctx context.Context, method string, args map[string]any) error {
	_, err := c.Call(ctx, method, args)
	return err
}
