// Package backend calls the authenticated RPC surface that performs the
// privileged operations (linking, availability, messaging, alert review).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"onpointe/prevention/internal/config"
)

// ErrNotSignedIn aborts any call attempted without a current user.
var ErrNotSignedIn = errors.New("not logged in")

// Error is a failed RPC. Message comes from the response body when present.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// TokenSource hands out the bearer token of the current session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// BaseURL picks the emulator when the configured host is a local
// development host and the deployed regional endpoint otherwise.
func BaseURL(cfg config.BackendConfig) string {
	host := strings.ToLower(strings.TrimSpace(cfg.Host))
	for _, local := range cfg.LocalHosts {
		if host == strings.ToLower(local) {
			return strings.TrimRight(cfg.EmulatorURL, "/")
		}
	}
	return strings.TrimRight(cfg.DeployedURL, "/")
}

// Client is a JSON-over-HTTP client for the RPC surface.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		logger:  logger,
	}
}

// call performs one RPC and decodes a 2xx body into out (when non-nil).
func (c *Client) call(ctx context.Context, method, path string, body any, query url.Values, out any) error {
	if c.tokens == nil {
		return ErrNotSignedIn
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/" + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &failure)
		if failure.Error != "" {
			return &Error{Status: resp.StatusCode, Message: failure.Error}
		}
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("Failed (%d)", resp.StatusCode)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("malformed RPC response", zap.String("path", path), zap.Error(err))
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("Failed (%d)", resp.StatusCode)}
	}
	return nil
}

// params builds a query, skipping empty values.
func params(kv ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			q.Set(kv[i], kv[i+1])
		}
	}
	return q
}
