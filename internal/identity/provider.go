// Package identity signs users in against the server's auth endpoints and
// notifies listeners whenever the session changes.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"onpointe/prevention/internal/backend"
)

// User is the signed-in identity.
type User struct {
	UID   string
	Email string
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Error string `json:"error"`
}

// Provider keeps the current session in memory only.
type Provider struct {
	mu        sync.Mutex
	baseURL   string
	http      *http.Client
	logger    *zap.Logger
	now       func() time.Time
	current   *User
	token     string
	expiresAt time.Time
	listeners []func(*User)
}

// NewProvider creates a provider rooted at the RPC base URL.
func NewProvider(baseURL string, httpClient *http.Client, logger *zap.Logger) *Provider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
		now:     time.Now,
	}
}

// OnSessionChange registers fn; it fires with the user or nil.
func (p *Provider) OnSessionChange(fn func(*User)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// SignIn authenticates with email and password.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	return p.authenticate(ctx, "auth/login", email, password)
}

// SignUp creates the account and signs it in. The role is chosen afterwards.
func (p *Provider) SignUp(ctx context.Context, email, password string) error {
	return p.authenticate(ctx, "auth/register", email, password)
}

func (p *Provider) authenticate(ctx context.Context, path, email, password string) error {
	payload, err := json.Marshal(map[string]string{
		"email":    strings.TrimSpace(email),
		"password": password,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/"+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body authResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if body.Error != "" {
			return &backend.Error{Status: resp.StatusCode, Message: body.Error}
		}
		return &backend.Error{Status: resp.StatusCode, Message: fmt.Sprintf("Failed (%d)", resp.StatusCode)}
	}
	if body.Token == "" || body.User.ID == "" {
		return &backend.Error{Status: resp.StatusCode, Message: "Malformed sign-in response"}
	}

	user := &User{UID: body.User.ID, Email: body.User.Email}
	p.mu.Lock()
	p.current = user
	p.token = body.Token
	p.expiresAt = body.ExpiresAt
	p.mu.Unlock()

	p.logger.Info("signed in", zap.String("uid", user.UID))
	p.notify(user)
	return nil
}

// SignOut drops the session and notifies listeners with nil.
func (p *Provider) SignOut() {
	p.mu.Lock()
	wasSignedIn := p.current != nil
	p.current = nil
	p.token = ""
	p.expiresAt = time.Time{}
	p.mu.Unlock()
	if wasSignedIn {
		p.notify(nil)
	}
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (p *Provider) CurrentUser() *User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	u := *p.current
	return &u
}

// Token returns the bearer token for authenticated calls.
func (p *Provider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.token == "" {
		return "", backend.ErrNotSignedIn
	}
	if !p.expiresAt.IsZero() && !p.now().Before(p.expiresAt) {
		return "", fmt.Errorf("session expired: %w", backend.ErrNotSignedIn)
	}
	return p.token, nil
}

func (p *Provider) notify(user *User) {
	p.mu.Lock()
	listeners := append([]func(*User){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(user)
	}
}
