package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"onpointe/prevention/internal/backend"
)

var expiresAt = time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC)

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	session := func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication failed: invalid email or password"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":     "tok-" + creds["email"],
			"expiresAt": expiresAt,
			"user":      map[string]string{"id": "u1", "email": creds["email"]},
		})
	}
	mux.HandleFunc("/auth/login", session)
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		session(w, r)
	})
	mux.HandleFunc("/broken/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProvider_SignInNotifiesAndIssuesToken(t *testing.T) {
	srv := newAuthServer(t)
	p := NewProvider(srv.URL, srv.Client(), zap.NewNop())
	p.now = func() time.Time { return expiresAt.Add(-time.Minute) }

	var seen []*User
	p.OnSessionChange(func(u *User) { seen = append(seen, u) })

	require.NoError(t, p.SignIn(context.Background(), " ann@example.com ", "secret1"))

	require.Len(t, seen, 1)
	assert.Equal(t, &User{UID: "u1", Email: "ann@example.com"}, seen[0])
	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-ann@example.com", token)

	u := p.CurrentUser()
	u.UID = "changed"
	assert.Equal(t, "u1", p.CurrentUser().UID)
}

func TestProvider_SignUpUsesRegister(t *testing.T) {
	srv := newAuthServer(t)
	p := NewProvider(srv.URL+"/", srv.Client(), zap.NewNop())

	require.NoError(t, p.SignUp(context.Background(), "bo@example.com", "secret1"))
	assert.Equal(t, "bo@example.com", p.CurrentUser().Email)
}

func TestProvider_SignInFailure(t *testing.T) {
	srv := newAuthServer(t)
	p := NewProvider(srv.URL, srv.Client(), zap.NewNop())
	notified := false
	p.OnSessionChange(func(*User) { notified = true })

	err := p.SignIn(context.Background(), "ann@example.com", "wrong")

	var rpcErr *backend.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, http.StatusUnauthorized, rpcErr.Status)
	assert.Equal(t, "authentication failed: invalid email or password", err.Error())
	assert.False(t, notified)
	assert.Nil(t, p.CurrentUser())
}

func TestProvider_MalformedResponse(t *testing.T) {
	srv := newAuthServer(t)
	p := NewProvider(srv.URL+"/broken", srv.Client(), zap.NewNop())

	err := p.SignIn(context.Background(), "ann@example.com", "secret1")

	require.Error(t, err)
	assert.Equal(t, "Malformed sign-in response", err.Error())
}

func TestProvider_TokenExpires(t *testing.T) {
	srv := newAuthServer(t)
	p := NewProvider(srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, p.SignIn(context.Background(), "ann@example.com", "secret1"))

	p.now = func() time.Time { return expiresAt }
	_, err := p.Token(context.Background())

	assert.ErrorIs(t, err, backend.ErrNotSignedIn)
}

func TestProvider_SignOut(t *testing.T) {
	srv := newAuthServer(t)
	p := NewProvider(srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, p.SignIn(context.Background(), "ann@example.com", "secret1"))

	var seen []*User
	p.OnSessionChange(func(u *User) { seen = append(seen, u) })
	p.SignOut()
	p.SignOut()

	assert.Equal(t, []*User{nil}, seen)
	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, backend.ErrNotSignedIn)
}
