package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
	"onpointe/prevention/internal/service"
)

const (
	testBasePath = "/on-pointe/us-central1"
	testSecret   = "api-test-secret"
)

// apiUsers backs both sign-in and the per-request profile lookup.
type apiUsers struct {
	repository.UserRepository
	mu    sync.Mutex
	users map[string]*domain.User
	next  int
}

func (r *apiUsers) Create(ctx context.Context, user *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return "", repository.ErrConflict
		}
	}
	r.next++
	user.ID = fmt.Sprintf("new-%d", r.next)
	stored := *user
	r.users[user.ID] = &stored
	return user.ID, nil
}

func (r *apiUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *apiUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	found := *u
	return &found, nil
}

type stubRoster struct {
	service.RosterService
	lastLimit int
}

func (s *stubRoster) GetMyDancers(ctx context.Context, ptID string) ([]domain.DancerSummary, error) {
	return nil, nil
}

func (s *stubRoster) GetDancerRecentCheckins(ctx context.Context, ptID, dancerID string, limit int) ([]domain.CheckIn, error) {
	s.lastLimit = limit
	if dancerID != "d1" {
		return nil, service.ErrDancerNotLinked
	}
	return []domain.CheckIn{{DancerID: "d1", Date: "2026-10-15", Minutes: 60, RPE: 5}}, nil
}

func (s *stubRoster) GenerateCode(ctx context.Context, ptID string) (*domain.LinkCode, error) {
	return &domain.LinkCode{Code: "7F3A9C", PTID: ptID, ExpiresAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)}, nil
}

func (s *stubRoster) RedeemCode(ctx context.Context, dancerID, code string) (string, string, error) {
	if code != "7F3A9C" {
		return "", "", service.ErrInvalidLinkCode
	}
	return "pt1", "thread-1", nil
}

type stubAvailability struct {
	service.AvailabilityService
}

func (s *stubAvailability) AddSlot(ctx context.Context, ptID string, slot domain.AvailabilitySlot) (*domain.AvailabilitySlot, error) {
	if err := service.ValidateSlot(slot); err != nil {
		return nil, err
	}
	slot.ID = "slot-1"
	return &slot, nil
}

func (s *stubAvailability) GetLinkedPTSlots(ctx context.Context, dancerID string) ([]domain.AvailabilitySlot, error) {
	return nil, service.ErrNoLinkedPT
}

type stubMessaging struct {
	service.MessagingService
}

func (s *stubMessaging) GetMyThreads(ctx context.Context, uid string) ([]domain.ThreadSummary, error) {
	return nil, nil
}

func (s *stubMessaging) Send(ctx context.Context, senderUID, threadID, text string) (*domain.Message, error) {
	if threadID != "thread-1" {
		return nil, service.ErrNotThreadMember
	}
	return &domain.Message{ID: "msg-1", ThreadID: threadID, SenderUID: senderUID, Text: text}, nil
}

type stubAlerts struct {
	service.AlertService
	reviewed []string
}

func (s *stubAlerts) MarkReviewed(ctx context.Context, ptID, alertID string) error {
	s.reviewed = append(s.reviewed, ptID+"/"+alertID)
	return nil
}

type stubReports struct{}

func (stubReports) ExportDancerReport(ctx context.Context, ptID, dancerID string) (string, error) {
	if dancerID == "boom" {
		return "", errors.New("s3: connection reset by peer")
	}
	return "https://files.example.com/report.csv", nil
}

type apiFixture struct {
	router *gin.Engine
	auth   service.AuthService
	users  *apiUsers
	alerts *stubAlerts
	roster *stubRoster
}

func newAPIFixture() *apiFixture {
	gin.SetMode(gin.TestMode)
	users := &apiUsers{users: map[string]*domain.User{
		"pt1":    {ID: "pt1", Email: "pat@example.com", Role: domain.RolePT},
		"d1":     {ID: "d1", Email: "ann@example.com", Role: domain.RoleDancer},
		"norole": {ID: "norole", Email: "new@example.com"},
	}}
	f := &apiFixture{
		router: gin.New(),
		auth:   service.NewAuthService(users, testSecret, time.Hour),
		users:  users,
		alerts: &stubAlerts{},
		roster: &stubRoster{},
	}
	SetupRoutes(f.router, testBasePath, testSecret, users, Services{
		Auth:         f.auth,
		Roster:       f.roster,
		Availability: &stubAvailability{},
		Messaging:    &stubMessaging{},
		Alerts:       f.alerts,
		Reports:      stubReports{},
	}, zap.NewNop())
	return f
}

func (f *apiFixture) token(t *testing.T, uid string) string {
	t.Helper()
	token, _, err := f.auth.Issue(&domain.User{ID: uid})
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, testBasePath+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestPing(t *testing.T) {
	f := newAPIFixture()
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAPIFixture()
	creds := map[string]string{"email": "bo@example.com", "password": "secret1"}

	w, body := f.do(t, http.MethodPost, "/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["expiresAt"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "bo@example.com", user["email"])
	assert.NotContains(t, user, "role", "role is chosen after sign-up")

	w, _ = f.do(t, http.MethodPost, "/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = f.do(t, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])

	w, body = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "bo@example.com", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.ErrAuthenticationFailed.Error(), body["error"])

	w, _ = f.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "not-an-email", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "cy@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	f := newAPIFixture()

	w, body := f.do(t, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authorization header is missing", body["error"])

	req := httptest.NewRequest(http.MethodGet, testBasePath+"/me", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	w, _ = f.do(t, http.MethodGet, "/me", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		UserID: "pt1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	w, body = f.do(t, http.MethodGet, "/me", signed, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has expired", body["error"])

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		UserID:           "pt1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err = forged.SignedString([]byte("someone-else"))
	require.NoError(t, err)
	w, _ = f.do(t, http.MethodGet, "/me", signed, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileMiddleware(t *testing.T) {
	f := newAPIFixture()

	w, body := f.do(t, http.MethodGet, "/me", f.token(t, "pt1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pt1", body["userId"])
	assert.Equal(t, "pt", body["role"])

	w, body = f.do(t, http.MethodGet, "/me", f.token(t, "ghost"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unknown user", body["error"])
}

func TestRoleMiddleware(t *testing.T) {
	f := newAPIFixture()

	w, body := f.do(t, http.MethodGet, "/getMyThreads", f.token(t, "norole"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Choose a role first", body["error"])

	w, body = f.do(t, http.MethodGet, "/getMyDancers", f.token(t, "d1"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied: Role 'dancer' does not have permission", body["error"])

	w, _ = f.do(t, http.MethodPost, "/redeemPtCode", f.token(t, "pt1"), map[string]string{"code": "7F3A9C"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.do(t, http.MethodGet, "/getMyThreads", f.token(t, "d1"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRosterRoutes(t *testing.T) {
	f := newAPIFixture()
	pt := f.token(t, "pt1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, testBasePath+"/getMyDancers", nil)
	req.Header.Set("Authorization", "Bearer "+pt)
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"dancers":[]}`, w.Body.String())

	w, _ = f.do(t, http.MethodGet, "/getDancerRecentCheckins", pt, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodGet, "/getDancerRecentCheckins?dancerId=d1&limit=abc", pt, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := f.do(t, http.MethodGet, "/getDancerRecentCheckins?dancerId=d1&limit=5", pt, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, f.roster.lastLimit)
	assert.Len(t, body["items"], 1)

	w, body = f.do(t, http.MethodGet, "/getDancerRecentCheckins?dancerId=d9", pt, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, service.ErrDancerNotLinked.Error(), body["error"])

	w, body = f.do(t, http.MethodPost, "/generatePtCode", pt, struct{}{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7F3A9C", body["code"])
	assert.Equal(t, "2026-10-16T12:00:00Z", body["expiresAt"])
}

func TestRedeemPTCode(t *testing.T) {
	f := newAPIFixture()
	dancer := f.token(t, "d1")

	w, body := f.do(t, http.MethodPost, "/redeemPtCode", dancer, map[string]string{"code": "7F3A9C"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"ptId": "pt1", "threadId": "thread-1"}, body)

	w, body = f.do(t, http.MethodPost, "/redeemPtCode", dancer, map[string]string{"code": "WRONG1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ErrInvalidLinkCode.Error(), body["error"])

	w, _ = f.do(t, http.MethodPost, "/redeemPtCode", dancer, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityRoutes(t *testing.T) {
	f := newAPIFixture()
	pt := f.token(t, "pt1")

	slot := map[string]string{"date": "2026-10-16", "start": "09:00", "end": "10:00"}
	w, body := f.do(t, http.MethodPost, "/setMyAvailability", pt, slot)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "slot-1", body["slotId"])

	slot["end"] = "08:00"
	w, body = f.do(t, http.MethodPost, "/setMyAvailability", pt, slot)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ErrSlotEndsTooEarly.Error(), body["error"])

	w, body = f.do(t, http.MethodGet, "/getLinkedPtAvailability", f.token(t, "d1"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ErrNoLinkedPT.Error(), body["error"])
}

func TestMessagingRoutes(t *testing.T) {
	f := newAPIFixture()
	dancer := f.token(t, "d1")

	w, body := f.do(t, http.MethodPost, "/sendMessage", dancer, map[string]string{"threadId": "thread-1", "text": "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "msg-1", body["messageId"])

	w, _ = f.do(t, http.MethodPost, "/sendMessage", dancer, map[string]string{"threadId": "thread-2", "text": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.do(t, http.MethodPost, "/sendMessage", dancer, map[string]string{"threadId": "thread-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = f.do(t, http.MethodGet, "/getMyThreads", dancer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, body["threads"])
}

func TestMarkAlertReviewed(t *testing.T) {
	f := newAPIFixture()

	w, body := f.do(t, http.MethodPost, "/markAlertReviewed", f.token(t, "pt1"), map[string]string{"alertId": "a1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, []string{"pt1/a1"}, f.alerts.reviewed)
}

func TestExportReportHidesInternalErrors(t *testing.T) {
	f := newAPIFixture()
	pt := f.token(t, "pt1")

	w, body := f.do(t, http.MethodPost, "/exportDancerReport", pt, map[string]string{"dancerId": "d1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://files.example.com/report.csv", body["url"])

	w, body = f.do(t, http.MethodPost, "/exportDancerReport", pt, map[string]string{"dancerId": "boom"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to export report.", body["error"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidSlotTime, http.StatusBadRequest},
		{service.ErrMessageTooLong, http.StatusBadRequest},
		{service.ErrNotThreadMember, http.StatusForbidden},
		{service.ErrNotPT, http.StatusForbidden},
		{fmt.Errorf("lookup: %w", repository.ErrNotFound), http.StatusNotFound},
		{service.ErrDancerAlreadyLinked, http.StatusConflict},
		{repository.ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
