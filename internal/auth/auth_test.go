package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Odenfis/sedimApp/internal/model"
	"github.com/Odenfis/sedimApp/internal/storage"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, ComparePassword(hash, "s3cret"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrInvalidPassword)
	assert.ErrorIs(t, ComparePassword("not-a-hash", "s3cret"), ErrInvalidPassword)

	_, err = HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	_, err = HashPassword(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}

func setupAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	ctx := context.Background()

	ss, err := storage.NewSQLiteStorage(ctx, filepath.Join(t.TempDir(), "sedim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	require.NoError(t, ss.CreateUser(ctx, &model.User{Username: "admin", Name: "Admin", PasswordHash: hash}))

	return NewAuthenticator(ss)
}

func TestAuthenticator_Login(t *testing.T) {
	a := setupAuthenticator(t)
	ctx := context.Background()

	p, err := a.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Username)
	assert.Equal(t, "Admin", p.Name)
	assert.NotZero(t, p.ID)

	_, err = a.Login(ctx, "admin", "nope")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = a.Login(ctx, "ghost", "admin123")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

// cookieFrom replays the Set-Cookie headers of rec on a new request
func cookieFrom(rec *httptest.ResponseRecorder, method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func newSessionManager(t *testing.T, cfg SessionConfig) *SessionManager {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = filepath.Join(t.TempDir(), "sessions")
	}
	m, err := NewSessionManager(cfg)
	require.NoError(t, err)
	return m
}

func TestSessionManager_StartCurrentEnd(t *testing.T) {
	m := newSessionManager(t, SessionConfig{Secret: "test-secret"})
	want := Principal{ID: 7, Username: "ana", Name: "Ana"}

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil), want))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, 86400, cookies[0].MaxAge)
	assert.False(t, cookies[0].Secure)

	got, err := m.Current(cookieFrom(rec, http.MethodGet, "/api/session"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	logout := httptest.NewRecorder()
	require.NoError(t, m.End(logout, cookieFrom(rec, http.MethodPost, "/api/logout")))
	expired := logout.Result().Cookies()
	require.Len(t, expired, 1)
	assert.Less(t, expired[0].MaxAge, 0)

	_, err = m.Current(cookieFrom(rec, http.MethodGet, "/api/session"))
	assert.ErrorIs(t, err, ErrNoSession, "the pre-logout cookie must not authenticate")

	// ending an already ended session only expires the cookie
	again := httptest.NewRecorder()
	require.NoError(t, m.End(again, cookieFrom(rec, http.MethodPost, "/api/logout")))
	require.Len(t, again.Result().Cookies(), 1)
	assert.Less(t, again.Result().Cookies()[0].MaxAge, 0)
}

func TestSessionManager_StartIssuesFreshID(t *testing.T) {
	m := newSessionManager(t, SessionConfig{Secret: "test-secret"})

	first := httptest.NewRecorder()
	require.NoError(t, m.Start(first, httptest.NewRequest(http.MethodPost, "/api/login", nil), Principal{ID: 1, Username: "ana"}))

	second := httptest.NewRecorder()
	require.NoError(t, m.Start(second, cookieFrom(first, http.MethodPost, "/api/login"), Principal{ID: 2, Username: "luis"}))
	assert.NotEqual(t, first.Result().Cookies()[0].Value, second.Result().Cookies()[0].Value)

	got, err := m.Current(cookieFrom(first, http.MethodGet, "/"))
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)

	got, err = m.Current(cookieFrom(second, http.MethodGet, "/"))
	require.NoError(t, err)
	assert.Equal(t, "luis", got.Username)
}

func TestSessionManager_Prune(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	m := newSessionManager(t, SessionConfig{Secret: "test-secret", Dir: dir})

	var logins []*httptest.ResponseRecorder
	for id := int64(1); id <= 2; id++ {
		rec := httptest.NewRecorder()
		require.NoError(t, m.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), Principal{ID: id}))
		logins = append(logins, rec)
	}

	files, err := filepath.Glob(filepath.Join(dir, "session_*"))
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated"), nil, 0600))

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(files[0], stale, stale))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "unrelated"), stale, stale))

	removed, err := m.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, files[0])
	assert.FileExists(t, files[1])
	assert.FileExists(t, filepath.Join(dir, "unrelated"))

	valid := 0
	for _, rec := range logins {
		if _, err := m.Current(cookieFrom(rec, http.MethodGet, "/")); err == nil {
			valid++
		}
	}
	assert.Equal(t, 1, valid)
}

func TestSessionManager_RejectsForeignCookie(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	issuer := newSessionManager(t, SessionConfig{Secret: "one", Dir: dir})
	verifier := newSessionManager(t, SessionConfig{Secret: "two", Dir: dir})

	rec := httptest.NewRecorder()
	require.NoError(t, issuer.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), Principal{ID: 1}))

	_, err := verifier.Current(cookieFrom(rec, http.MethodGet, "/"))
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = verifier.Current(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_SecureCookie(t *testing.T) {
	m := newSessionManager(t, SessionConfig{Secret: "x", Secure: true})
	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), Principal{ID: 1}))
	assert.True(t, rec.Result().Cookies()[0].Secure)
}

func TestRequireSession(t *testing.T) {
	m := newSessionManager(t, SessionConfig{Secret: "test-secret"})
	called := false
	var seen Principal
	handler := RequireSession(m, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = PrincipalFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"No autorizado"}`, rec.Body.String())
	assert.False(t, called)

	login := httptest.NewRecorder()
	require.NoError(t, m.Start(login, httptest.NewRequest(http.MethodPost, "/api/login", nil), Principal{ID: 3, Username: "luis"}))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, cookieFrom(login, http.MethodGet, "/api/data"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, "luis", seen.Username)
}

func TestLoginThrottle(t *testing.T) {
	throttle := NewLoginThrottle(time.Minute, 3)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	throttle.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		assert.True(t, throttle.Allow("10.0.0.1"), "attempt %d", i)
	}
	assert.False(t, throttle.Allow("10.0.0.1"))
	assert.True(t, throttle.Allow("10.0.0.2"), "other clients are not affected")

	clock = clock.Add(time.Minute)
	assert.True(t, throttle.Allow("10.0.0.1"))
	assert.False(t, throttle.Allow("10.0.0.1"))
}

func TestClientIP(t *testing.T) {
	forwarded := map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1", "X-Real-IP": "5.6.7.8"}

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		trust   bool
		want    string
	}{
		{"remote addr", nil, "192.168.1.5:5555", false, "192.168.1.5"},
		{"forwarded headers ignored", forwarded, "10.0.0.1:80", false, "10.0.0.1"},
		{"forwarded for trusted", forwarded, "10.0.0.1:80", true, "1.2.3.4"},
		{"real ip trusted", map[string]string{"X-Real-IP": "5.6.7.8"}, "10.0.0.1:80", true, "5.6.7.8"},
		{"blank forwarded for", map[string]string{"X-Forwarded-For": " ", "X-Real-IP": "5.6.7.8"}, "10.0.0.1:80", true, "5.6.7.8"},
		{"trusted without headers", nil, "10.0.0.1:80", true, "10.0.0.1"},
		{"no port", nil, "pipe", false, "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req, tt.trust))
		})
	}
}
