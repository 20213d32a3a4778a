package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/naptholomew/tempest-attendance/app/tracker/types"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	return &Controller{
		AdminToken: "admin-token",
		JWTSecret:  []byte("test-secret"),
		Users: map[string]types.User{
			"admin":  {Username: "admin", Hash: hash, Role: "admin"},
			"viewer": {Username: "viewer", Hash: hash, Role: "viewer"},
		},
	}
}

// sessionFor issues a session for the given user and returns its cookie.
func sessionFor(t *testing.T, c *Controller, username, role string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	c.IssueSession(rec, username, role)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestValidateToken(t *testing.T) {
	c := newTestController(t)

	r := httptest.NewRequest(http.MethodPost, "/api/attendance/refresh", nil)
	assert.False(t, c.ValidateToken(r))

	r.Header.Set("Authorization", "Bearer admin-token")
	assert.True(t, c.ValidateToken(r))

	r.Header.Set("Authorization", "Bearer wrong")
	assert.False(t, c.ValidateToken(r))

	r.Header.Set("Authorization", "admin-token") // missing Bearer prefix
	assert.False(t, c.ValidateToken(r))
}

func TestSessionRoundTrip(t *testing.T) {
	c := newTestController(t)
	cookie := sessionFor(t, c, "admin", "admin")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	assert.True(t, c.ValidateSessionCookie(r))
	assert.True(t, c.ValidateRole(r, "admin"))
	assert.False(t, c.ValidateRole(r, "viewer"))

	// A session signed with a different secret is rejected.
	other := newTestController(t)
	other.JWTSecret = []byte("different-secret")
	assert.False(t, other.ValidateSessionCookie(r))
}

func TestRequireAdmin(t *testing.T) {
	c := newTestController(t)
	var reached bool
	handler := c.RequireAdmin(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		reached = true
	}))

	// No credentials at all.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)

	// Bearer token.
	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", "Bearer admin-token")
	handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)

	// Admin session cookie.
	reached = false
	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", nil)
	r.AddCookie(sessionFor(t, c, "admin", "admin"))
	handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)

	// Valid session, wrong role.
	reached = false
	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", nil)
	r.AddCookie(sessionFor(t, c, "viewer", "viewer"))
	handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}

func TestHandleLogin(t *testing.T) {
	c := newTestController(t)

	rec := httptest.NewRecorder()
	c.HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"admin","password":"hunter2"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Contains(t, rec.Body.String(), `"admin"`)

	rec = httptest.NewRecorder()
	c.HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"admin","password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = httptest.NewRecorder()
	c.HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"nobody","password":"hunter2"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	c.HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLogout(t *testing.T) {
	c := newTestController(t)
	rec := httptest.NewRecorder()
	c.HandleLogout(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}

func TestWithCORS(t *testing.T) {
	handler := WithCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	// Preflight short-circuits.
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/attendance", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	// Non-preflight passes through, wildcard without Origin.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/attendance", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
