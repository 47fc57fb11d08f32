package security

import (
	"crypto/tls"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFTokens(t *testing.T) {
	g := NewCSRFGenerator("secret")

	token, err := g.GenerateToken("session-1")
	require.NoError(t, err)

	again, err := g.GenerateToken("session-1")
	require.NoError(t, err)
	assert.Equal(t, token, again, "tokens are deterministic per session")

	assert.True(t, g.ValidateToken("session-1", token))
	assert.False(t, g.ValidateToken("session-2", token))
	assert.False(t, g.ValidateToken("session-1", ""))
	assert.False(t, g.ValidateToken("session-1", "%%%"))
	assert.False(t, NewCSRFGenerator("other").ValidateToken("session-1", token))

	_, err = g.GenerateToken("")
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "keys are independent")
	assert.Equal(t, time.Minute, rl.RetryAfter("1.2.3.4"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"), "window reset")

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 2, rl.Prune())
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))
}

func TestSessionCookies(t *testing.T) {
	plain := httptest.NewRequest("GET", "/", nil)
	cookie := CreateSessionCookie(plain, SessionCookieName, "abc", time.Now().Add(time.Hour))
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)

	secure := httptest.NewRequest("GET", "/", nil)
	secure.TLS = &tls.ConnectionState{}
	assert.True(t, CreateSessionCookie(secure, SessionCookieName, "abc", time.Now()).Secure)

	proxied := httptest.NewRequest("GET", "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	assert.True(t, IsSecureRequest(proxied))

	assert.Equal(t, -1, CreateDeleteCookie(plain, SessionCookieName).MaxAge)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("wrong horse", hash))
	assert.False(t, CheckPassword("anything", ""))
}

func TestTokenSigner(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewTokenSigner("jwt-secret")
	s.now = func() time.Time { return now }

	raw, err := s.Issue("user-1", "session-1", now.Add(time.Hour))
	require.NoError(t, err)

	claims, err := s.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "session-1", claims.SessionID)

	_, err = NewTokenSigner("other").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Parse(raw[:len(raw)-2])
	assert.ErrorIs(t, err, ErrInvalidToken)

	now = now.Add(2 * time.Hour)
	_, err = s.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestRoleMap(t *testing.T) {
	m, err := ParseRoleMap(" Coach@Example.com=coach, learner@example.com=learner ", []string{"lead@example.com"})
	require.NoError(t, err)

	assert.Equal(t, RoleCoach, m.RoleFor("coach@example.com"))
	assert.True(t, m.IsCoach("LEAD@example.com"))
	assert.Equal(t, RoleLearner, m.RoleFor("learner@example.com"))
	assert.Equal(t, RoleLearner, m.RoleFor("stranger@example.com"))

	var empty *RoleMap
	assert.Equal(t, RoleLearner, empty.RoleFor("coach@example.com"))

	_, err = ParseRoleMap("broken", nil)
	assert.Error(t, err)
	_, err = ParseRoleMap("a@example.com=admin", nil)
	assert.True(t, err != nil && strings.Contains(err.Error(), "admin"))
}
