package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// CSRFHeader carries the token on state-changing requests
const CSRFHeader = "X-CSRF-Token"

// CSRFGenerator derives CSRF tokens from the session id with HMAC-SHA256,
// so any server instance sharing the secret can check them.
type CSRFGenerator struct {
	secret []byte
}

// NewCSRFGenerator creates a generator keyed by secret
func NewCSRFGenerator(secret string) *CSRFGenerator {
	return &CSRFGenerator{secret: []byte(secret)}
}

func (g *CSRFGenerator) sign(sessionID string) []byte {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte("csrf:"))
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}

// GenerateToken returns the CSRF token bound to sessionID
func (g *CSRFGenerator) GenerateToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session ID is required")
	}
	return base64.RawURLEncoding.EncodeToString(g.sign(sessionID)), nil
}

// ValidateToken reports whether token belongs to sessionID
func (g *CSRFGenerator) ValidateToken(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	got, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	return hmac.Equal(g.sign(sessionID), got)
}
