package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidCookie = errors.New("invalid session cookie")

// SignSessionID produces the cookie value "<sid>.<hmac>" so a tampered or
// fabricated session ID is rejected before the records store is consulted.
func SignSessionID(secret, sessionID string) string {
	return sessionID + "." + sign(secret, sessionID)
}

// VerifySessionID validates a cookie value and returns the embedded session ID.
func VerifySessionID(secret, cookieValue string) (string, error) {
	idx := strings.LastIndexByte(cookieValue, '.')
	if idx <= 0 || idx == len(cookieValue)-1 {
		return "", ErrInvalidCookie
	}

	sessionID := cookieValue[:idx]
	signature := cookieValue[idx+1:]

	expected := sign(secret, sessionID)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", ErrInvalidCookie
	}
	return sessionID, nil
}

func sign(secret, sessionID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
