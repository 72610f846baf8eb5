package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionManager mints and verifies the HS256 session tokens handed to the
// browser after a successful OAuth callback. The token subject is the Slack
// user id.
type SessionManager struct {
	secret []byte
	expiry time.Duration
}

func NewSessionManager(secret string, expiry time.Duration) *SessionManager {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &SessionManager{secret: []byte(secret), expiry: expiry}
}

func (m *SessionManager) Mint(slackUserID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   slackUserID,
		Issuer:    "slackconnect",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Verify parses a session token and returns its subject (the Slack user id).
func (m *SessionManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing session token: %w", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid session token")
	}
	if claims.Subject == "" {
		return "", errors.New("session token has no subject")
	}
	return claims.Subject, nil
}
