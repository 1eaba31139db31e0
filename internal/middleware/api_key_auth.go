package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClientIDKey is the context key for the fingerprint of the API key that authenticated the request
	ClientIDKey contextKey = "client_id"
)

type apiKey struct {
	secret []byte
	id     string
}

// APIKeyAuthMiddleware authenticates transports (chat bots, scripts) with static bearer keys
type APIKeyAuthMiddleware struct {
	keys []apiKey
}

// NewAPIKeyAuthMiddleware creates a new APIKeyAuthMiddleware. Blank keys are ignored.
func NewAPIKeyAuthMiddleware(keys []string) *APIKeyAuthMiddleware {
	m := &APIKeyAuthMiddleware{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		m.keys = append(m.keys, apiKey{secret: []byte(k), id: KeyFingerprint(k)})
	}
	return m
}

// KeyFingerprint identifies a key in logs without revealing it
func KeyFingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}

// Authenticate returns an Echo middleware that validates the bearer key
func (m *APIKeyAuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			clientID, ok := m.match([]byte(strings.TrimSpace(parts[1])))
			if !ok {
				log.Debug().Str("path", c.Request().URL.Path).Msg("Rejected unknown API key")
				return unauthorizedError(c, "Invalid API key")
			}

			ctx := context.WithValue(c.Request().Context(), ClientIDKey, clientID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// match compares against every key so timing does not reveal which one matched
func (m *APIKeyAuthMiddleware) match(presented []byte) (string, bool) {
	found := ""
	for _, k := range m.keys {
		if subtle.ConstantTimeCompare(presented, k.secret) == 1 {
			found = k.id
		}
	}
	return found, found != ""
}

// GetClientID extracts the API key fingerprint from the context
func GetClientID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(ClientIDKey).(string); ok {
		return id
	}
	return ""
}
