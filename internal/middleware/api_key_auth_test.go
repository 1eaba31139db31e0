package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAuth(t *testing.T, m *APIKeyAuthMiddleware, header string) (*httptest.ResponseRecorder, string, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1/balance", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var clientID string
	called := false
	err := m.Authenticate()(func(c echo.Context) error {
		called = true
		clientID = GetClientID(c)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	return rec, clientID, called
}

func TestAPIKeyAuth_Success(t *testing.T) {
	m := NewAPIKeyAuthMiddleware([]string{"first-key", " second-key "})

	rec, clientID, called := runAuth(t, m, "Bearer second-key")
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, KeyFingerprint("second-key"), clientID)
	assert.Len(t, clientID, 8)

	_, _, called = runAuth(t, m, "bearer first-key")
	assert.True(t, called, "scheme is case-insensitive")
}

func TestAPIKeyAuth_Rejections(t *testing.T) {
	m := NewAPIKeyAuthMiddleware([]string{"secret", ""})

	tests := []struct {
		name   string
		header string
		detail string
	}{
		{"missing header", "", "Missing authorization header"},
		{"wrong scheme", "Basic secret", "Invalid authorization header format"},
		{"no token", "Bearer", "Invalid authorization header format"},
		{"wrong key", "Bearer secret2", "Invalid API key"},
		{"blank key", "Bearer  ", "Invalid API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, called := runAuth(t, m, tt.header)
			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body problemDetails
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.detail, body.Detail)
			assert.Equal(t, errorTypeUnauthorized, body.Type)
			assert.Equal(t, "/api/v1/users/1/balance", body.Instance)
		})
	}
}

func TestGetClientID_Missing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Empty(t, GetClientID(c))
}
