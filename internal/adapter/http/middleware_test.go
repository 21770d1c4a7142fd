package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthenticate(t *testing.T) {
	resolver := NewStaticTokenResolver(map[string]string{
		"valid-token": "u1",
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUser   string
	}{
		{
			name:           "valid bearer token",
			authHeader:     "Bearer valid-token",
			expectedStatus: http.StatusOK,
			expectedUser:   "u1",
		},
		{
			name:           "unknown token",
			authHeader:     "Bearer wrong-token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "non-bearer scheme",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bearer with empty token",
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			handler := Authenticate(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/stocks/my-stocks", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedUser != "" {
				assert.Equal(t, tt.expectedUser, gotUser)
			}
		})
	}
}

func TestStaticTokenResolver(t *testing.T) {
	resolver := NewStaticTokenResolver(map[string]string{"tok": "u1"})

	userID, err := resolver.Resolve(context.Background(), "tok")
	assert.NoError(t, err)
	assert.Equal(t, "u1", userID)

	_, err = resolver.Resolve(context.Background(), "nope")
	assert.Error(t, err)
}

func TestIdentityFromContext_Absent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := IdentityFromContext(req.Context())
	assert.False(t, ok)
}
