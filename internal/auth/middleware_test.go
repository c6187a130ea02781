package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/insight-api/internal/auth"
	"github.com/straye-as/insight-api/internal/config"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMiddleware(apiKey string) *auth.Middleware {
	cfg := &config.Config{}
	cfg.Auth = *testAuthConfig()
	cfg.Auth.APIKey = apiKey
	return auth.NewMiddleware(cfg, zap.NewNop())
}

func captureUser(t *testing.T, captured **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		*captured = userCtx
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_BearerToken(t *testing.T) {
	mw := newTestMiddleware("")
	token, err := auth.GenerateToken(testAuthConfig(), testUser())
	require.NoError(t, err)

	var captured *auth.UserContext
	handler := mw.Authenticate(captureUser(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "user-1", captured.UserID)
	assert.Equal(t, domain.RoleManager, captured.Role)
}

func TestAuthenticate_RejectsMissingOrMalformedHeader(t *testing.T) {
	mw := newTestMiddleware("")
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	cases := map[string]string{
		"missing":       "",
		"not bearer":    "Basic dXNlcjpwYXNz",
		"malformed":     "Bearer",
		"invalid token": "Bearer not.a.token",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthenticate_APIKey(t *testing.T) {
	mw := newTestMiddleware("machine-key")

	t.Run("valid key acts as system admin", func(t *testing.T) {
		var captured *auth.UserContext
		handler := mw.Authenticate(captureUser(t, &captured))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
		req.Header.Set("x-api-key", "machine-key")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "system", captured.UserID)
		assert.Equal(t, domain.RoleAdmin, captured.Role)
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		}))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
		req.Header.Set("x-api-key", "wrong")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("api key auth disabled when no key configured", func(t *testing.T) {
		open := newTestMiddleware("")
		handler := open.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		}))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
		req.Header.Set("x-api-key", "anything")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	mw := newTestMiddleware("")
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := mw.RequireRole(domain.RoleAdmin, domain.RoleManager)(ok)

	t.Run("sufficient role passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := auth.WithUserContext(req.Context(), &auth.UserContext{UserID: "u", Role: domain.RoleManager})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("insufficient role is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := auth.WithUserContext(req.Context(), &auth.UserContext{UserID: "u", Role: domain.RoleRep})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unauthenticated is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
