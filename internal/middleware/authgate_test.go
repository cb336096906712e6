package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linnoak/teamboard-api/internal/config"
	"github.com/linnoak/teamboard-api/shared/auth"
)

const gateSecret = "gate-test-secret"

func newTestGate(t *testing.T) (*AuthGate, auth.JWTAuthenticator) {
	t.Helper()

	roleRules, err := ParseRoleRules("/add-ons=admin|superadmin,/add-users=superadmin")
	require.NoError(t, err)

	policy := NewAccessPolicy([]string{"/dashboard", "/add-ons", "/add-users", "/api"}, roleRules)
	jwtAuth := auth.NewJWTAuthenticator("teamboard", "teamboard")
	logger := zerolog.Nop()

	gate := NewAuthGate(policy, jwtAuth, gateSecret, &config.GateConfig{
		CookieName:       "access_token",
		LoginPath:        "/login",
		UnauthorizedPath: "/unauthorized",
	}, &logger)

	return gate, jwtAuth
}

func signAccessToken(t *testing.T, jwtAuth auth.JWTAuthenticator, role string, ttl time.Duration) string {
	t.Helper()

	token, err := jwtAuth.GenerateToken(auth.AccessClaims{
		UserID:           "user-1",
		Email:            "user@example.com",
		Role:             role,
		RegisteredClaims: jwtAuth.RegisteredClaims("user-1", ttl),
	}, gateSecret)
	require.NoError(t, err)
	return token
}

func serveThroughGate(gate *AuthGate, req *http.Request) (*httptest.ResponseRecorder, bool) {
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	gate.Handler(next).ServeHTTP(rec, req)
	return rec, reached
}

func TestAuthGate(t *testing.T) {
	t.Run("no token on protected path redirects to login", func(t *testing.T) {
		gate, _ := newTestGate(t)
		req := httptest.NewRequest(http.MethodGet, "/dashboard/page", nil)

		rec, reached := serveThroughGate(gate, req)
		assert.False(t, reached)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("public path passes without a token", func(t *testing.T) {
		gate, _ := newTestGate(t)
		req := httptest.NewRequest(http.MethodGet, "/public-info", nil)

		rec, reached := serveThroughGate(gate, req)
		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed token redirects to login", func(t *testing.T) {
		gate, _ := newTestGate(t)
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "garbage"})

		rec, reached := serveThroughGate(gate, req)
		assert.False(t, reached)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("expired token redirects to login", func(t *testing.T) {
		gate, jwtAuth := newTestGate(t)
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: signAccessToken(t, jwtAuth, "member", -time.Minute)})

		rec, reached := serveThroughGate(gate, req)
		assert.False(t, reached)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		gate, jwtAuth := newTestGate(t)

		forged, err := jwtAuth.GenerateToken(auth.AccessClaims{
			UserID:           "user-1",
			Role:             "superadmin",
			RegisteredClaims: jwtAuth.RegisteredClaims("user-1", time.Hour),
		}, "some-other-secret")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/add-users", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: forged})

		rec, reached := serveThroughGate(gate, req)
		assert.False(t, reached)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("insufficient role redirects to unauthorized", func(t *testing.T) {
		gate, jwtAuth := newTestGate(t)
		req := httptest.NewRequest(http.MethodGet, "/add-ons", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: signAccessToken(t, jwtAuth, "member", time.Hour)})

		rec, reached := serveThroughGate(gate, req)
		assert.False(t, reached)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
	})

	t.Run("sufficient role proceeds to the handler", func(t *testing.T) {
		gate, jwtAuth := newTestGate(t)
		req := httptest.NewRequest(http.MethodGet, "/add-users", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: signAccessToken(t, jwtAuth, "superadmin", time.Hour)})

		rec, reached := serveThroughGate(gate, req)
		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("any authenticated role passes a plain protected prefix", func(t *testing.T) {
		gate, jwtAuth := newTestGate(t)
		req := httptest.NewRequest(http.MethodGet, "/dashboard/page", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: signAccessToken(t, jwtAuth, "member", time.Hour)})

		_, reached := serveThroughGate(gate, req)
		assert.True(t, reached)
	})

	t.Run("bearer header works when no cookie is set", func(t *testing.T) {
		gate, jwtAuth := newTestGate(t)
		req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
		req.Header.Set("Authorization", "Bearer "+signAccessToken(t, jwtAuth, "member", time.Hour))

		_, reached := serveThroughGate(gate, req)
		assert.True(t, reached)
	})

	t.Run("claims are injected into the request context", func(t *testing.T) {
		gate, jwtAuth := newTestGate(t)

		var claims *auth.AccessClaims
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims = ClaimsFromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: signAccessToken(t, jwtAuth, "admin", time.Hour)})

		rec := httptest.NewRecorder()
		gate.Handler(next).ServeHTTP(rec, req)

		require.NotNil(t, claims)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "admin", claims.Role)
	})
}
