package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/linnoak/teamboard-api/internal/config"
	"github.com/linnoak/teamboard-api/shared/auth"
)

type contextKey struct{}

var claimsContextKey = contextKey{}

// AuthGate is the per-request authorization middleware. It is a pure
// function of (token, path, current time, static policy): it verifies the
// access token's signature and expiry, resolves the role requirement for the
// matched path prefix, and redirects on any failure. It never mutates
// persisted state.
type AuthGate struct {
	policy  *AccessPolicy
	jwtAuth auth.JWTAuthenticator
	secret  string
	cfg     *config.GateConfig
	logger  *zerolog.Logger
}

// NewAuthGate creates an AuthGate from the gate configuration.
func NewAuthGate(
	policy *AccessPolicy,
	jwtAuth auth.JWTAuthenticator,
	secret string,
	cfg *config.GateConfig,
	logger *zerolog.Logger,
) *AuthGate {
	return &AuthGate{
		policy:  policy,
		jwtAuth: jwtAuth,
		secret:  secret,
		cfg:     cfg,
		logger:  logger,
	}
}

// Handler wraps next with the gate. Paths matching no protected prefix pass
// through untouched.
func (g *AuthGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, protected := g.policy.Match(r.URL.Path)
		if !protected {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := g.extractToken(r)
		if tokenString == "" {
			http.Redirect(w, r, g.cfg.LoginPath, http.StatusFound)
			return
		}

		claims := &auth.AccessClaims{}
		if _, err := g.jwtAuth.ValidateTokenWithClaims(tokenString, g.secret, claims); err != nil {
			// Malformed and expired tokens get the same outward treatment;
			// the detail stays in the log.
			g.logger.Info().Err(err).Str("path", r.URL.Path).Msg("rejected access token")
			http.Redirect(w, r, g.cfg.LoginPath, http.StatusFound)
			return
		}

		if !rule.Allows(claims.Role) {
			// Authenticated but under-privileged: not the login page.
			g.logger.Info().
				Str("path", r.URL.Path).
				Str("role", claims.Role).
				Msg("role not permitted for path")
			http.Redirect(w, r, g.cfg.UnauthorizedPath, http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken pulls the access token from the auth cookie or, failing that,
// a bearer Authorization header.
func (g *AuthGate) extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(g.cfg.CookieName); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// ClaimsFromContext returns the verified claims the gate stored for this
// request, or nil when the path was public.
func ClaimsFromContext(ctx context.Context) *auth.AccessClaims {
	claims, ok := ctx.Value(claimsContextKey).(*auth.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}
