// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

const (
	UserIDKey contextKey = "user_id"
)

// CredentialVerifier resolves a request's credentials to a user id.
type CredentialVerifier interface {
	VerifyToken(ctx context.Context, token string) (int64, error)
	VerifyCredentials(ctx context.Context, username, password string) (int64, error)
}

type RoleChecker interface {
	HasRole(ctx context.Context, userID int64, role string) (bool, error)
}

// Authenticator requires a bearer token or HTTP Basic credentials. The Basic
// username may itself carry a token, in which case the password is ignored.
func Authenticator(verifier CredentialVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := resolveUser(r, verifier)
			if !ok {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth binds the user when credentials verify and otherwise lets the
// request through anonymously.
func OptionalAuth(verifier CredentialVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				if userID, ok := resolveUser(r, verifier); ok {
					r = r.WithContext(WithUserID(r.Context(), userID))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireRole(checker RoleChecker, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			allowed, err := checker.HasRole(r.Context(), userID, role)
			if err != nil {
				core.InternalServerError(w, err)
				return
			}

			if !allowed {
				core.JSONError(w, core.ForbiddenError("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func resolveUser(r *http.Request, verifier CredentialVerifier) (int64, bool) {
	ctx := r.Context()

	if token := ExtractBearerToken(r); token != "" {
		userID, err := verifier.VerifyToken(ctx, token)
		if err != nil {
			logAuthFailure(ctx, "bearer", err)
			return 0, false
		}
		return userID, true
	}

	usernameOrToken, password, ok := r.BasicAuth()
	if !ok || usernameOrToken == "" {
		return 0, false
	}

	if userID, err := verifier.VerifyToken(ctx, usernameOrToken); err == nil {
		return userID, true
	}

	userID, err := verifier.VerifyCredentials(ctx, usernameOrToken, password)
	if err != nil {
		logAuthFailure(ctx, "basic", err)
		return 0, false
	}

	return userID, true
}

func logAuthFailure(ctx context.Context, scheme string, err error) {
	reason := "invalid"
	switch {
	case errors.Is(err, core.ErrTokenExpired):
		reason = "expired"
	case errors.Is(err, core.ErrUnauthorized):
		reason = "bad_credentials"
	}

	slog.DebugContext(ctx, "authentication failed",
		"scheme", scheme,
		"reason", reason,
		"request_id", GetRequestID(ctx),
	)
}

func ExtractBearerToken(r *http.Request) string {
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

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok && id > 0
}
