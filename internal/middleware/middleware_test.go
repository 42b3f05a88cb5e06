// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/persona-advice/internal/config"
	"github.com/carterperez-dev/persona-advice/internal/core"
)

type stubVerifier struct{}

func (stubVerifier) VerifyToken(_ context.Context, token string) (int64, error) {
	switch token {
	case "good":
		return 7, nil
	case "stale":
		return 0, core.ErrTokenExpired
	}
	return 0, core.ErrTokenInvalid
}

func (stubVerifier) VerifyCredentials(_ context.Context, username, password string) (int64, error) {
	if username == "alice" && password == "s3cret" {
		return 3, nil
	}
	return 0, core.ErrUnauthorized
}

type stubRoles map[int64]bool

func (s stubRoles) HasRole(_ context.Context, userID int64, _ string) (bool, error) {
	if userID == 99 {
		return false, errors.New("role lookup failed")
	}
	return s[userID], nil
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	if id, ok := GetUserID(r.Context()); ok {
		w.Header().Set("X-User", strings.Repeat("u", int(id)))
	}
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticator(t *testing.T) {
	h := Authenticator(stubVerifier{})(http.HandlerFunc(echoUser))

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantUser string
	}{
		{
			name:     "no credentials",
			setup:    func(*http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "bearer token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			wantCode: http.StatusOK,
			wantUser: "uuuuuuu",
		},
		{
			name:     "expired bearer token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer stale") },
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "token as basic username",
			setup:    func(r *http.Request) { r.SetBasicAuth("good", "") },
			wantCode: http.StatusOK,
			wantUser: "uuuuuuu",
		},
		{
			name:     "basic username and password",
			setup:    func(r *http.Request) { r.SetBasicAuth("alice", "s3cret") },
			wantCode: http.StatusOK,
			wantUser: "uuu",
		},
		{
			name:     "wrong password",
			setup:    func(r *http.Request) { r.SetBasicAuth("alice", "nope") },
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantUser, rec.Header().Get("X-User"))
		})
	}
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	h := OptionalAuth(stubVerifier{})(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "uuuuuuu", rec.Header().Get("X-User"))
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(stubRoles{1: true}, "admin")(http.HandlerFunc(echoUser))

	tests := []struct {
		name     string
		userID   int64
		wantCode int
	}{
		{"anonymous", 0, http.StatusUnauthorized},
		{"member", 2, http.StatusForbidden},
		{"admin", 1, http.StatusOK},
		{"lookup error", 99, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID > 0 {
				req = req.WithContext(WithUserID(req.Context(), tt.userID))
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractBearerToken(req))

	req.Header.Set("Authorization", "bearer  abc ")
	assert.Equal(t, "abc", ExtractBearerToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractBearerToken(req))
}

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestLoggerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestID(Logger(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/advice/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), `"status":500`)
}

func TestSecurityHeaders(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})

	rec := httptest.NewRecorder()
	SecurityHeaders(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	SecurityHeaders(true)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins: []string{"https://advice.example"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         600,
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("preflight reached the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/advice/", nil)
	req.Header.Set("Origin", "https://advice.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://advice.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))

	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func hitLimiter(t *testing.T, rl *RateLimiter, n int) []int {
	t.Helper()
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, n)
	for range n {
		req := httptest.NewRequest(http.MethodPost, "/api/advice/", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	return codes
}

func TestRateLimiterLocalFallback(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{Limit: redis_rate.Limit{Rate: 2, Burst: 2, Period: time.Minute}})

	codes := hitLimiter(t, rl, 3)

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterRetryAfterHeader(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{Limit: redis_rate.Limit{Rate: 2, Burst: 1, Period: time.Minute}})
	h := rl.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	var rec *httptest.ResponseRecorder
	for range 2 {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	}

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiterFailOpenAndClosed(t *testing.T) {
	broken := redis_rate.Limit{Rate: 0, Burst: 1, Period: time.Minute}

	open := NewRateLimiter(nil, RateLimitConfig{Limit: broken, FailOpen: true})
	assert.Equal(t, []int{http.StatusOK}, hitLimiter(t, open, 1))

	closed := NewRateLimiter(nil, RateLimitConfig{Limit: broken})
	assert.Equal(t, []int{http.StatusServiceUnavailable}, hitLimiter(t, closed, 1))
}

func TestRateLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	rl := NewRateLimiter(rdb, RateLimitConfig{
		Limit: redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Minute},
	})

	codes := hitLimiter(t, rl, 2)

	require.Len(t, codes, 2)
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[1])
}

func TestKeyFunctions(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/advice/42/comments", nil)
	req.RemoteAddr = "198.51.100.4:1234"

	assert.Equal(t, "ip:198.51.100.4", KeyByIP(req))
	assert.Equal(t,
		"ip:198.51.100.4:endpoint:GET /api/advice/{id}/comments",
		KeyByIPAndEndpoint(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.1, 192.0.2.8")
	assert.Equal(t, "ip:192.0.2.8", KeyByIP(req))
}
