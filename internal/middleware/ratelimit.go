// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

type RateLimitConfig struct {
	Limit    redis_rate.Limit
	KeyFunc  func(*http.Request) string
	FailOpen bool
	Prefix   string
}

// RateLimiter enforces a GCRA budget in redis so every replica shares it.
// When redis is absent or erroring, each process falls back to its own
// token bucket with the same rate.
type RateLimiter struct {
	shared *redis_rate.Limiter
	local  *localLimiter
	cfg    RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}

	rl := &RateLimiter{local: newLocalLimiter(), cfg: cfg}
	if rdb != nil {
		rl.shared = redis_rate.NewLimiter(rdb)
	}
	return rl
}

// decision is the outcome of one rate-limit check, whichever store made it.
type decision struct {
	allowed    bool
	remaining  int
	retryAfter time.Duration
	resetAfter time.Duration
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.cfg.Prefix + ":" + rl.cfg.KeyFunc(r)

		d, err := rl.decide(r.Context(), key)
		if err != nil {
			if !rl.cfg.FailOpen {
				core.JSONError(w, core.NewAppError(err, "rate limiter unavailable",
					http.StatusServiceUnavailable, "UNAVAILABLE"))
				return
			}
			slog.WarnContext(r.Context(), "rate limiter error, failing open",
				"key", key,
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		d.writeHeaders(w, rl.cfg.Limit)
		if !d.allowed {
			rejectRateLimited(w, d)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) decide(ctx context.Context, key string) (decision, error) {
	if rl.shared != nil {
		res, err := rl.shared.Allow(ctx, key, rl.cfg.Limit)
		if err == nil {
			return decision{
				allowed:    res.Allowed > 0,
				remaining:  res.Remaining,
				retryAfter: res.RetryAfter,
				resetAfter: res.ResetAfter,
			}, nil
		}
		slog.DebugContext(ctx, "redis rate limiter unavailable, using local bucket",
			"error", err,
		)
	}
	return rl.local.allow(key, rl.cfg.Limit)
}

func (d decision) writeHeaders(w http.ResponseWriter, limit redis_rate.Limit) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(d.remaining, 0)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(d.resetAfter).Unix(), 10))
}

func rejectRateLimited(w http.ResponseWriter, d decision) {
	seconds := max(int(math.Ceil(d.retryAfter.Seconds())), 1)

	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	core.JSONError(w, core.NewAppError(
		nil,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", seconds),
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	))
}

// KeyByIP trusts the last X-Forwarded-For hop, which is the one our own
// proxy appended.
func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return "ip:" + strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ip:" + xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// KeyByIPAndEndpoint scopes a budget to one route, with numeric path
// segments collapsed so /advice/1 and /advice/2 share it.
func KeyByIPAndEndpoint(r *http.Request) string {
	return fmt.Sprintf("%s:endpoint:%s %s",
		KeyByIP(r), r.Method, normalizeEndpoint(r.URL.Path))
}

func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if _, err := strconv.ParseUint(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

const (
	sweepInterval = 5 * time.Minute
	bucketTTL     = 10 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter keeps one token bucket per key and drops idle buckets on
// the first check after each sweep interval.
type localLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{buckets: make(map[string]*bucket), lastSweep: time.Now()}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) (decision, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return decision{}, fmt.Errorf("invalid limit %s", limit)
	}
	interval := limit.Period / time.Duration(limit.Rate)
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > sweepInterval {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > bucketTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(interval), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return decision{
			allowed:    false,
			remaining:  0,
			retryAfter: delay,
			resetAfter: interval,
		}, nil
	}

	return decision{
		allowed:    true,
		remaining:  int(b.limiter.TokensAt(now)),
		retryAfter: -1,
		resetAfter: interval,
	}, nil
}
