// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

type Handler struct {
	repo       Repository
	slipMaxID  int64
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
	dbPing     func(ctx context.Context) error
}

type HandlerConfig struct {
	Repository Repository
	// SlipMaxID is the size of the advice-slip universe, used for coverage.
	SlipMaxID  int
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		repo:       cfg.Repository,
		slipMaxID:  int64(cfg.SlipMaxID),
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
		dbPing:     cfg.DBPing,
	}
}

// RegisterRoutes mounts /admin behind authentication and the admin role.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/content", h.GetContentStats)
		r.Get("/stats/personas", h.GetPersonaUsage)
		r.Get("/stats/top", h.GetTopAdvice)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: ping(ctx, h.dbPing),
			Stats:   h.poolStats(),
		},
		Redis: RedisStatus{
			Healthy: ping(ctx, h.redisPing),
			Stats:   h.redisPoolStats(),
		},
		Runtime: readRuntimeStats(),
	}

	if content, err := h.repo.ContentStats(ctx); err == nil {
		response.Content = content
		response.Slips = h.coverage(content)
	}

	core.OK(w, response)
}

func (h *Handler) GetContentStats(w http.ResponseWriter, r *http.Request) {
	content, err := h.repo.ContentStats(r.Context())
	if err != nil {
		core.Error(w, core.PersistenceError(err))
		return
	}

	core.OK(w, content)
}

func (h *Handler) GetPersonaUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.repo.PersonaUsage(r.Context())
	if err != nil {
		core.Error(w, core.PersistenceError(err))
		return
	}
	if usage == nil {
		usage = []PersonaUsage{}
	}

	core.OK(w, usage)
}

func (h *Handler) GetTopAdvice(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			core.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxTopLimit)
	}

	top, err := h.repo.TopAdvice(r.Context(), limit)
	if err != nil {
		core.Error(w, core.PersistenceError(err))
		return
	}
	if top == nil {
		top = []TopAdvice{}
	}

	core.OK(w, top)
}

func (h *Handler) coverage(content *ContentStats) *SlipCoverage {
	if h.slipMaxID <= 0 {
		return nil
	}
	return &SlipCoverage{
		Universe:  h.slipMaxID,
		Persisted: content.AdviceSlips,
		Remaining: max(h.slipMaxID-content.AdviceSlips, 0),
	}
}

// ping reports a missing checker as unhealthy.
func ping(ctx context.Context, fn func(ctx context.Context) error) bool {
	if fn == nil {
		return false
	}
	return fn(ctx) == nil
}

func readRuntimeStats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		MemAlloc:     mem.Alloc,
		NumGC:        mem.NumGC,
	}
}

func (h *Handler) poolStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	s := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration.String(),
	}
}

func (h *Handler) redisPoolStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	s := h.redisStats()
	return &RedisPoolStats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Timeouts:   s.Timeouts,
		TotalConns: s.TotalConns,
		IdleConns:  s.IdleConns,
	}
}
