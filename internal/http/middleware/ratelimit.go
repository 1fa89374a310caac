package middleware

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/yungbote/weave-backend/internal/http/response"
	"github.com/yungbote/weave-backend/internal/platform/ctxutil"
)

type RateLimitConfig struct {
	RPS   float64
	Burst int
	// Limiters unused for this long are dropped on the next sweep.
	IdleTTL time.Duration
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per actor (or client IP before auth).
type RateLimiter struct {
	cfg RateLimitConfig

	mu        sync.Mutex
	m         map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{cfg: cfg, m: make(map[string]*limiterEntry), now: time.Now}
}

func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()
	rl.mu.Lock()
	e, ok := rl.m[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.m[key] = e
	}
	e.lastSeen = now
	if now.Sub(rl.lastSweep) > rl.cfg.IdleTTL {
		for k, v := range rl.m {
			if now.Sub(v.lastSeen) > rl.cfg.IdleTTL {
				delete(rl.m, k)
			}
		}
		rl.lastSweep = now
	}
	rl.mu.Unlock()
	return e.lim.AllowN(now, 1)
}

var errRateLimited = errors.New("rate limit exceeded")

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			key = rd.UserID.String()
		}
		if !rl.Allow(key) {
			c.Abort()
			c.Header("Retry-After", "1")
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited", errRateLimited)
			return
		}
		c.Next()
	}
}
