package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter decides whether one more request under key fits its window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// NewRateLimiter returns a Redis-backed limiter when rdb is set, so limits
// hold across instances, and an in-process one otherwise.
func NewRateLimiter(rdb *redis.Client, resource string, limit int, window time.Duration) RateLimiter {
	if rdb != nil {
		return &RedisRateLimiter{rdb: rdb, resource: resource, limit: limit, window: window}
	}
	return NewIPRateLimiter(limit, window)
}

// RedisRateLimiter is a fixed window counter: INCR, and EXPIRE on the first hit.
type RedisRateLimiter struct {
	rdb      *redis.Client
	resource string
	limit    int
	window   time.Duration
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if rl.limit <= 0 {
		return true, nil
	}

	k := fmt.Sprintf("rl:%s:%s", rl.resource, key)
	cnt, err := rl.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := rl.rdb.Expire(ctx, k, rl.window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(rl.limit), nil
}

// IPRateLimiter is a per-IP sliding window limiter kept in process memory.
type IPRateLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow records a request from ip and reports whether it fits in the window.
// A non-positive limit disables limiting.
func (rl *IPRateLimiter) Allow(_ context.Context, ip string) (bool, error) {
	if rl.limit <= 0 {
		return true, nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)
	if now.Sub(rl.lastSweep) >= rl.window {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	requests := live(rl.requests[ip], cutoff)
	if len(requests) >= rl.limit {
		rl.requests[ip] = requests
		return false, nil
	}
	rl.requests[ip] = append(requests, now)
	return true, nil
}

// sweep drops every IP whose window has emptied.
func (rl *IPRateLimiter) sweep(cutoff time.Time) {
	for ip, requests := range rl.requests {
		if len(live(requests, cutoff)) == 0 {
			delete(rl.requests, ip)
		}
	}
}

func (rl *IPRateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

func live(requests []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(requests); i++ {
		if requests[i].After(cutoff) {
			break
		}
	}
	return requests[i:]
}

// RateLimit aborts with 429 once the client IP exceeds the limiter. Store
// errors let the request through.
func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			Logger.WarnContext(c.Request.Context(), "rate limit check failed, allowing request", "error", err)
			c.Next()
			return
		}
		if !allowed {
			abort(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}
