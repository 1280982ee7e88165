// internal/api/ratelimit.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// fixed window counter; the first hit in a window sets its expiry
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int) Decision
}

// RedisLimiter counts requests per key in Redis. Any Redis failure allows
// the request.
type RedisLimiter struct {
	Client redis.Scripter
	Window time.Duration
	Prefix string
	logger logger.Logger
}

func NewRedisLimiter(client redis.Scripter, window time.Duration, log logger.Logger) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		Client: client,
		Window: window,
		Prefix: "rl:chat:",
		logger: log,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	open := Decision{Allowed: true, Limit: limit, Remaining: limit, ResetAt: time.Now().UTC().Add(l.Window)}
	if l.Client == nil {
		return open
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	res, err := rateLimitScript.Run(ctx, l.Client, []string{l.Prefix + key}, l.Window.Milliseconds()).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable", map[string]interface{}{"error": err.Error()})
		return open
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return open
	}
	count, _ := vals[0].(int64)
	ttlMs, _ := vals[1].(int64)
	if ttlMs < 0 {
		ttlMs = l.Window.Milliseconds()
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   int(count) <= limit,
		Count:     int(count),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().UTC().Add(time.Duration(ttlMs) * time.Millisecond),
	}
}

// rateLimit runs after authenticate and keys the window by user id.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Limiter == nil || s.config.RateLimitPerMinute <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		key := "anonymous"
		if c := claimsFrom(r.Context()); c != nil {
			key = strconv.FormatInt(c.UserID, 10)
		}
		d := s.deps.Limiter.Allow(r.Context(), key, s.config.RateLimitPerMinute)

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		if !d.Allowed {
			metrics.RateLimited.Inc()
			retry := int(time.Until(d.ResetAt).Seconds()) + 1
			h.Set("Retry-After", strconv.Itoa(retry))
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
