package middleware

import (
    "log/slog"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/restaurant-reservation/internal/config"
    "github.com/iliyamo/restaurant-reservation/internal/lib/logger/sl"
)

// bucketScript refills the bucket for the whole intervals elapsed since
// the last refill, then tries to take one token.
// Returns {allowed (0|1), remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local cap, per, every, now, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens, at = tonumber(b[1]), tonumber(b[2])
if not tokens then tokens, at = cap, now end
local n = math.floor(math.max(0, now - at) / every)
if n > 0 then
    tokens = math.min(cap, tokens + n * per)
    at = at + n * every
end
local ok, wait = 0, 0
if tokens >= 1 then
    ok, tokens = 1, tokens - 1
else
    wait = math.max(0, every - (now - at))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// verdict is one bucket decision.
type verdict struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

func parseVerdict(vals []int64) (verdict, bool) {
    if len(vals) != 3 {
        return verdict{}, false
    }
    return verdict{allowed: vals[0] == 1, remaining: vals[1], retry: time.Duration(vals[2]) * time.Millisecond}, true
}

// retryAfterSeconds rounds up so clients never retry early.
func (v verdict) retryAfterSeconds() int {
    secs := int((v.retry + time.Second - 1) / time.Second)
    if secs < 1 {
        secs = 1
    }
    return secs
}

// NewTokenBucket limits front-of-house staff with a Redis token bucket
// keyed by cfg.KeyStrategy.  Without Redis, or when Redis errors, requests
// go through: seating a guest matters more than throttling.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *slog.Logger) echo.MiddlewareFunc {
    const op = "middleware.NewTokenBucket"
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := int64(cfg.TTL / time.Second)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            vals, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
                cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), time.Now().UnixMilli(), ttl,
            ).Int64Slice()
            if err != nil {
                log.Warn("rate limit check failed", slog.String("op", op), slog.String("key", key), sl.Err(err))
                return next(c)
            }
            v, ok := parseVerdict(vals)
            if !ok {
                log.Warn("unexpected rate limit result", slog.String("op", op), slog.Any("result", vals))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if v.allowed {
                return next(c)
            }

            secs := v.retryAfterSeconds()
            h.Set("Retry-After", strconv.Itoa(secs))
            log.Debug("rate limited", slog.String("op", op), slog.String("key", key), slog.Duration("retry", v.retry))
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "rate limit exceeded",
                "reason":      "too_many_requests",
                "retry_after": secs,
            })
        }
    }
}

// buildRateKey joins the components named by the strategy ("ip", "staff",
// "route", joined with "_").  Unknown strategies fall back to all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    components := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")
    parts := []string{cfg.Prefix}
    for _, comp := range components {
        switch comp {
        case "ip":
            ip := c.RealIP()
            if ip == "" {
                ip = "unknown"
            }
            parts = append(parts, "ip", ip)
        case "staff":
            parts = append(parts, "staff", identityKey(c))
        case "route":
            parts = append(parts, "route", c.Request().Method+" "+c.Path())
        }
    }
    if len(parts) == 1 {
        return buildRateKey(config.RateLimitConfig{Prefix: cfg.Prefix, KeyStrategy: "ip_staff_route"}, c)
    }
    return strings.Join(parts, ":")
}
